package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"short-link-registry/auth"
	"short-link-registry/cache"
	"short-link-registry/config"
	"short-link-registry/handler"
	appLogger "short-link-registry/logger"
	"short-link-registry/middleware"
	"short-link-registry/resolver"
	"short-link-registry/shortcode"
	"short-link-registry/store"
	"short-link-registry/upload"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Open the mapping store
	st, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open mapping store")
	}

	// Initialize cache (if enabled)
	var entryCache *cache.Cache
	if cfg.Cache.Enabled {
		entryCache, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	codes, err := shortcode.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize code generator")
	}

	baseURL := cfg.BasePublicURL()
	pipeline := upload.NewPipeline(cfg.Storage.UploadDir, cfg.Storage.MaxUploadMB*1024*1024)
	res := resolver.New(st, entryCache, baseURL)
	authService := auth.NewService(st)

	// Create handler with dependency injection
	h, err := handler.New(st, entryCache, pipeline, res, authService, codes, baseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)

	// Public routes
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/link", h.CreateLink).Methods("POST")
	r.HandleFunc("/upload", h.UploadFile).Methods("POST")
	r.HandleFunc("/submit", h.Submit).Methods("POST")
	r.HandleFunc("/api/upload", h.APIUpload).Methods("POST")
	r.HandleFunc("/r/{code}", h.ShowResult).Methods("GET")
	r.HandleFunc("/s/{code}", h.ResolveCode).Methods("GET")
	r.HandleFunc("/qr/{code}", h.GenerateQR).Methods("GET")

	// Stored files, served by their generated names
	r.PathPrefix("/files/").Handler(
		http.StripPrefix("/files/", http.FileServer(http.Dir(pipeline.Dir()))))

	// Admin surface behind the session gate
	sessionAuth := middleware.NewSessionAuth(authService)
	r.HandleFunc("/admin/login", h.AdminLoginPage).Methods("GET")
	r.HandleFunc("/admin/login", h.AdminLogin).Methods("POST")
	r.HandleFunc("/admin/logout", h.AdminLogout).Methods("POST")

	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(sessionAuth.Protect)
	adminRouter.HandleFunc("", h.AdminHome).Methods("GET")
	adminRouter.HandleFunc("/items", h.AdminItems).Methods("GET")
	adminRouter.HandleFunc("/items/{code}/delete", h.AdminDeleteItem).Methods("POST")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("base_url", baseURL).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close cache
	if entryCache != nil {
		entryCache.Close()
	}

	// Close the store
	if err := st.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close mapping store")
	}

	log.Info().Msg("Server stopped gracefully")
}
