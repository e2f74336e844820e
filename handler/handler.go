package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"

	"short-link-registry/auth"
	"short-link-registry/cache"
	"short-link-registry/model"
	"short-link-registry/resolver"
	"short-link-registry/shortcode"
	"short-link-registry/store"
	"short-link-registry/upload"
)

// maxRetries bounds the generate-and-insert loop on short-code collisions.
const maxRetries = 5

var (
	ErrMaxRetriesExceeded = errors.New("failed to allocate a unique short code after maximum retries")
	ErrInvalidLink        = errors.New("invalid URL format, must start with http:// or https://")
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler wires the registry components to the HTTP surface.
type Handler struct {
	store    *store.Store
	cache    *cache.Cache
	pipeline *upload.Pipeline
	resolver *resolver.Resolver
	auth     *auth.Service
	newCode  func() string
	baseURL  string
	tmpl     *template.Template
}

// New creates the handler with all dependencies injected.
func New(st *store.Store, c *cache.Cache, pipeline *upload.Pipeline, res *resolver.Resolver, authSvc *auth.Service, codes *shortcode.Generator, baseURL string) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{
		store:    st,
		cache:    c,
		pipeline: pipeline,
		resolver: res,
		auth:     authSvc,
		newCode:  codes.Code,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		tmpl:     tmpl,
	}, nil
}

// shortLink builds the public short link for a code.
func (h *Handler) shortLink(code string) string {
	return fmt.Sprintf("%s/s/%s", h.baseURL, code)
}

// validateLink applies the accepted URL shape for submissions.
func validateLink(link string) error {
	if link == "" {
		return errors.New("no link provided")
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return ErrInvalidLink
	}
	return nil
}

// insertWithUniqueCode generates a code and inserts the entry, retrying a
// bounded number of times when the store rejects a duplicate. The store is
// the sole uniqueness authority; the generator never checks.
func (h *Handler) insertWithUniqueCode(ctx context.Context, kind, value string) (string, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		code := h.newCode()
		err := h.store.InsertEntry(ctx, model.Entry{Code: code, Kind: kind, Value: value})
		if err == nil {
			return code, nil
		}
		if err == store.ErrDuplicateCode {
			log.Warn().
				Str("code", code).
				Int("attempt", attempt+1).
				Msg("Collision detected, retrying")
			continue
		}
		return "", err
	}
	return "", ErrMaxRetriesExceeded
}
