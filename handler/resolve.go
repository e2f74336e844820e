package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"short-link-registry/qr"
	"short-link-registry/resolver"
	"short-link-registry/store"
)

// Index handles GET /: the submission form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, "index.html", nil)
}

// resultData feeds the result page template.
type resultData struct {
	Code      string
	ShortLink string
	QR        string
}

// ShowResult handles GET /r/{code}: the page shown right after a
// submission, with the short link and an optional QR artifact.
func (h *Handler) ShowResult(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if _, err := h.store.GetEntry(r.Context(), code); err != nil {
		if err == store.ErrNotFound {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("code", code).Msg("Failed to load entry for result page")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load entry")
		return
	}

	data := resultData{Code: code, ShortLink: h.shortLink(code)}
	if r.URL.Query().Get("qr") == "1" {
		data.QR = qr.DataURL(qr.Absolute(h.baseURL, data.ShortLink))
	}
	h.renderHTML(w, "result.html", data)
}

// ResolveCode handles GET /s/{code}: the public short-link dereference.
// The action depends on the entry kind, the file's extension and the
// request's Accept header.
func (h *Handler) ResolveCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	action, err := h.resolver.Resolve(r.Context(), code, r.Header.Get("Accept"))
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("Failed to resolve code")
		SendJSONError(w, http.StatusInternalServerError, errors.New("failed to resolve code"), "")
		return
	}

	switch a := action.(type) {
	case resolver.RedirectPermanent:
		log.Info().Str("code", code).Str("target", a.URL).Msg("Redirecting")
		http.Redirect(w, r, a.URL, http.StatusMovedPermanently)

	case resolver.RenderPreview:
		h.renderHTML(w, "preview.html", a)

	case resolver.RenderFileInfo:
		h.renderHTML(w, "fileinfo.html", a)

	case resolver.NotFound:
		log.Warn().Str("code", code).Msg("Unknown short code")
		http.NotFound(w, r)

	default:
		SendJSONError(w, http.StatusInternalServerError, errors.New("unhandled action"), "")
	}
}

// HealthCheck handles GET /health, reporting database connectivity.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		SendJSONSuccess(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unavailable",
		})
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

// renderHTML executes a named template with the standard headers.
func (h *Handler) renderHTML(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to execute template")
	}
}
