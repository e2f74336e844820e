package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"short-link-registry/auth"
	"short-link-registry/middleware"
	"short-link-registry/model"
	"short-link-registry/store"
)

// adminListLimit bounds the items listing.
const adminListLimit = 500

// sessionMaxAge is the cookie lifetime; the session row itself never
// expires (known gap).
const sessionMaxAge = 30 * 24 * 60 * 60

// AdminLoginPage handles GET /admin/login.
func (h *Handler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, "admin_login.html", nil)
}

// AdminLogin handles POST /admin/login. The first ever login bootstraps the
// admin account with the submitted credentials; afterwards only those
// credentials authenticate.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid form body")
		return
	}

	token, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err == auth.ErrInvalidCredentials {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Admin login failed")
		SendJSONError(w, http.StatusInternalServerError, err, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// AdminLogout handles POST /admin/logout. Always succeeds, even for an
// absent or already-revoked token.
func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.Token(r)); err != nil {
		log.Error().Err(err).Msg("Failed to revoke session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

// AdminHome handles GET /admin.
func (h *Handler) AdminHome(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, "admin_home.html", nil)
}

// adminItemView is a row of the admin items table.
type adminItemView struct {
	Code      string
	Kind      string
	Value     string
	CreatedAt string
}

// adminItemsData feeds the items template.
type adminItemsData struct {
	Items   []adminItemView
	Warning string
}

// AdminItems handles GET /admin/items: the newest entries, with an optional
// warning banner carried over from a preceding delete.
func (h *Handler) AdminItems(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListEntries(r.Context(), adminListLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list entries")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to list entries")
		return
	}

	data := adminItemsData{Items: make([]adminItemView, 0, len(entries))}
	for _, e := range entries {
		data.Items = append(data.Items, adminItemView{
			Code:      e.Code,
			Kind:      e.Kind,
			Value:     e.Value,
			CreatedAt: time.Unix(e.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"),
		})
	}
	if r.URL.Query().Get("warn") == "file" {
		data.Warning = "Entry deleted, but its stored file could not be removed."
	}

	h.renderHTML(w, "admin_items.html", data)
}

// AdminDeleteItem handles POST /admin/items/{code}/delete. The row is
// deleted first; for file entries the backing file is then removed
// best-effort, and a failure there is reported instead of hidden.
func (h *Handler) AdminDeleteItem(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	entry, err := h.store.GetEntry(r.Context(), code)
	if err == store.ErrNotFound {
		http.Redirect(w, r, "/admin/items", http.StatusFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("Failed to load entry for deletion")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete entry")
		return
	}

	if err := h.store.DeleteEntry(r.Context(), code); err != nil && err != store.ErrNotFound {
		log.Error().Err(err).Str("code", code).Msg("Failed to delete entry")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete entry")
		return
	}
	h.resolver.Invalidate(code)

	redirect := "/admin/items"
	if entry.Kind == model.KindFile {
		if err := h.pipeline.Remove(entry.Filename()); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).
				Str("code", code).
				Str("file", entry.Filename()).
				Msg("Entry row deleted but backing file removal failed")
			redirect = "/admin/items?warn=file"
		}
	}

	log.Info().Str("code", code).Str("kind", entry.Kind).Msg("Entry deleted")
	http.Redirect(w, r, redirect, http.StatusFound)
}
