package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"short-link-registry/auth"
)

// SessionCookie is the name of the admin session cookie.
const SessionCookie = "registry_admin"

// SessionAuth gates admin routes behind the session scheme. The auth
// service is injected; there is no global "current admin".
type SessionAuth struct {
	auth *auth.Service
}

// NewSessionAuth creates the admin session middleware.
func NewSessionAuth(service *auth.Service) *SessionAuth {
	return &SessionAuth{auth: service}
}

// Token extracts the session token from the request cookie, if present.
func Token(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Protect redirects to the admin login page unless the request presents a
// valid session token.
func (sa *SessionAuth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := Token(r)
		ok, err := sa.auth.Validate(r.Context(), token)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Session validation failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !ok {
			log.Debug().Str("path", r.URL.Path).Str("ip", r.RemoteAddr).Msg("Admin route without valid session")
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}
