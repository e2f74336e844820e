package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"short-link-registry/middleware"
)

func login(t *testing.T, env *testEnv, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return env.do(req)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, 1024)

	for _, path := range []string{"/admin", "/admin/items"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusFound {
			t.Errorf("GET %s without session status = %d, want 302", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("GET %s redirect = %q, want /admin/login", path, loc)
		}
	}
}

func TestAdminBootstrapLogin(t *testing.T) {
	env := newTestEnv(t, 1024)

	// First login creates the account
	w := login(t, env, "alice", "secret1")
	if w.Code != http.StatusFound {
		t.Fatalf("first login status = %d, want 302", w.Code)
	}
	cookie := sessionCookie(t, w)
	if len(cookie.Value) != 48 {
		t.Errorf("session token length = %d, want 48", len(cookie.Value))
	}
	if !cookie.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
	}

	// The bootstrapped credentials are now the only ones that work
	if w := login(t, env, "alice", "wrongpass"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}
	if w := login(t, env, "bob", "secret1"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong username status = %d, want 401", w.Code)
	}
	if w := login(t, env, "alice", "secret1"); w.Code != http.StatusFound {
		t.Errorf("repeat login status = %d, want 302", w.Code)
	}

	// The session opens the gated routes
	req := httptest.NewRequest(http.MethodGet, "/admin/items", nil)
	req.AddCookie(cookie)
	if w := env.do(req); w.Code != http.StatusOK {
		t.Errorf("GET /admin/items with session status = %d", w.Code)
	}
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t, 1024)

	cookie := sessionCookie(t, login(t, env, "alice", "secret1"))

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("POST /admin/logout status = %d, want 302", w.Code)
	}

	// The revoked token no longer opens admin routes
	req = httptest.NewRequest(http.MethodGet, "/admin/items", nil)
	req.AddCookie(cookie)
	if w := env.do(req); w.Code != http.StatusFound {
		t.Errorf("GET /admin/items after logout status = %d, want 302", w.Code)
	}

	// Logging out again is harmless
	if w := env.do(httptest.NewRequest(http.MethodPost, "/admin/logout", nil)); w.Code != http.StatusFound {
		t.Errorf("repeat logout status = %d, want 302", w.Code)
	}
}

func TestAdminItemsListing(t *testing.T) {
	env := newTestEnv(t, 1024)

	w := postLink(t, env, "https://example.com/listed", false)
	var resp SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode error = %v", err)
	}

	cookie := sessionCookie(t, login(t, env, "alice", "secret1"))
	req := httptest.NewRequest(http.MethodGet, "/admin/items", nil)
	req.AddCookie(cookie)
	w = env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /admin/items status = %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, resp.Code) {
		t.Error("items page missing the entry code")
	}
	if !strings.Contains(page, "https://example.com/listed") {
		t.Error("items page missing the entry value")
	}
}

func TestAdminDeleteFileEntry(t *testing.T) {
	env := newTestEnv(t, 1024)

	body, contentType := multipartUpload(t, "file", "doomed.txt", []byte("bye"), nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /upload status = %d", w.Code)
	}
	var resp SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode error = %v", err)
	}
	if len(uploadedFiles(t, env.dir)) != 1 {
		t.Fatal("uploaded file not stored")
	}

	cookie := sessionCookie(t, login(t, env, "alice", "secret1"))
	req = httptest.NewRequest(http.MethodPost, "/admin/items/"+resp.Code+"/delete", nil)
	req.AddCookie(cookie)
	w = env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("delete status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin/items" {
		t.Errorf("delete redirect = %q", loc)
	}

	// Row, file, and resolution are all gone
	if names := uploadedFiles(t, env.dir); len(names) != 0 {
		t.Errorf("backing file survived deletion: %v", names)
	}
	if w := env.do(httptest.NewRequest(http.MethodGet, "/s/"+resp.Code, nil)); w.Code != http.StatusNotFound {
		t.Errorf("GET /s/{code} after delete status = %d, want 404", w.Code)
	}
}

func TestAdminDeleteUnknownCode(t *testing.T) {
	env := newTestEnv(t, 1024)

	cookie := sessionCookie(t, login(t, env, "alice", "secret1"))
	req := httptest.NewRequest(http.MethodPost, "/admin/items/missing0/delete", nil)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("delete unknown status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin/items" {
		t.Errorf("redirect = %q, want /admin/items", loc)
	}
}
