package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"courtbook/internal/auth"
	"courtbook/internal/database"
	"courtbook/internal/model"
	"courtbook/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) *store.UserStore {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewUserStore(db)
}

func TestRequireAuthNoHeader(t *testing.T) {
	users := setupAuthMiddlewareDB(t)

	handler := RequireAuth(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthUnknownUser(t *testing.T) {
	users := setupAuthMiddlewareDB(t)

	handler := RequireAuth(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(userIDHeader, "no-such-user")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	users := setupAuthMiddlewareDB(t)
	user, err := users.Create("alice@example.com", "Alice", 100, false, model.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	var gotID string
	handler := RequireAuth(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.UserID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(userIDHeader, user.ID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotID != user.ID {
		t.Errorf("context user id = %q, want %q", gotID, user.ID)
	}
}

func TestRequireAdmin(t *testing.T) {
	users := setupAuthMiddlewareDB(t)
	admin, err := users.Create("admin@example.com", "Admin", 0, false, model.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	member, err := users.Create("bob@example.com", "Bob", 0, false, model.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	handler := RequireAuth(users)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("DELETE", "/", nil)
	req.Header.Set(userIDHeader, member.ID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest("DELETE", "/", nil)
	req.Header.Set(userIDHeader, admin.ID)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	if got := RealIP(req); got != "10.0.0.5" {
		t.Errorf("RealIP = %q, want %q", got, "10.0.0.5")
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.9" {
		t.Errorf("RealIP = %q, want %q", got, "203.0.113.9")
	}
}
