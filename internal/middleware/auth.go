package middleware

import (
	"encoding/json"
	"net/http"

	"courtbook/internal/auth"
	"courtbook/internal/store"
)

// userIDHeader is set by the authenticating reverse proxy in front of the
// API. The proxy owns credentials; this service only resolves the user row.
const userIDHeader = "X-User-ID"

// RequireAuth resolves the proxied user id to a user row and populates
// AuthContext. Requests without a known user get a JSON 401.
func RequireAuth(users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(userIDHeader)
			if id == "" {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(id)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{User: *user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
