// Package handler exposes the scheduling and booking operations over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"courtbook/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything without an
// apperr kind is an internal error and gets logged, not echoed.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, statusForKind(kind), map[string]string{
		"error": err.Error(),
		"code":  string(kind),
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Ownership:
		return http.StatusForbidden
	default:
		// Overlaps, capacity, balance, timing: the request was well-formed
		// but conflicts with current state.
		return http.StatusConflict
	}
}

// queryInt parses an integer query parameter, falling back on absence or noise.
func queryInt(r *http.Request, name string, fallback int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
