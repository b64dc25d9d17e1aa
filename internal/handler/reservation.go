package handler

import (
	"log/slog"
	"net/http"

	"courtbook/internal/auth"
	"courtbook/internal/ledger"
	"courtbook/internal/websocket"
)

type ReservationHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewReservationHandler(l *ledger.Ledger, hub *websocket.Hub, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{ledger: l, hub: hub, logger: logger}
}

// Create books a seat for the authenticated user on the event.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	res, err := h.ledger.Create(r.Context(), user,
		r.PathValue("calendarId"), r.PathValue("eventId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(websocket.NewMessage("reservation", "created", res.ID,
		map[string]any{"event_id": res.EventID}))
	writeJSON(w, http.StatusCreated, res)
}

// Delete cancels a reservation and refunds its charge.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	res, err := h.ledger.Cancel(r.Context(), user, r.PathValue("reservationId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(websocket.NewMessage("reservation", "cancelled", res.ID,
		map[string]any{"event_id": res.EventID}))
	w.WriteHeader(http.StatusNoContent)
}

// List returns a page of the caller's reservations; admins may widen the view.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	f := ledger.Filter{
		From:       r.URL.Query().Get("from"),
		CalendarID: r.URL.Query().Get("calendarId"),
		OwnerID:    r.URL.Query().Get("owner"),
		EventID:    r.URL.Query().Get("eventId"),
	}
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", defaultPageSize)

	result, err := h.ledger.List(r.Context(), user, f, page, size)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
