// Package server wires the stores, services, and handlers into one router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"courtbook/internal/email"
	"courtbook/internal/handler"
	"courtbook/internal/ledger"
	"courtbook/internal/middleware"
	"courtbook/internal/schedule"
	"courtbook/internal/store"
	ws "courtbook/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	eventH       *handler.EventHandler
	reservationH *handler.ReservationHandler
	userStore    *store.UserStore
	logger       *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	eventStore := store.NewEventStore(db)
	userStore := store.NewUserStore(db)

	scheduler := schedule.New(db, logger.With("component", "schedule"))

	var notifier ledger.Notifier
	if emailClient != nil && emailClient.Configured() {
		notifier = emailClient
	}
	l := ledger.New(db, notifier, logger.With("component", "ledger"))

	return &Server{
		db:           db,
		hub:          hub,
		eventH:       handler.NewEventHandler(scheduler, eventStore, hub, logger.With("component", "event")),
		reservationH: handler.NewReservationHandler(l, hub, logger.With("component", "reservation")),
		userStore:    userStore,
		logger:       logger,
	}
}

// Hub returns the websocket hub, mostly for tests.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /api/health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Event catalog: reads for everyone, mutations for admins only.
	mux.Handle("POST /api/calendars/{calendarId}/events", middleware.RequireAdmin(http.HandlerFunc(s.eventH.Create)))
	mux.HandleFunc("GET /api/calendars/{calendarId}/events", s.eventH.ListByCalendar)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.Handle("PUT /api/events/{eventId}", middleware.RequireAdmin(http.HandlerFunc(s.eventH.Update)))
	mux.Handle("DELETE /api/events/{eventId}", middleware.RequireAdmin(http.HandlerFunc(s.eventH.Delete)))

	// Reservations
	mux.HandleFunc("POST /api/calendars/{calendarId}/events/{eventId}/reservations", s.reservationH.Create)
	mux.HandleFunc("DELETE /api/reservations/{reservationId}", s.reservationH.Delete)
	mux.HandleFunc("GET /api/reservations", s.reservationH.List)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
