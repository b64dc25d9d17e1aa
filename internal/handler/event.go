package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"courtbook/internal/model"
	"courtbook/internal/schedule"
	"courtbook/internal/store"
	"courtbook/internal/websocket"
)

const defaultPageSize = 20

type EventHandler struct {
	scheduler *schedule.Scheduler
	events    *store.EventStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewEventHandler(s *schedule.Scheduler, es *store.EventStore, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{scheduler: s, events: es, hub: hub, logger: logger}
}

type recurrenceRequest struct {
	Weekdays    []int  `json:"weekdays"`
	RepeatUntil string `json:"repeat_until"`
}

type eventRequest struct {
	Date          string             `json:"date"`
	StartTime     string             `json:"start_time"`
	EndTime       string             `json:"end_time"`
	MaxCapacity   int                `json:"max_capacity"`
	Price         int                `json:"price"`
	DiscountPrice int                `json:"discount_price"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Recurrence    *recurrenceRequest `json:"recurrence"`
}

type updateEventRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	UpdateSeries bool   `json:"update_series"`
}

type eventPage struct {
	Items      []model.Event `json:"items"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	TotalItems int           `json:"total_items"`
	TotalPages int           `json:"total_pages"`
}

// Create books a new event, or a whole series when a recurrence is given.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	sreq := schedule.CreateEventRequest{
		CalendarID:    r.PathValue("calendarId"),
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		MaxCapacity:   req.MaxCapacity,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Title:         req.Title,
		Description:   req.Description,
	}

	if req.Recurrence == nil {
		event, err := h.scheduler.CreateSingle(r.Context(), sreq)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		h.hub.Broadcast(websocket.NewMessage("event", "created", event.ID,
			map[string]any{"calendar_id": event.CalendarID}))
		writeJSON(w, http.StatusCreated, event)
		return
	}

	days := make([]time.Weekday, len(req.Recurrence.Weekdays))
	for i, d := range req.Recurrence.Weekdays {
		days[i] = time.Weekday(d)
	}
	sreq.Recurrence = &schedule.RecurrenceRequest{
		Weekdays:    days,
		RepeatUntil: req.Recurrence.RepeatUntil,
	}

	events, err := h.scheduler.CreateRecurring(r.Context(), sreq)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.hub.Broadcast(websocket.NewMessage("event", "created", *events[0].RecurrenceGroupID,
		map[string]any{"calendar_id": sreq.CalendarID, "count": len(events)}))
	writeJSON(w, http.StatusCreated, events)
}

// ListByCalendar returns the calendar's events between from and to, date ascending.
func (h *EventHandler) ListByCalendar(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to query parameters are required"})
		return
	}

	events, err := h.events.ListByCalendarAndDateRange(r.PathValue("calendarId"), from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// List returns a page of events across calendars.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.EventFilter{
		From:       r.URL.Query().Get("from"),
		CalendarID: r.URL.Query().Get("calendarId"),
	}
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", defaultPageSize)
	if page < 0 {
		page = 0
	}

	limit, offset := size, page*size
	if size < 1 {
		limit, offset = -1, 0
	}

	items, err := h.events.List(f, limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	total, err := h.events.Count(f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	totalPages := 1
	if size >= 1 {
		totalPages = (total + size - 1) / size
	}
	if items == nil {
		items = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventPage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Update rewrites the event's title and description, optionally across its series.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	eventID := r.PathValue("eventId")
	events, err := h.scheduler.Update(r.Context(), eventID, schedule.UpdateEventRequest{
		Title:        req.Title,
		Description:  req.Description,
		UpdateSeries: req.UpdateSeries,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(websocket.NewMessage("event", "updated", eventID,
		map[string]any{"series": req.UpdateSeries}))
	writeJSON(w, http.StatusOK, events)
}

// Delete removes an unreserved future event.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	event, err := h.scheduler.Delete(r.Context(), eventID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(websocket.NewMessage("event", "deleted", eventID,
		map[string]any{"calendar_id": event.CalendarID}))
	w.WriteHeader(http.StatusNoContent)
}
