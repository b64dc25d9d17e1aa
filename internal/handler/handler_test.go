package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"courtbook/internal/apperr"
	"courtbook/internal/auth"
	"courtbook/internal/database"
	"courtbook/internal/ledger"
	"courtbook/internal/model"
	"courtbook/internal/schedule"
	"courtbook/internal/store"
	"courtbook/internal/websocket"
)

type testEnv struct {
	db       *sql.DB
	events   *EventHandler
	resvs    *ReservationHandler
	calendar *model.Calendar
}

func setupHandlers(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	hub := websocket.NewHub(logger)
	scheduler := schedule.New(db, logger)
	l := ledger.New(db, nil, logger)

	cal, err := store.NewCalendarStore(db).Create("Court A", "loc-1", nil)
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}

	return &testEnv{
		db:       db,
		events:   NewEventHandler(scheduler, store.NewEventStore(db), hub, logger),
		resvs:    NewReservationHandler(l, hub, logger),
		calendar: cal,
	}
}

func (e *testEnv) user(t *testing.T, email string, balance int) *model.AppUser {
	t.Helper()
	u, err := store.NewUserStore(e.db).Create(email, "User", balance, false, model.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func authedRequest(method, target string, body string, user *model.AppUser) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != nil {
		req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{User: *user}))
	}
	return req
}

func TestEventCreateSingle(t *testing.T) {
	env := setupHandlers(t)

	body := `{"date":"2030-06-03","start_time":"10:00","end_time":"11:00",` +
		`"max_capacity":4,"price":100,"discount_price":40,"title":"Morning drill"}`
	req := httptest.NewRequest("POST", "/api/calendars/"+env.calendar.ID+"/events", strings.NewReader(body))
	req.SetPathValue("calendarId", env.calendar.ID)
	rec := httptest.NewRecorder()
	env.events.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got model.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Morning drill" || got.CalendarID != env.calendar.ID {
		t.Errorf("event = %+v", got)
	}
	if got.SpacesAvailable != 4 {
		t.Errorf("spaces available = %d, want 4", got.SpacesAvailable)
	}
}

func TestEventCreateRecurring(t *testing.T) {
	env := setupHandlers(t)

	// 2030-06-03 is a Monday; Mon+Wed until the exclusive bound 2030-06-17.
	body := `{"date":"2030-06-03","start_time":"10:00","end_time":"11:00",` +
		`"max_capacity":4,"price":100,"title":"Weekly drill",` +
		`"recurrence":{"weekdays":[1,3],"repeat_until":"2030-06-17"}}`
	req := httptest.NewRequest("POST", "/api/calendars/"+env.calendar.ID+"/events", strings.NewReader(body))
	req.SetPathValue("calendarId", env.calendar.ID)
	rec := httptest.NewRecorder()
	env.events.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got []model.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("events = %d, want 4", len(got))
	}
	if got[0].RecurrenceGroupID == nil {
		t.Error("series events must carry a recurrence group id")
	}
}

func TestEventCreateErrorMapping(t *testing.T) {
	env := setupHandlers(t)

	tests := []struct {
		name       string
		calendarID string
		body       string
		status     int
		code       apperr.Kind
	}{
		{
			name:       "validation",
			calendarID: env.calendar.ID,
			body:       `{"date":"2030-06-03","start_time":"11:00","end_time":"10:00","max_capacity":4,"price":100,"title":"Bad"}`,
			status:     http.StatusBadRequest,
			code:       apperr.Validation,
		},
		{
			name:       "unknown calendar",
			calendarID: "missing",
			body:       `{"date":"2030-06-03","start_time":"10:00","end_time":"11:00","max_capacity":4,"price":100,"title":"Drill"}`,
			status:     http.StatusNotFound,
			code:       apperr.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/calendars/"+tt.calendarID+"/events", strings.NewReader(tt.body))
			req.SetPathValue("calendarId", tt.calendarID)
			rec := httptest.NewRecorder()
			env.events.Create(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			var resp map[string]string
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp["code"] != string(tt.code) {
				t.Errorf("code = %q, want %q", resp["code"], tt.code)
			}
		})
	}
}

func TestEventOverlapConflict(t *testing.T) {
	env := setupHandlers(t)

	body := `{"date":"2030-06-03","start_time":"10:00","end_time":"11:00","max_capacity":4,"price":100,"title":"First"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.SetPathValue("calendarId", env.calendar.ID)
	rec := httptest.NewRecorder()
	env.events.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Body.String())
	}

	body = `{"date":"2030-06-03","start_time":"10:30","end_time":"11:30","max_capacity":4,"price":100,"title":"Second"}`
	req = httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.SetPathValue("calendarId", env.calendar.ID)
	rec = httptest.NewRecorder()
	env.events.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["code"] != string(apperr.Overlap) {
		t.Errorf("code = %q, want %q", resp["code"], apperr.Overlap)
	}
}

func TestReservationLifecycle(t *testing.T) {
	env := setupHandlers(t)
	user := env.user(t, "alice@example.com", 500)

	ev, err := store.NewEventStore(env.db).Create(model.Event{
		CalendarID:  env.calendar.ID,
		Date:        "2030-06-03",
		StartTime:   "10:00",
		EndTime:     "11:00",
		MaxCapacity: 2,
		Price:       100,
		Title:       "Drill",
	})
	if err != nil {
		t.Fatal(err)
	}

	req := authedRequest("POST", "/", "", user)
	req.SetPathValue("calendarId", env.calendar.ID)
	req.SetPathValue("eventId", ev.ID)
	rec := httptest.NewRecorder()
	env.resvs.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res model.Reservation
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}

	// Duplicate booking maps to 409.
	req = authedRequest("POST", "/", "", user)
	req.SetPathValue("calendarId", env.calendar.ID)
	req.SetPathValue("eventId", ev.ID)
	rec = httptest.NewRecorder()
	env.resvs.Create(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// The listing shows the caller's reservation.
	req = authedRequest("GET", "/api/reservations", "", user)
	rec = httptest.NewRecorder()
	env.resvs.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var page ledger.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.TotalItems != 1 {
		t.Errorf("total items = %d, want 1", page.TotalItems)
	}

	req = authedRequest("DELETE", "/", "", user)
	req.SetPathValue("reservationId", res.ID)
	rec = httptest.NewRecorder()
	env.resvs.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestReservationRequiresAuth(t *testing.T) {
	env := setupHandlers(t)

	req := httptest.NewRequest("POST", "/", nil)
	req.SetPathValue("calendarId", env.calendar.ID)
	req.SetPathValue("eventId", "ev-1")
	rec := httptest.NewRecorder()
	env.resvs.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.Validation, http.StatusBadRequest},
		{apperr.NotFound, http.StatusNotFound},
		{apperr.Ownership, http.StatusForbidden},
		{apperr.Overlap, http.StatusConflict},
		{apperr.EventFull, http.StatusConflict},
		{apperr.InsufficientFunds, http.StatusConflict},
		{apperr.DuplicateReservation, http.StatusConflict},
		{apperr.PastEvent, http.StatusConflict},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.status {
			t.Errorf("statusForKind(%s) = %d, want %d", tt.kind, got, tt.status)
		}
	}
}
