// Package schedule creates, updates, and deletes bookable time slots.
// Every mutation runs as one immediate transaction so the overlap check and
// the inserts that depend on it cannot interleave with a concurrent request.
package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"courtbook/internal/apperr"
	"courtbook/internal/model"
	"courtbook/internal/recurrence"
	"courtbook/internal/store"
)

type Scheduler struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func New(db *sql.DB, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEventRequest carries the fields for a single slot; Recurrence turns
// it into a weekly series.
type CreateEventRequest struct {
	CalendarID    string
	Date          string
	StartTime     string
	EndTime       string
	MaxCapacity   int
	Price         int
	DiscountPrice int
	Title         string
	Description   string
	Recurrence    *RecurrenceRequest
}

type RecurrenceRequest struct {
	Weekdays    []time.Weekday
	RepeatUntil string
}

// UpdateEventRequest mutates title and description only. Capacity, price, and
// the time window are immutable after creation.
type UpdateEventRequest struct {
	Title        string
	Description  string
	UpdateSeries bool
}

// CreateSingle validates and persists one event. The overlap check and the
// insert share a transaction: the first request to commit wins, the second is
// rejected.
func (s *Scheduler) CreateSingle(ctx context.Context, req CreateEventRequest) (*model.Event, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create event: %w", err)
	}
	defer tx.Rollback()

	if err := checkCalendarExists(tx, req.CalendarID); err != nil {
		return nil, err
	}

	events := store.NewEventStore(tx)
	overlaps, err := events.OverlapsSingle(req.CalendarID, "", req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperr.New(apperr.Overlap,
			"event on %s %s-%s overlaps an existing event", req.Date, req.StartTime, req.EndTime)
	}

	ev, err := events.Create(model.Event{
		CalendarID:    req.CalendarID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		MaxCapacity:   req.MaxCapacity,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create event: %w", err)
	}

	s.logger.Info("event created", "event_id", ev.ID, "calendar_id", ev.CalendarID, "date", ev.Date)
	return ev, nil
}

// CreateRecurring expands the weekly series over [date, repeatUntil), checks
// the whole window for conflicts once, and persists the group plus every
// occurrence atomically. On any conflict nothing is created.
func (s *Scheduler) CreateRecurring(ctx context.Context, req CreateEventRequest) ([]model.Event, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	if req.Recurrence == nil {
		return nil, apperr.New(apperr.Validation, "recurrence is required")
	}

	startDate, _ := time.Parse(model.DateLayout, req.Date)
	until, _ := time.Parse(model.DateLayout, req.Recurrence.RepeatUntil)
	weekdays := normalizeWeekdays(req.Recurrence.Weekdays)

	occurrences := recurrence.Expand(startDate, until, weekdays)
	if len(occurrences) == 0 {
		return nil, apperr.New(apperr.Validation,
			"recurrence %s to %s yields no occurrences", req.Date, req.Recurrence.RepeatUntil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create recurring events: %w", err)
	}
	defer tx.Rollback()

	if err := checkCalendarExists(tx, req.CalendarID); err != nil {
		return nil, err
	}

	events := store.NewEventStore(tx)
	overlaps, err := events.OverlapsRecurring(
		req.CalendarID, req.Date, req.Recurrence.RepeatUntil, req.StartTime, req.EndTime, weekdays)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperr.New(apperr.Overlap,
			"recurring events %s-%s overlap existing events", req.StartTime, req.EndTime)
	}

	group, err := store.NewRecurrenceGroupStore(tx).Create(weekdays, req.Recurrence.RepeatUntil)
	if err != nil {
		return nil, err
	}

	created := make([]model.Event, 0, len(occurrences))
	for _, day := range occurrences {
		ev, err := events.Create(model.Event{
			CalendarID:        req.CalendarID,
			Date:              day.Format(model.DateLayout),
			StartTime:         req.StartTime,
			EndTime:           req.EndTime,
			MaxCapacity:       req.MaxCapacity,
			Price:             req.Price,
			DiscountPrice:     req.DiscountPrice,
			Title:             strings.TrimSpace(req.Title),
			Description:       req.Description,
			RecurrenceGroupID: &group.ID,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, *ev)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create recurring events: %w", err)
	}

	s.logger.Info("recurring events created",
		"group_id", group.ID, "calendar_id", req.CalendarID, "count", len(created))
	return created, nil
}

// Delete removes an event after its guards pass: it must exist, hold no
// reservations, and not have started. When the last member of a recurrence
// group goes, the group goes with it in the same transaction.
func (s *Scheduler) Delete(ctx context.Context, eventID string) (*model.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete event: %w", err)
	}
	defer tx.Rollback()

	events := store.NewEventStore(tx)
	ev, err := events.GetByID(eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperr.New(apperr.NotFound, "event %s not found", eventID)
	}

	count, err := store.NewReservationStore(tx).CountByEvent(eventID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.New(apperr.EventHasReservations,
			"event %s has %d reservations", eventID, count)
	}
	if ev.StartInstant().Before(s.now()) {
		return nil, apperr.New(apperr.PastEvent, "event %s has already started", eventID)
	}

	if err := events.Delete(eventID); err != nil {
		return nil, err
	}

	if ev.RecurrenceGroupID != nil {
		remaining, err := events.CountByRecurrenceGroup(*ev.RecurrenceGroupID)
		if err != nil {
			return nil, err
		}
		if remaining == 0 {
			if err := deleteGroup(tx, *ev.RecurrenceGroupID); err != nil {
				return nil, err
			}
			s.logger.Info("recurrence group deleted with last event",
				"group_id", *ev.RecurrenceGroupID, "event_id", eventID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete event: %w", err)
	}

	s.logger.Info("event deleted", "event_id", eventID)
	return ev, nil
}

// Update changes title and description of one event, or of every event in
// its recurrence group when req.UpdateSeries is set.
func (s *Scheduler) Update(ctx context.Context, eventID string, req UpdateEventRequest) ([]model.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.New(apperr.Validation, "title is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update event: %w", err)
	}
	defer tx.Rollback()

	events := store.NewEventStore(tx)
	ev, err := events.GetByID(eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperr.New(apperr.NotFound, "event %s not found", eventID)
	}

	var updated []model.Event
	if req.UpdateSeries {
		if ev.RecurrenceGroupID == nil {
			return nil, apperr.New(apperr.Validation, "event %s is not part of a series", eventID)
		}
		if err := events.UpdateSeriesText(*ev.RecurrenceGroupID, title, req.Description); err != nil {
			return nil, err
		}
		updated, err = events.ListByRecurrenceGroup(*ev.RecurrenceGroupID)
		if err != nil {
			return nil, err
		}
	} else {
		if err := events.UpdateText(eventID, title, req.Description); err != nil {
			return nil, err
		}
		fresh, err := events.GetByID(eventID)
		if err != nil {
			return nil, err
		}
		updated = []model.Event{*fresh}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update event: %w", err)
	}

	s.logger.Info("event updated", "event_id", eventID, "series", req.UpdateSeries)
	return updated, nil
}

// DeleteRecurrenceGroup removes a group that owns no events.
func (s *Scheduler) DeleteRecurrenceGroup(ctx context.Context, groupID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete recurrence group: %w", err)
	}
	defer tx.Rollback()

	group, err := store.NewRecurrenceGroupStore(tx).GetByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return apperr.New(apperr.NotFound, "recurrence group %s not found", groupID)
	}

	if err := deleteGroup(tx, groupID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete recurrence group: %w", err)
	}
	return nil
}

func deleteGroup(tx *sql.Tx, groupID string) error {
	count, err := store.NewEventStore(tx).CountByRecurrenceGroup(groupID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.New(apperr.RecurrenceGroupHasEvents,
			"recurrence group %s still owns %d events", groupID, count)
	}
	return store.NewRecurrenceGroupStore(tx).Delete(groupID)
}

func checkCalendarExists(tx *sql.Tx, calendarID string) error {
	cal, err := store.NewCalendarStore(tx).GetByID(calendarID)
	if err != nil {
		return err
	}
	if cal == nil {
		return apperr.New(apperr.NotFound, "calendar %s not found", calendarID)
	}
	return nil
}

func (s *Scheduler) validateCreate(req CreateEventRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	if req.MaxCapacity < 1 {
		return apperr.New(apperr.Validation, "capacity must be at least 1")
	}
	if req.Price < 0 {
		return apperr.New(apperr.Validation, "price cannot be negative")
	}
	if req.DiscountPrice < 0 {
		return apperr.New(apperr.Validation, "discount price cannot be negative")
	}

	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return apperr.New(apperr.Validation, "date must use the %s format", model.DateLayout)
	}
	start, err := time.Parse(model.TimeLayout, req.StartTime)
	if err != nil {
		return apperr.New(apperr.Validation, "start time must use the %s format", model.TimeLayout)
	}
	end, err := time.Parse(model.TimeLayout, req.EndTime)
	if err != nil {
		return apperr.New(apperr.Validation, "end time must use the %s format", model.TimeLayout)
	}
	if !start.Before(end) {
		return apperr.New(apperr.Validation, "start time must be before end time")
	}

	today := startOfDay(s.now())
	if date.Before(today) {
		return apperr.New(apperr.Validation, "event date cannot be in the past")
	}

	if req.Recurrence != nil {
		if len(req.Recurrence.Weekdays) == 0 {
			return apperr.New(apperr.Validation, "recurrence weekdays must not be empty")
		}
		for _, d := range req.Recurrence.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return apperr.New(apperr.Validation, "invalid weekday %d", int(d))
			}
		}
		until, err := time.Parse(model.DateLayout, req.Recurrence.RepeatUntil)
		if err != nil {
			return apperr.New(apperr.Validation, "repeat until must use the %s format", model.DateLayout)
		}
		if until.Before(today) {
			return apperr.New(apperr.Validation, "repeat until cannot be in the past")
		}
		if until.Before(date) {
			return apperr.New(apperr.Validation, "repeat until cannot be before the start date")
		}
	}

	return nil
}

func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	var out []time.Weekday
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
