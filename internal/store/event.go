package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"courtbook/internal/model"
)

type EventStore struct {
	db DBTX
}

func NewEventStore(db DBTX) *EventStore {
	return &EventStore{db: db}
}

// spaces_available is derived at the read boundary rather than cached: the
// subquery counts live reservations under the same snapshot as the row read.
const eventCols = `e.id, e.calendar_id, e.date, e.day_of_week, e.start_time, e.end_time,
	e.max_capacity, e.price, e.discount_price, e.title, e.description, e.recurrence_group_id,
	e.max_capacity - (SELECT COUNT(*) FROM reservations r WHERE r.event_id = e.id),
	e.created_at, e.updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var groupID sql.NullString
	err := scanner.Scan(
		&e.ID, &e.CalendarID, &e.Date, &e.Weekday, &e.StartTime, &e.EndTime,
		&e.MaxCapacity, &e.Price, &e.DiscountPrice, &e.Title, &e.Description, &groupID,
		&e.SpacesAvailable,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if groupID.Valid {
		e.RecurrenceGroupID = &groupID.String
	}
	return &e, nil
}

// EventFilter narrows List and Count. Zero-valued fields are ignored.
type EventFilter struct {
	From       string // inclusive lower bound on date
	CalendarID string
}

func (s *EventStore) Create(e model.Event) (*model.Event, error) {
	day, err := time.Parse(model.DateLayout, e.Date)
	if err != nil {
		return nil, fmt.Errorf("parse event date %q: %w", e.Date, err)
	}

	var groupID sql.NullString
	if e.RecurrenceGroupID != nil {
		groupID = sql.NullString{String: *e.RecurrenceGroupID, Valid: true}
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO events (id, calendar_id, date, day_of_week, start_time, end_time,
		 max_capacity, price, discount_price, title, description, recurrence_group_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.CalendarID, e.Date, int(day.Weekday()), e.StartTime, e.EndTime,
		e.MaxCapacity, e.Price, e.DiscountPrice, e.Title, e.Description, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id string) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events e WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *EventStore) GetByIDAndCalendar(id, calendarID string) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events e WHERE e.id = ? AND e.calendar_id = ?`, id, calendarID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by calendar: %w", err)
	}
	return e, nil
}

// OverlapsSingle reports whether any event on the calendar and date intersects
// the half-open window [start, end). Touching windows do not overlap.
// excludeEventID, when non-empty, ignores the event being modified.
func (s *EventStore) OverlapsSingle(calendarID, excludeEventID, date, start, end string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS (
		   SELECT 1 FROM events e
		   WHERE e.calendar_id = ? AND e.date = ?
		     AND ? < e.end_time AND ? > e.start_time
		     AND (? = '' OR e.id <> ?)
		 )`,
		calendarID, date, start, end, excludeEventID, excludeEventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check single overlap: %w", err)
	}
	return exists != 0, nil
}

// OverlapsRecurring reports whether any event on the calendar with a date in
// [dateFrom, dateTo] and a weekday in weekdays intersects [start, end).
func (s *EventStore) OverlapsRecurring(calendarID, dateFrom, dateTo, start, end string, weekdays []time.Weekday) (bool, error) {
	if len(weekdays) == 0 {
		return false, nil
	}

	placeholders := strings.Repeat("?,", len(weekdays))
	placeholders = placeholders[:len(placeholders)-1]

	args := []any{calendarID, dateFrom, dateTo}
	for _, d := range weekdays {
		args = append(args, int(d))
	}
	args = append(args, start, end)

	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS (
		   SELECT 1 FROM events e
		   WHERE e.calendar_id = ? AND e.date >= ? AND e.date <= ?
		     AND e.day_of_week IN (`+placeholders+`)
		     AND ? < e.end_time AND ? > e.start_time
		 )`,
		args...,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recurring overlap: %w", err)
	}
	return exists != 0, nil
}

func (s *EventStore) ListByCalendarAndDateRange(calendarID, from, to string) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events e
		 WHERE e.calendar_id = ? AND e.date >= ? AND e.date <= ?
		 ORDER BY e.date ASC, e.start_time ASC`,
		calendarID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query events by range: %w", err)
	}
	return collectEvents(rows)
}

func (s *EventStore) ListByRecurrenceGroup(groupID string) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events e
		 WHERE e.recurrence_group_id = ?
		 ORDER BY e.date ASC, e.start_time ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events by group: %w", err)
	}
	return collectEvents(rows)
}

func (s *EventStore) CountByRecurrenceGroup(groupID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE recurrence_group_id = ?`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events by group: %w", err)
	}
	return count, nil
}

// List returns a page of events ordered by date then start time. limit < 0
// means no limit.
func (s *EventStore) List(f EventFilter, limit, offset int) ([]model.Event, error) {
	where, args := eventFilterClause(f)
	args = append(args, limit, offset)

	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events e`+where+
			` ORDER BY e.date ASC, e.start_time ASC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

func (s *EventStore) Count(f EventFilter) (int, error) {
	where, args := eventFilterClause(f)

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events e`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func eventFilterClause(f EventFilter) (string, []any) {
	var conds []string
	var args []any
	if f.From != "" {
		conds = append(conds, "e.date >= ?")
		args = append(args, f.From)
	}
	if f.CalendarID != "" {
		conds = append(conds, "e.calendar_id = ?")
		args = append(args, f.CalendarID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *EventStore) UpdateText(id, title, description string) error {
	_, err := s.db.Exec(
		`UPDATE events SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, id,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// UpdateSeriesText updates title and description for every event in the
// recurrence group in one statement.
func (s *EventStore) UpdateSeriesText(groupID, title, description string) error {
	_, err := s.db.Exec(
		`UPDATE events SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE recurrence_group_id = ?`,
		title, description, groupID,
	)
	if err != nil {
		return fmt.Errorf("update event series: %w", err)
	}
	return nil
}

func (s *EventStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// HasFutureEvents reports whether the calendar holds any event starting at or
// after the given date and time of day.
func (s *EventStore) HasFutureEvents(calendarID, date, startTime string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS (
		   SELECT 1 FROM events e
		   WHERE e.calendar_id = ?
		     AND (e.date > ? OR (e.date = ? AND e.start_time >= ?))
		 )`,
		calendarID, date, date, startTime,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check future events: %w", err)
	}
	return exists != 0, nil
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
