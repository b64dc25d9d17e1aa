package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"courtbook/internal/model"
)

type RecurrenceGroupStore struct {
	db DBTX
}

func NewRecurrenceGroupStore(db DBTX) *RecurrenceGroupStore {
	return &RecurrenceGroupStore{db: db}
}

const groupCols = `id, days_of_week, repeat_until, created_at`

func scanGroup(scanner interface{ Scan(...any) error }) (*model.RecurrenceGroup, error) {
	var g model.RecurrenceGroup
	var days string
	err := scanner.Scan(&g.ID, &days, &g.RepeatUntil, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.Weekdays, err = decodeWeekdays(days)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *RecurrenceGroupStore) Create(weekdays []time.Weekday, repeatUntil string) (*model.RecurrenceGroup, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO recurrence_groups (id, days_of_week, repeat_until) VALUES (?, ?, ?)`,
		id, encodeWeekdays(weekdays), repeatUntil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recurrence group: %w", err)
	}
	return s.GetByID(id)
}

func (s *RecurrenceGroupStore) GetByID(id string) (*model.RecurrenceGroup, error) {
	row := s.db.QueryRow(`SELECT `+groupCols+` FROM recurrence_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurrence group: %w", err)
	}
	return g, nil
}

func (s *RecurrenceGroupStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM recurrence_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurrence group: %w", err)
	}
	return nil
}

// Weekdays are stored as a comma-separated list of time.Weekday values,
// e.g. "1,3,4" for Monday, Wednesday, Thursday.
func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("decode weekdays %q: %w", s, err)
		}
		days[i] = time.Weekday(n)
	}
	return days, nil
}
