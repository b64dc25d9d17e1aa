package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"courtbook/internal/model"
)

// CalendarStore covers the lookups the scheduler needs. Full catalog CRUD is
// owned by the venue administration service.
type CalendarStore struct {
	db DBTX
}

func NewCalendarStore(db DBTX) *CalendarStore {
	return &CalendarStore{db: db}
}

const calendarCols = `id, name, location_id, thumbnail, created_at, updated_at`

func scanCalendar(scanner interface{ Scan(...any) error }) (*model.Calendar, error) {
	var c model.Calendar
	err := scanner.Scan(&c.ID, &c.Name, &c.LocationID, &c.Thumbnail, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CalendarStore) Create(name, locationID string, thumbnail []byte) (*model.Calendar, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO calendars (id, name, location_id, thumbnail) VALUES (?, ?, ?, ?)`,
		id, name, locationID, thumbnail,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar: %w", err)
	}
	return s.GetByID(id)
}

func (s *CalendarStore) GetByID(id string) (*model.Calendar, error) {
	row := s.db.QueryRow(`SELECT `+calendarCols+` FROM calendars WHERE id = ?`, id)
	c, err := scanCalendar(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	return c, nil
}

func (s *CalendarStore) List() ([]model.Calendar, error) {
	rows, err := s.db.Query(`SELECT ` + calendarCols + ` FROM calendars ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query calendars: %w", err)
	}
	defer rows.Close()

	var calendars []model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar: %w", err)
		}
		calendars = append(calendars, *c)
	}
	return calendars, rows.Err()
}
