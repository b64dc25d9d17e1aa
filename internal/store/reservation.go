package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"courtbook/internal/model"
)

type ReservationStore struct {
	db DBTX
}

func NewReservationStore(db DBTX) *ReservationStore {
	return &ReservationStore{db: db}
}

const reservationCols = `r.id, r.owner_id, r.event_id, r.discount_applied, r.created_at`

func scanReservation(scanner interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var discountInt int
	err := scanner.Scan(&res.ID, &res.OwnerID, &res.EventID, &discountInt, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	res.DiscountApplied = discountInt != 0
	return &res, nil
}

// ReservationFilter narrows List and Count. Zero-valued fields are ignored.
type ReservationFilter struct {
	From       string // inclusive lower bound on the event date
	CalendarID string
	OwnerID    string
	EventID    string
}

func (s *ReservationStore) Create(ownerID, eventID string, discountApplied bool) (*model.Reservation, error) {
	var discountInt int
	if discountApplied {
		discountInt = 1
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO reservations (id, owner_id, event_id, discount_applied) VALUES (?, ?, ?, ?)`,
		id, ownerID, eventID, discountInt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReservationStore) GetByID(id string) (*model.Reservation, error) {
	row := s.db.QueryRow(`SELECT `+reservationCols+` FROM reservations r WHERE r.id = ?`, id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (s *ReservationStore) ExistsForEventAndOwner(eventID, ownerID string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE event_id = ? AND owner_id = ?)`,
		eventID, ownerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation exists: %w", err)
	}
	return exists != 0, nil
}

// ExistsForOwnerOnDate reports whether the user already holds a reservation
// for any event on the given date. Drives the once-per-day discount rule.
func (s *ReservationStore) ExistsForOwnerOnDate(ownerID, date string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS (
		   SELECT 1 FROM reservations r
		   JOIN events e ON e.id = r.event_id
		   WHERE r.owner_id = ? AND e.date = ?
		 )`,
		ownerID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation on date: %w", err)
	}
	return exists != 0, nil
}

func (s *ReservationStore) CountByEvent(eventID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reservations WHERE event_id = ?`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (s *ReservationStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

// List returns a page of reservations ordered by event date then event start
// time. limit < 0 means no limit.
func (s *ReservationStore) List(f ReservationFilter, limit, offset int) ([]model.Reservation, error) {
	where, args := reservationFilterClause(f)
	args = append(args, limit, offset)

	rows, err := s.db.Query(
		`SELECT `+reservationCols+` FROM reservations r
		 JOIN events e ON e.id = r.event_id`+where+
			` ORDER BY e.date ASC, e.start_time ASC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func (s *ReservationStore) Count(f ReservationFilter) (int, error) {
	where, args := reservationFilterClause(f)

	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reservations r JOIN events e ON e.id = r.event_id`+where,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func reservationFilterClause(f ReservationFilter) (string, []any) {
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
	if f.OwnerID != "" {
		conds = append(conds, "r.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.EventID != "" {
		conds = append(conds, "r.event_id = ?")
		args = append(args, f.EventID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
