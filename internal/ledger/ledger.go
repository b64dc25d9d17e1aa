// Package ledger books and cancels seats. Every booking runs its checks and
// its writes inside one immediate transaction, so concurrent requests
// serialize on the event's capacity and the user's balance.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"courtbook/internal/apperr"
	"courtbook/internal/model"
	"courtbook/internal/store"
)

// Notifier delivers best-effort booking emails. Failures are logged, never
// propagated: a lost email must not invalidate a committed reservation.
type Notifier interface {
	SendNewReservationEmail(user model.AppUser, event model.Event) error
	SendReservationCancelledEmail(user model.AppUser, event model.Event) error
}

type Ledger struct {
	db       *sql.DB
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Ledger. notifier may be nil when email is not configured.
func New(db *sql.DB, notifier Notifier, logger *slog.Logger) *Ledger {
	return &Ledger{
		db:       db,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Filter narrows List. Zero-valued fields are ignored; OwnerID is subject to
// the ownership rule.
type Filter struct {
	From       string
	CalendarID string
	OwnerID    string
	EventID    string
}

// Page is one slice of a reservation listing, ordered by event date then
// event start time.
type Page struct {
	Items      []model.Reservation `json:"items"`
	Page       int                 `json:"page"`
	Size       int                 `json:"size"`
	TotalItems int                 `json:"total_items"`
	TotalPages int                 `json:"total_pages"`
}

// Create books one seat on the event for the user. Checks run in order:
// event exists on the calendar, no duplicate, capacity left, not started,
// price (discount on the user's first reservation of that day), sufficient
// funds. The debit and the insert commit together or not at all.
func (l *Ledger) Create(ctx context.Context, user *model.AppUser, calendarID, eventID string) (*model.Reservation, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create reservation: %w", err)
	}
	defer tx.Rollback()

	events := store.NewEventStore(tx)
	reservations := store.NewReservationStore(tx)
	users := store.NewUserStore(tx)

	ev, err := events.GetByIDAndCalendar(eventID, calendarID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperr.New(apperr.NotFound, "event %s not found on calendar %s", eventID, calendarID)
	}

	duplicate, err := reservations.ExistsForEventAndOwner(eventID, user.ID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, apperr.New(apperr.DuplicateReservation,
			"user %s already holds a reservation for event %s", user.ID, eventID)
	}

	count, err := reservations.CountByEvent(eventID)
	if err != nil {
		return nil, err
	}
	if count >= ev.MaxCapacity {
		return nil, apperr.New(apperr.EventFull, "event %s is full", eventID)
	}

	if ev.StartInstant().Before(l.now()) {
		return nil, apperr.New(apperr.PastEvent, "event %s has already started", eventID)
	}

	// The balance read has to happen inside the transaction; the row passed
	// in only identifies the caller.
	owner, err := users.GetByID(user.ID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperr.New(apperr.NotFound, "user %s not found", user.ID)
	}

	price := ev.Price
	discountApplied := false
	if owner.HasDailyDiscount {
		sameDay, err := reservations.ExistsForOwnerOnDate(owner.ID, ev.Date)
		if err != nil {
			return nil, err
		}
		if !sameDay {
			price = ev.DiscountPrice
			discountApplied = true
		}
	}

	if owner.Balance < price {
		return nil, apperr.New(apperr.InsufficientFunds,
			"balance %d is below the price %d", owner.Balance, price)
	}

	if err := users.AdjustBalance(owner.ID, -price); err != nil {
		return nil, err
	}
	res, err := reservations.Create(owner.ID, eventID, discountApplied)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create reservation: %w", err)
	}

	l.logger.Info("reservation created",
		"reservation_id", res.ID, "event_id", eventID, "owner_id", owner.ID,
		"price", price, "discount_applied", discountApplied)
	l.notify(func(n Notifier) error { return n.SendNewReservationEmail(*owner, *ev) },
		"new reservation", res.ID)
	return res, nil
}

// Cancel removes the reservation and refunds exactly what was charged.
// Only the owner or an admin may cancel, and only before the event starts.
func (l *Ledger) Cancel(ctx context.Context, user *model.AppUser, reservationID string) (*model.Reservation, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel reservation: %w", err)
	}
	defer tx.Rollback()

	events := store.NewEventStore(tx)
	reservations := store.NewReservationStore(tx)
	users := store.NewUserStore(tx)

	res, err := reservations.GetByID(reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperr.New(apperr.NotFound, "reservation %s not found", reservationID)
	}

	if res.OwnerID != user.ID && !user.IsAdmin() {
		return nil, apperr.New(apperr.Ownership,
			"user %s does not own reservation %s", user.ID, reservationID)
	}

	ev, err := events.GetByID(res.EventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperr.New(apperr.NotFound, "event %s not found", res.EventID)
	}
	if ev.StartInstant().Before(l.now()) {
		return nil, apperr.New(apperr.PastEvent, "event %s has already started", ev.ID)
	}

	refund := ev.Price
	if res.DiscountApplied {
		refund = ev.DiscountPrice
	}

	if err := reservations.Delete(res.ID); err != nil {
		return nil, err
	}
	if err := users.AdjustBalance(res.OwnerID, refund); err != nil {
		return nil, err
	}

	owner, err := users.GetByID(res.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel reservation: %w", err)
	}

	l.logger.Info("reservation cancelled",
		"reservation_id", res.ID, "event_id", ev.ID, "owner_id", res.OwnerID, "refund", refund)
	if owner != nil {
		l.notify(func(n Notifier) error { return n.SendReservationCancelledEmail(*owner, *ev) },
			"reservation cancelled", res.ID)
	}
	return res, nil
}

// List returns a page of reservations. A non-admin caller only ever sees
// their own: an omitted owner filter defaults to the caller, a foreign one
// is rejected.
func (l *Ledger) List(ctx context.Context, user *model.AppUser, f Filter, page, size int) (*Page, error) {
	if f.OwnerID == "" {
		if !user.IsAdmin() {
			f.OwnerID = user.ID
		}
	} else if f.OwnerID != user.ID && !user.IsAdmin() {
		return nil, apperr.New(apperr.Ownership,
			"user %s may not list reservations of user %s", user.ID, f.OwnerID)
	}

	if page < 0 {
		page = 0
	}
	limit, offset := size, page*size
	if size < 1 {
		limit, offset = -1, 0
	}

	reservations := store.NewReservationStore(l.db)
	sf := store.ReservationFilter{
		From:       f.From,
		CalendarID: f.CalendarID,
		OwnerID:    f.OwnerID,
		EventID:    f.EventID,
	}

	items, err := reservations.List(sf, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := reservations.Count(sf)
	if err != nil {
		return nil, err
	}

	totalPages := 1
	if size >= 1 {
		totalPages = (total + size - 1) / size
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return &Page{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (l *Ledger) notify(send func(Notifier) error, what, reservationID string) {
	if l.notifier == nil {
		return
	}
	n := l.notifier
	go func() {
		if err := send(n); err != nil {
			l.logger.Error("send "+what+" email", "reservation_id", reservationID, "error", err)
		}
	}()
}
