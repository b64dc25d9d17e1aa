// Package apperr defines the typed failures the scheduling and booking core
// surfaces to callers. Each kind doubles as the stable error code exposed at
// the API boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Validation               Kind = "validation_error"
	NotFound                 Kind = "not_found"
	Overlap                  Kind = "overlapping_events"
	EventHasReservations     Kind = "event_has_reservations"
	PastEvent                Kind = "past_event"
	RecurrenceGroupHasEvents Kind = "recurrence_group_has_events"
	DuplicateReservation     Kind = "duplicate_reservation"
	EventFull                Kind = "event_full"
	InsufficientFunds        Kind = "insufficient_funds"
	Ownership                Kind = "not_owner"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
