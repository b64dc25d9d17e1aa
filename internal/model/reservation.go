package model

import "time"

// Reservation is a user's claim on one seat of one event. Created and deleted
// by the ledger, never updated.
type Reservation struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	EventID         string    `json:"event_id"`
	DiscountApplied bool      `json:"discount_applied"`
	CreatedAt       time.Time `json:"created_at"`
}
