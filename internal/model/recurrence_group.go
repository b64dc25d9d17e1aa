package model

import "time"

// RecurrenceGroup describes a batch of events generated together: the weekdays
// the series repeats on and the exclusive end date of the window.
type RecurrenceGroup struct {
	ID          string         `json:"id"`
	Weekdays    []time.Weekday `json:"weekdays"`
	RepeatUntil string         `json:"repeat_until"`
	CreatedAt   time.Time      `json:"created_at"`
}
