package model

import "time"

// Wire and storage layouts for the date and time-of-day fields. Both are
// zero-padded, so lexicographic comparison matches chronological order in SQL
// and in Go.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Event is a single bookable time slot on a calendar: one date, a fixed time
// window, and a seat capacity.
type Event struct {
	ID                string    `json:"id"`
	CalendarID        string    `json:"calendar_id"`
	Date              string    `json:"date"`
	Weekday           int       `json:"weekday"` // time.Weekday numbering, 0 = Sunday
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	MaxCapacity       int       `json:"maximum_capacity"`
	Price             int       `json:"price"`
	DiscountPrice     int       `json:"discount_price"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	RecurrenceGroupID *string   `json:"recurrence_group_id,omitempty"`
	SpacesAvailable   int       `json:"spaces_available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StartInstant combines the event's date and start time into a UTC instant.
func (e *Event) StartInstant() time.Time {
	t, err := time.Parse(DateLayout+" "+TimeLayout, e.Date+" "+e.StartTime)
	if err != nil {
		return time.Time{}
	}
	return t
}
