// Package recurrence expands a weekly recurring schedule into the concrete
// dates it occurs on.
package recurrence

import "time"

// Expand returns every date d with start <= d < until whose weekday is in
// days, in ascending order. The upper bound is exclusive. An empty day set or
// a window of zero length yields nil; callers treat that as invalid input.
// Pure: same arguments, same result.
func Expand(start, until time.Time, days []time.Weekday) []time.Time {
	if len(days) == 0 {
		return nil
	}

	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}

	var dates []time.Time
	end := startOfDay(until)
	for d := startOfDay(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		if set[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
