package store

import (
	"testing"
	"time"
)

func TestRecurrenceGroupRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	groups := NewRecurrenceGroupStore(db)
	group, err := groups.Create([]time.Weekday{time.Monday, time.Wednesday, time.Thursday}, "2026-10-01")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	got, err := groups.GetByID(group.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.RepeatUntil != "2026-10-01" {
		t.Errorf("repeat_until = %q", got.RepeatUntil)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Thursday}
	if len(got.Weekdays) != len(want) {
		t.Fatalf("weekdays = %v, want %v", got.Weekdays, want)
	}
	for i := range want {
		if got.Weekdays[i] != want[i] {
			t.Errorf("weekdays[%d] = %v, want %v", i, got.Weekdays[i], want[i])
		}
	}
}

func TestRecurrenceGroupDelete(t *testing.T) {
	db := setupTestDB(t)

	groups := NewRecurrenceGroupStore(db)
	group, err := groups.Create([]time.Weekday{time.Friday}, "2026-10-01")
	if err != nil {
		t.Fatal(err)
	}

	if err := groups.Delete(group.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := groups.GetByID(group.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("group should be gone after delete")
	}
}
