package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"courtbook/internal/database"
	"courtbook/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestCalendar(t *testing.T, db DBTX, name string) *model.Calendar {
	t.Helper()
	cal, err := NewCalendarStore(db).Create(name, "loc-1", nil)
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}
	return cal
}

func createTestUser(t *testing.T, db DBTX, email string, balance int, hasDailyDiscount bool) *model.AppUser {
	t.Helper()
	u, err := NewUserStore(db).Create(email, "Test User", balance, hasDailyDiscount, model.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestEvent(t *testing.T, db DBTX, calendarID, date, start, end string) *model.Event {
	t.Helper()
	ev, err := NewEventStore(db).Create(model.Event{
		CalendarID:  calendarID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: 10,
		Price:       100,
		Title:       "Practice",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}
