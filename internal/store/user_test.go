package store

import (
	"testing"

	"courtbook/internal/model"
)

func TestUserCreateAndGet(t *testing.T) {
	db := setupTestDB(t)

	users := NewUserStore(db)
	u, err := users.Create("alice@example.com", "Alice", 300, true, model.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Balance != 300 {
		t.Errorf("balance = %d, want 300", u.Balance)
	}
	if !u.HasDailyDiscount {
		t.Error("has_daily_discount should round-trip as true")
	}
	if !u.IsAdmin() {
		t.Error("role admin should report IsAdmin")
	}

	got, err := users.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("email = %q", got.Email)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := NewUserStore(db).GetByID("nope")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserAdjustBalance(t *testing.T) {
	db := setupTestDB(t)

	users := NewUserStore(db)
	u := createTestUser(t, db, "alice@example.com", 100, false)

	if err := users.AdjustBalance(u.ID, -40); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := users.AdjustBalance(u.ID, 15); err != nil {
		t.Fatalf("credit: %v", err)
	}

	got, err := users.GetByID(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 75 {
		t.Errorf("balance = %d, want 75", got.Balance)
	}
}
