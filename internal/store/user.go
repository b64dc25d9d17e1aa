package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"courtbook/internal/model"
)

// UserStore reads booking identities and moves their balance. Registration
// and credentials are owned by the account service.
type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, balance, has_daily_discount, role, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.AppUser, error) {
	var u model.AppUser
	var discountInt int
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.Balance, &discountInt, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.HasDailyDiscount = discountInt != 0
	return &u, nil
}

func (s *UserStore) Create(email, name string, balance int, hasDailyDiscount bool, role string) (*model.AppUser, error) {
	var discountInt int
	if hasDailyDiscount {
		discountInt = 1
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, balance, has_daily_discount, role) VALUES (?, ?, ?, ?, ?, ?)`,
		id, email, name, balance, discountInt, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.AppUser, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AdjustBalance applies a signed delta to the user's balance. Callers run it
// inside the same transaction as the check that justified the change.
func (s *UserStore) AdjustBalance(id string, delta int) error {
	_, err := s.db.Exec(
		`UPDATE users SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return nil
}
