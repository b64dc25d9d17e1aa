package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AppUser is the booking identity. Account management and authentication live
// upstream; this service only reads the row and moves the balance.
type AppUser struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Balance          int       `json:"balance"`
	HasDailyDiscount bool      `json:"has_daily_discount"`
	Role             string    `json:"role"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *AppUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}
