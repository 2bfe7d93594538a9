package models

import (
	"time"
)

// User represents a PixelDesk player with a points balance
type User struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	Locale    string     `db:"locale"`
	Points    int64      `db:"points"`
	IsAdmin   bool       `db:"is_admin"`
	LastLogin *time.Time `db:"last_login"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// LastActiveAt returns the last login time, falling back to account creation
func (u *User) LastActiveAt() time.Time {
	if u.LastLogin != nil {
		return *u.LastLogin
	}
	return u.CreatedAt
}

// CanAfford checks if the user's balance covers the given amount
func (u *User) CanAfford(amount int64) bool {
	return u.Points >= amount
}
