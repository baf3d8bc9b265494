package models

import (
	"strings"
	"time"
)

// Role is an ordered capability level: an admin can do everything a
// tutor can, and a tutor everything a student can.
type Role int

const (
	RoleStudent Role = 0
	RoleTutor   Role = 1
	RoleAdmin   Role = 2
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTutor:
		return "tutor"
	default:
		return "student"
	}
}

// AtLeast reports whether the role grants the capabilities of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// User is an account that owns availability and capability records.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizeUsername lowercases and trims a username so lookups are
// case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
