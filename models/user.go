package models

import (
	"strings"
	"time"
)

// User represents a registered account. ID is assigned by the credential store.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance with an already hashed password
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// UsernameKey returns the case-folded username used for uniqueness checks
func (u *User) UsernameKey() string {
	return FoldKey(u.Username)
}

// EmailKey returns the case-folded email used for uniqueness checks
func (u *User) EmailKey() string {
	return FoldKey(u.Email)
}

// FoldKey normalizes a unique field for case-insensitive comparison
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
