package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/userauth-api/models"
)

// Unique user fields
const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// ErrUserNotFound is returned by mutations that target an id the store no longer holds
var ErrUserNotFound = errors.New("user not found")

// DuplicateError reports a unique constraint violation on a user field
type DuplicateError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("duplicate %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Unwrap implements errors.Unwrap
func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// DuplicateField returns the conflicting field when err is a DuplicateError
func DuplicateField(err error) (string, bool) {
	var dupErr *DuplicateError
	if errors.As(err, &dupErr) {
		return dupErr.Field, true
	}
	return "", false
}

// UserRepository handles credential storage.
// Lookups return (nil, nil) when no user matches; errors are reserved for store failures.
// Username and email matching is case-insensitive.
type UserRepository interface {
	// FindByEmail retrieves a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByUsername retrieves a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByID retrieves a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// Insert persists a new user and assigns its ID.
	// Returns a *DuplicateError when the username or email is already taken.
	Insert(ctx context.Context, user *models.User) error

	// UpdatePasswordHash replaces the stored password hash.
	// Returns ErrUserNotFound when no user has the given ID.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// Delete removes a user.
	// Returns ErrUserNotFound when no user has the given ID.
	Delete(ctx context.Context, id string) error
}

// HealthChecker is implemented by stores that can report connectivity
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
