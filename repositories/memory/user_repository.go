// Package memory provides a process-local credential store for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/userauth-api/models"
	"github.com/upb/userauth-api/repositories"
)

// UserRepository keeps users in maps keyed by id and by the folded unique fields
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewUserRepository creates an empty store
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*models.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// FindByEmail retrieves a user by email
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byEmail[models.FoldKey(email)]), nil
}

// FindByUsername retrieves a user by username
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byUsername[models.FoldKey(username)]), nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id), nil
}

// lookup returns a copy so callers cannot mutate stored state
func (r *UserRepository) lookup(id string) *models.User {
	user, ok := r.byID[id]
	if !ok {
		return nil
	}
	clone := *user
	return &clone
}

// Insert persists a new user and assigns its ID
func (r *UserRepository) Insert(_ context.Context, user *models.User) error {
	emailKey := user.EmailKey()
	usernameKey := user.UsernameKey()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[emailKey]; taken {
		return &repositories.DuplicateError{Field: repositories.FieldEmail}
	}
	if _, taken := r.byUsername[usernameKey]; taken {
		return &repositories.DuplicateError{Field: repositories.FieldUsername}
	}

	stored := *user
	stored.ID = uuid.NewString()
	r.byID[stored.ID] = &stored
	r.byEmail[emailKey] = stored.ID
	r.byUsername[usernameKey] = stored.ID

	user.ID = stored.ID
	return nil
}

// UpdatePasswordHash replaces the stored password hash
func (r *UserRepository) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.byEmail, user.EmailKey())
	delete(r.byUsername, user.UsernameKey())
	delete(r.byID, id)
	return nil
}

// HealthCheck always succeeds
func (r *UserRepository) HealthCheck(context.Context) error {
	return nil
}

// Len returns the number of stored users
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
