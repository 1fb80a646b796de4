package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/userauth-api/models"
	"github.com/upb/userauth-api/repositories"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const selectUser = `
	SELECT id, username, email, password_hash, created_at
	FROM users
`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// FindByEmail retrieves a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE lower(email) = lower($1)`, email)
}

// FindByUsername retrieves a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE lower(username) = lower($1)`, username)
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// not a key this store could have issued
		return nil, nil
	}
	return r.findOne(ctx, selectUser+`WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Insert persists a new user and assigns its ID
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		id,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if dup := duplicateFromPQ(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	r.logger.Debug("user created", zap.String("id", id), zap.String("username", user.Username))
	return nil
}

// UpdatePasswordHash replaces the stored password hash
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectOneRow(result)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return err
	}

	r.logger.Debug("user deleted", zap.String("id", id))
	return nil
}

// HealthCheck reports database connectivity
func (r *UserRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repositories.ErrUserNotFound
	}
	return nil
}

// duplicateFromPQ maps a unique violation to the field whose index it hit
func duplicateFromPQ(err error) *repositories.DuplicateError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}

	switch pqErr.Constraint {
	case EmailIndex:
		return &repositories.DuplicateError{Field: repositories.FieldEmail, Err: err}
	case UsernameIndex:
		return &repositories.DuplicateError{Field: repositories.FieldUsername, Err: err}
	default:
		return nil
	}
}
