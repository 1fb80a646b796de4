package services

import (
	"context"
	"errors"

	"github.com/upb/userauth-api/models"
	"github.com/upb/userauth-api/repositories"
	"github.com/upb/userauth-api/utils"
	"go.uber.org/zap"
)

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs bearer tokens for a user
type TokenIssuer interface {
	Issue(id, username string) (string, error)
}

// RequestValidator checks a request struct against its validate tags
type RequestValidator interface {
	Struct(s interface{}) error
}

// RegisterRequest is the body of a registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// Normalize trims the fields and lower-cases the email
func (r *RegisterRequest) Normalize() {
	r.Username = utils.TrimString(r.Username)
	r.Email = utils.NormalizeEmail(r.Email)
	r.Password = utils.TrimString(r.Password)
}

// LoginRequest is the body of a login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// Normalize trims the fields and lower-cases the email
func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Password = utils.TrimString(r.Password)
}

// UpdatePasswordRequest is the body of a password change
type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,password"`
	Password    string `json:"password" validate:"required,password"`
}

// Normalize trims both passwords
func (r *UpdatePasswordRequest) Normalize() {
	r.NewPassword = utils.TrimString(r.NewPassword)
	r.Password = utils.TrimString(r.Password)
}

// DeleteRequest is the body of an account deletion
type DeleteRequest struct {
	Password string `json:"password" validate:"required,password"`
}

// Normalize trims the password
func (r *DeleteRequest) Normalize() {
	r.Password = utils.TrimString(r.Password)
}

// UserService implements registration, login, password change and deletion
type UserService struct {
	users     repositories.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	validator RequestValidator
	logger    *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users repositories.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	validator RequestValidator,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
	}
}

// Register creates an account and returns a token for it.
// Email availability is checked before username; the first conflict wins.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (string, error) {
	req.Normalize()
	if err := s.validate(&req); err != nil {
		return "", err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", WrapInternal("failed to look up email", err)
	}
	if existing != nil {
		return "", NewConflict(repositories.FieldEmail, nil)
	}

	existing, err = s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return "", WrapInternal("failed to look up username", err)
	}
	if existing != nil {
		return "", NewConflict(repositories.FieldUsername, nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return "", WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(req.Username, req.Email, hash)
	if err := s.users.Insert(ctx, user); err != nil {
		// a concurrent registration won the race past the pre-checks
		if field, ok := repositories.DuplicateField(err); ok {
			return "", NewConflict(field, err)
		}
		return "", WrapInternal("failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.issue(user)
}

// Login verifies credentials and returns a token.
// Unknown email and wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (string, error) {
	req.Normalize()
	if err := s.validate(&req); err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", WrapInternal("failed to look up user", err)
	}
	if user == nil || !s.hasher.Verify(req.Password, user.PasswordHash) {
		return "", ErrBadCredentials
	}

	return s.issue(user)
}

// UpdatePassword replaces the password of the authenticated user
func (s *UserService) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) error {
	req.Normalize()
	if err := s.validate(&req); err != nil {
		return err
	}

	user, err := s.authenticated(ctx, userID, req.Password)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return WrapInternal("failed to hash password", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUnauthorized
		}
		return WrapInternal("failed to update password", err)
	}

	s.logger.Info("password updated", zap.String("user_id", user.ID))
	return nil
}

// Delete removes the authenticated user after re-checking the password
func (s *UserService) Delete(ctx context.Context, userID string, req DeleteRequest) error {
	req.Normalize()
	if err := s.validate(&req); err != nil {
		return err
	}

	user, err := s.authenticated(ctx, userID, req.Password)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUnauthorized
		}
		return WrapInternal("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", user.ID))
	return nil
}

// authenticated loads the token's user and checks password against it.
// A token whose user no longer exists is unauthorized.
func (s *UserService) authenticated(ctx context.Context, userID, password string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, WrapInternal("failed to look up user", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

func (s *UserService) validate(req interface{}) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}

	var vErr *utils.ValidationError
	if errors.As(err, &vErr) {
		return NewValidationFailure(vErr)
	}
	return WrapInternal("failed to validate request", err)
}

func (s *UserService) issue(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", WrapInternal("failed to issue token", err)
	}
	return token, nil
}
