package app

import (
	"context"
	"fmt"

	"github.com/upb/userauth-api/auth"
	"github.com/upb/userauth-api/config"
	"github.com/upb/userauth-api/handlers"
	"github.com/upb/userauth-api/middleware"
	"github.com/upb/userauth-api/repositories"
	"github.com/upb/userauth-api/repositories/memory"
	"github.com/upb/userauth-api/repositories/mongodb"
	"github.com/upb/userauth-api/repositories/postgres"
	"github.com/upb/userauth-api/services"
	"github.com/upb/userauth-api/utils"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Store
	Users repositories.UserRepository
	Store repositories.HealthChecker

	// Auth
	Hasher         *auth.BcryptHasher
	Signer         *auth.Signer
	Verifier       *auth.Verifier
	AuthMiddleware *middleware.AuthMiddleware

	// Services and handlers
	UserService   *services.UserService
	UserHandler   *handlers.UserHandler
	HealthHandler *handlers.HealthHandler

	closers []func() error
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	validator := utils.NewValidator(cfg.Password.MinLength)
	deps.UserService = services.NewUserService(deps.Users, deps.Hasher, deps.Signer, validator, logger)
	deps.UserHandler = handlers.NewUserHandler(deps.UserService, logger)
	deps.HealthHandler = handlers.NewHealthHandler(deps.Store, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initStore connects the credential store selected by the configured driver
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		db, err := mongodb.Connect(ctx, cfg.Database, d.Logger)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, db.Close)

		repo := mongodb.NewUserRepositoryFromDB(db, d.Logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		d.Users, d.Store = repo, db

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database, d.Logger)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, db.Close)

		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		d.Users, d.Store = postgres.NewUserRepository(db, d.Logger), db

	case config.DriverMemory:
		repo := memory.NewUserRepository()
		d.Users, d.Store = repo, repo
		d.Logger.Warn("using in-memory store, accounts are lost on restart")

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	d.Logger.Info("credential store ready",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initAuth loads the signing key pair and builds the hasher, signer and verifier
func (d *Dependencies) initAuth(cfg *config.Config) error {
	method, signKey, verifyKey, err := auth.LoadKeyPair(cfg.JWT.Algorithm, cfg.JWT.PrivateKeyFile, cfg.JWT.PublicKeyFile)
	if err != nil {
		return err
	}

	d.Hasher = auth.NewBcryptHasher(cfg.Password.SaltRounds)
	d.Signer = auth.NewSigner(method, signKey, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
	d.Verifier = auth.NewVerifier(method, verifyKey, cfg.JWT.Issuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(&verifierAdapter{verifier: d.Verifier}, d.Logger)

	d.Logger.Info("token signing configured",
		zap.String("algorithm", method.Alg()),
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("expires_in", cfg.JWT.ExpiresIn))
	return nil
}

// verifierAdapter adapts auth.Verifier to middleware.TokenValidator
type verifierAdapter struct {
	verifier *auth.Verifier
}

func (a *verifierAdapter) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	parsed, err := a.verifier.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	claims := &middleware.Claims{
		ID:       parsed.UserID,
		Username: parsed.Username,
		Sub:      parsed.Subject,
		Iss:      parsed.Issuer,
	}
	if parsed.ExpiresAt != nil {
		claims.Exp = parsed.ExpiresAt.Unix()
	}
	if parsed.IssuedAt != nil {
		claims.Iat = parsed.IssuedAt.Unix()
	}
	return claims, nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil

	// Sync logger
	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
