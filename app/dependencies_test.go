package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/userauth-api/config"
	"github.com/upb/userauth-api/repositories/memory"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestNewDependencies(t *testing.T) {
	t.Run("memory store with RSA keys", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.IsType(t, &memory.UserRepository{}, deps.Users)
		assert.NotNil(t, deps.Store)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.UserService)
		assert.NotNil(t, deps.UserHandler)
		assert.NotNil(t, deps.HealthHandler)
		assert.Equal(t, bcrypt.MinCost, deps.Hasher.Cost())

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("missing key file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.JWT.PrivateKeyFile = filepath.Join(t.TempDir(), "absent.key")

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize auth")
	})

	t.Run("key does not match algorithm family", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.JWT.Algorithm = "ES256"

		_, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Driver = "sqlite"

		_, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize store")
	})
}

func TestVerifierAdapter(t *testing.T) {
	deps, err := NewDependencies(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	token, err := deps.Signer.Issue("user-42", "mike")
	require.NoError(t, err)

	adapter := &verifierAdapter{verifier: deps.Verifier}

	claims, err := adapter.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.ID)
	assert.Equal(t, "mike", claims.Username)
	assert.Equal(t, "user-42", claims.Sub)
	assert.Equal(t, "dummy_issuer", claims.Iss)
	assert.Equal(t, 24*time.Hour, time.Duration(claims.Exp-claims.Iat)*time.Second)

	_, err = adapter.ValidateToken(context.Background(), token+"x")
	assert.Error(t, err)
}

func TestDependenciesClose(t *testing.T) {
	ctx := context.Background()
	deps, err := NewDependencies(ctx, testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	closed := 0
	deps.closers = append(deps.closers, func() error { closed++; return nil })

	assert.NoError(t, deps.Close(ctx))
	// second close is a no-op
	assert.NoError(t, deps.Close(ctx))
	assert.Equal(t, 1, closed)
}

// testConfig returns a memory-backed configuration with a fresh RSA key pair on disk
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	privFile := filepath.Join(dir, "jwt.private.key")
	pubFile := filepath.Join(dir, "jwt.pub.key")
	require.NoError(t, os.WriteFile(privFile,
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))
	require.NoError(t, os.WriteFile(pubFile,
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644))

	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		JWT: config.JWTConfig{
			PrivateKeyFile: privFile,
			PublicKeyFile:  pubFile,
			Algorithm:      "RS512",
			Issuer:         "dummy_issuer",
			ExpiresIn:      24 * time.Hour,
		},
		Password: config.PasswordConfig{
			SaltRounds: bcrypt.MinCost,
			MinLength:  6,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}
