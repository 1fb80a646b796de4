package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Test helper to generate a PEM encoded RSA key pair
func generateRSAPEM(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	privPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privPEM, pubPEM
}

func generateECPEM(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}

func generateEdPEM(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}

func newTestPair(t *testing.T, alg string) (*Signer, *Verifier) {
	t.Helper()
	method, err := ResolveMethod(alg)
	require.NoError(t, err)

	var privPEM, pubPEM []byte
	switch method.(type) {
	case *jwt.SigningMethodECDSA:
		privPEM, pubPEM = generateECPEM(t)
	case *jwt.SigningMethodEd25519:
		privPEM, pubPEM = generateEdPEM(t)
	default:
		privPEM, pubPEM = generateRSAPEM(t)
	}

	signKey, err := LoadSigningKey(method, privPEM)
	require.NoError(t, err)
	verifyKey, err := LoadVerifyKey(method, pubPEM)
	require.NoError(t, err)

	return NewSigner(method, signKey, "dummy_issuer", time.Hour), NewVerifier(method, verifyKey, "dummy_issuer")
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"matching password", "secret1", hash, true},
		{"wrong password", "secret2", hash, false},
		{"malformed hash", "secret1", "not-a-hash", false},
		{"empty hash", "secret1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasher.Verify(tt.password, tt.hash))
		})
	}
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("secret1")
	require.NoError(t, err)
	second, err := hasher.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, DefaultCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 10, NewBcryptHasher(10).Cost())
}

func TestResolveMethod(t *testing.T) {
	tests := []struct {
		alg     string
		wantErr bool
	}{
		{"RS512", false},
		{"RS256", false},
		{"PS384", false},
		{"ES256", false},
		{"EdDSA", false},
		{"HS256", true},
		{"none", true},
		{"XX1", true},
	}

	for _, tt := range tests {
		t.Run(tt.alg, func(t *testing.T) {
			method, err := ResolveMethod(tt.alg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.alg, method.Alg())
		})
	}
}

func TestLoadKeys_FamilyMismatch(t *testing.T) {
	ecPriv, ecPub := generateECPEM(t)

	_, err := LoadSigningKey(jwt.SigningMethodRS512, ecPriv)
	assert.Error(t, err)

	_, err = LoadVerifyKey(jwt.SigningMethodRS512, ecPub)
	assert.Error(t, err)

	_, err = LoadSigningKey(jwt.SigningMethodHS256, ecPriv)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestLoadKeyPair(t *testing.T) {
	dir := t.TempDir()
	privPEM, pubPEM := generateRSAPEM(t)
	privFile := filepath.Join(dir, "jwt.private.key")
	pubFile := filepath.Join(dir, "jwt.pub.key")
	require.NoError(t, os.WriteFile(privFile, privPEM, 0o600))
	require.NoError(t, os.WriteFile(pubFile, pubPEM, 0o644))

	method, signKey, verifyKey, err := LoadKeyPair("RS512", privFile, pubFile)
	require.NoError(t, err)
	assert.Equal(t, "RS512", method.Alg())
	assert.IsType(t, &rsa.PrivateKey{}, signKey)
	assert.IsType(t, &rsa.PublicKey{}, verifyKey)

	_, _, _, err = LoadKeyPair("RS512", filepath.Join(dir, "missing"), pubFile)
	assert.ErrorContains(t, err, "failed to read private key")
}

func TestSignerVerifier_RoundTrip(t *testing.T) {
	for _, alg := range []string{"RS512", "PS256", "ES256", "EdDSA"} {
		t.Run(alg, func(t *testing.T) {
			signer, verifier := newTestPair(t, alg)

			token, err := signer.Issue("user-1", "mike")
			require.NoError(t, err)

			claims, err := verifier.ValidateToken(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, "mike", claims.Username)
			assert.Equal(t, "user-1", claims.Subject)
			assert.Equal(t, "dummy_issuer", claims.Issuer)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
		})
	}
}

func TestVerifier_Rejects(t *testing.T) {
	signer, verifier := newTestPair(t, "RS512")

	t.Run("expired", func(t *testing.T) {
		expired := *signer
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := expired.Issue("user-1", "mike")
		require.NoError(t, err)

		_, err = verifier.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := *signer
		other.issuer = "someone_else"
		token, err := other.Issue("user-1", "mike")
		require.NoError(t, err)

		_, err = verifier.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other key", func(t *testing.T) {
		foreign, _ := newTestPair(t, "RS512")
		token, err := foreign.Issue("user-1", "mike")
		require.NoError(t, err)

		_, err = verifier.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		other := *signer
		other.method = jwt.SigningMethodRS256
		token, err := other.Issue("user-1", "mike")
		require.NoError(t, err)

		_, err = verifier.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := signer.Issue("user-1", "mike")
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)

		forged, err := signer.Issue("user-2", "eve")
		require.NoError(t, err)
		parts[1] = strings.Split(forged, ".")[1]

		_, err = verifier.ValidateToken(context.Background(), strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.ValidateToken(context.Background(), "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := signer.Issue("", "mike")
		require.NoError(t, err)

		_, err = verifier.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
