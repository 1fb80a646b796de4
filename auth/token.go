package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the claims carried by issued tokens. Subject repeats UserID.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Signer issues signed tokens
type Signer struct {
	method jwt.SigningMethod
	key    interface{}
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer for method with the given private key
func NewSigner(method jwt.SigningMethod, key interface{}, issuer string, ttl time.Duration) *Signer {
	return &Signer{
		method: method,
		key:    key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the given user
func (s *Signer) Issue(id, username string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verifier validates tokens issued by a Signer with the matching key pair
type Verifier struct {
	key    interface{}
	parser *jwt.Parser
}

// NewVerifier creates a verifier that accepts only method and issuer
func NewVerifier(method jwt.SigningMethod, key interface{}, issuer string) *Verifier {
	return &Verifier{
		key: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// ValidateToken validates a token and returns its claims
func (v *Verifier) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
