package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnsupportedAlgorithm is returned for symmetric, unsigned or unknown algorithms
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// ResolveMethod looks up an asymmetric signing method by its JWA name
func ResolveMethod(alg string) (jwt.SigningMethod, error) {
	method := jwt.GetSigningMethod(alg)
	if method == nil || method.Alg() == "none" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); ok {
		return nil, fmt.Errorf("%w: %q is symmetric", ErrUnsupportedAlgorithm, alg)
	}
	return method, nil
}

// LoadSigningKey parses a PEM private key matching the method's key family
func LoadSigningKey(method jwt.SigningMethod, pemData []byte) (interface{}, error) {
	var (
		key interface{}
		err error
	)

	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		key, err = jwt.ParseRSAPrivateKeyFromPEM(pemData)
	case *jwt.SigningMethodECDSA:
		key, err = jwt.ParseECPrivateKeyFromPEM(pemData)
	case *jwt.SigningMethodEd25519:
		key, err = jwt.ParseEdPrivateKeyFromPEM(pemData)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, method.Alg())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse %s private key: %w", method.Alg(), err)
	}
	return key, nil
}

// LoadVerifyKey parses a PEM public key matching the method's key family
func LoadVerifyKey(method jwt.SigningMethod, pemData []byte) (interface{}, error) {
	var (
		key interface{}
		err error
	)

	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		key, err = jwt.ParseRSAPublicKeyFromPEM(pemData)
	case *jwt.SigningMethodECDSA:
		key, err = jwt.ParseECPublicKeyFromPEM(pemData)
	case *jwt.SigningMethodEd25519:
		key, err = jwt.ParseEdPublicKeyFromPEM(pemData)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, method.Alg())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse %s public key: %w", method.Alg(), err)
	}
	return key, nil
}

// LoadKeyPair reads both key files and parses them for alg
func LoadKeyPair(alg, privateKeyFile, publicKeyFile string) (jwt.SigningMethod, interface{}, interface{}, error) {
	method, err := ResolveMethod(alg)
	if err != nil {
		return nil, nil, nil, err
	}

	privPEM, err := os.ReadFile(privateKeyFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read private key: %w", err)
	}
	pubPEM, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read public key: %w", err)
	}

	signKey, err := LoadSigningKey(method, privPEM)
	if err != nil {
		return nil, nil, nil, err
	}
	verifyKey, err := LoadVerifyKey(method, pubPEM)
	if err != nil {
		return nil, nil, nil, err
	}

	return method, signKey, verifyKey, nil
}
