package adminapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload minted for an authenticated operator session.
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// AuthService issues and validates bearer tokens for the mutating
// endpoints, and hashes the single operator API key configured at
// startup. Grounded on retr0-kernel-dht's internal/auth/auth.go.
type AuthService struct {
	jwtSecret  []byte
	tokenTTL   time.Duration
	apiKeyHash string
}

// NewAuthService creates an AuthService. apiKeyHash is a bcrypt hash,
// typically produced once via HashAPIKey and stored in configuration.
func NewAuthService(jwtSecret string, tokenTTL time.Duration, apiKeyHash string) *AuthService {
	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		apiKeyHash: apiKeyHash,
	}
}

// HashAPIKey bcrypt-hashes an operator API key for storage in configuration.
func HashAPIKey(apiKey string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hashed), nil
}

// Authenticate verifies apiKey against the configured hash and, on
// success, mints a bearer token.
func (a *AuthService) Authenticate(apiKey string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(a.apiKeyHash), []byte(apiKey)); err != nil {
		return "", errors.New("invalid api key")
	}

	claims := Claims{
		Operator: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "filestore-consensus",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token.
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
