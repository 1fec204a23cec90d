// Package jwt issues and checks the HS256 access and refresh tokens handed
// out in the session cookies.
package jwt

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	issuer = "marketplace-service"
)

// Claims identify the user and say which of the two token kinds this is.
// Every token carries a random ID so two tokens minted in the same second
// never collide in the logout blacklist.
type Claims struct {
	UserID int64  `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAccessToken() bool  { return c.Type == TokenTypeAccess }
func (c *Claims) IsRefreshToken() bool { return c.Type == TokenTypeRefresh }

func validType(t string) bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// GetJWTSecret reads the signing key from JWT_SECRET on every call so a
// rotated secret takes effect without a restart.
func GetJWTSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, customErrors.JWTSecretNotConfigured
	}
	return []byte(secret), nil
}

func GenerateToken(userID int64, tokenType string, expiration time.Duration) (string, error) {
	if !validType(tokenType) {
		return "", customErrors.InvalidTokenType
	}
	secret, err := GetJWTSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", tokenType, err)
	}
	return signed, nil
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(issuer),
	jwt.WithExpirationRequired(),
)

// ValidateToken verifies signature, issuer and lifetime. Expired tokens map
// to ExpiredToken, anything else malformed to InvalidToken.
func ValidateToken(tokenString string) (*Claims, error) {
	secret, err := GetJWTSecret()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err = parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, customErrors.ExpiredToken
	case err != nil:
		return nil, customErrors.InvalidToken
	case !validType(claims.Type):
		return nil, customErrors.InvalidTokenType
	}
	return claims, nil
}

// GetTokenRemainingTTL reads the expiry without verifying the signature.
// It returns zero for garbage or already expired tokens.
func GetTokenRemainingTTL(tokenString string) time.Duration {
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil || claims.ExpiresAt == nil {
		return 0
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		return ttl
	}
	return 0
}
