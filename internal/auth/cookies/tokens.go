package cookies

import (
	"time"

	"github.com/abisalde/marketplace-service/pkg/jwt"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Lifetimes holds the token TTLs used when issuing cookies.
type Lifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

func GenerateAccessToken(userID int64, ttl time.Duration) (string, error) {
	return jwt.GenerateToken(userID, jwt.TokenTypeAccess, ttl)
}

func GenerateTokenPair(userID int64, lt Lifetimes) (*TokenPair, error) {
	accessToken, err := jwt.GenerateToken(userID, jwt.TokenTypeAccess, lt.Access)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateToken(userID, jwt.TokenTypeRefresh, lt.Refresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
