package jwt

import (
	"testing"
	"time"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-12345")

	tests := []struct {
		name      string
		tokenType string
		access    bool
	}{
		{name: "access token", tokenType: TokenTypeAccess, access: true},
		{name: "refresh token", tokenType: TokenTypeRefresh, access: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(42, tt.tokenType, time.Minute)
			require.NoError(t, err)

			claims, err := ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, int64(42), claims.UserID)
			assert.Equal(t, "42", claims.Subject)
			assert.Equal(t, tt.access, claims.IsAccessToken())
			assert.Equal(t, !tt.access, claims.IsRefreshToken())
			assert.InDelta(t, time.Minute.Seconds(), GetTokenRemainingTTL(token).Seconds(), 5)
		})
	}
}

func TestValidateToken_Failures(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-12345")

	expired, err := GenerateToken(1, TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(expired)
	assert.Equal(t, customErrors.ExpiredToken, err)

	_, err = ValidateToken("not-a-token")
	assert.Equal(t, customErrors.InvalidToken, err)

	other, err := GenerateToken(1, TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	t.Setenv("JWT_SECRET", "rotated")
	_, err = ValidateToken(other)
	assert.Equal(t, customErrors.InvalidToken, err)

	_, err = GenerateToken(1, "session", time.Minute)
	assert.Equal(t, customErrors.InvalidTokenType, err)
}

func TestMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := GenerateToken(1, TokenTypeAccess, time.Minute)
	assert.Equal(t, customErrors.JWTSecretNotConfigured, err)
}

func TestTokensAreUnique(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-12345")

	first, err := GenerateToken(7, TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	second, err := GenerateToken(7, TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := ValidateToken(first)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Zero(t, GetTokenRemainingTTL("garbage"))
}
