package service

import (
	"context"
	"strings"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/utils/validator"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// TokenVerifier checks a Google ID token against the expected audience.
type TokenVerifier interface {
	Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier validates ID tokens against Google's published keys.
type GoogleVerifier struct{}

func (GoogleVerifier) Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, token, audience)
}

type GoogleUser struct {
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Issuer        string
}

func googleUserFromPayload(payload *idtoken.Payload) GoogleUser {
	email, _ := payload.Claims["email"].(string)
	firstName, _ := payload.Claims["given_name"].(string)
	lastName, _ := payload.Claims["family_name"].(string)

	verified := false
	switch v := payload.Claims["email_verified"].(type) {
	case bool:
		verified = v
	case string:
		verified = strings.EqualFold(v, "true")
	}

	return GoogleUser{
		Email:         email,
		EmailVerified: verified,
		FirstName:     firstName,
		LastName:      lastName,
		Issuer:        payload.Issuer,
	}
}

// GoogleLogin signs in with a Google ID token, creating the account on first use.
func (s *AuthService) GoogleLogin(ctx context.Context, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, customErrors.Validation("Google token verification failed")
	}

	payload, err := s.google.Validate(ctx, token, s.cfg.Google.ClientID)
	if err != nil {
		logger.FromContext(ctx).Info("google token rejected", zap.Error(err))
		return nil, customErrors.Validation("Google token verification failed")
	}

	gu := googleUserFromPayload(payload)
	if !googleIssuers[gu.Issuer] {
		return nil, customErrors.Validation("Invalid iss")
	}
	if !gu.EmailVerified {
		return nil, customErrors.Validation("Google email not verified")
	}
	if gu.Email == "" {
		return nil, customErrors.Validation("Email not found")
	}

	user, err := s.findOrCreate(ctx, model.ContactEmail, validator.NormalizeEmail(gu.Email), func(u *model.User) {
		u.FirstName = gu.FirstName
		u.LastName = gu.LastName
	})
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if !user.IsActive {
		return nil, customErrors.UserNotActive
	}

	if err := s.users.UpdateLoginTime(ctx, user.ID, s.now()); err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return s.openSession(ctx, user.ID)
}
