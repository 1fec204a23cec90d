package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/internal/auth/cookies"
	"github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/utils/validator"
	"github.com/abisalde/marketplace-service/pkg/jwt"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/abisalde/marketplace-service/pkg/verification"
	"go.uber.org/zap"
)

const (
	BlacklistPrefix      = "blacklist:"
	maxUsernameAttempts  = 10
	maxFindCreateRetries = 3
)

type AuthService struct {
	store    *database.Store
	users    repository.UserRepository
	otps     repository.OTPRepository
	cfg      *configs.Config
	cache    database.CacheService
	notifier Notifier
	google   TokenVerifier

	now   func() time.Time
	async func(func())
}

type Option func(*AuthService)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithDispatcher replaces how OTP delivery is scheduled. The default runs it in a goroutine.
func WithDispatcher(async func(func())) Option {
	return func(s *AuthService) { s.async = async }
}

func NewAuthService(
	store *database.Store,
	users repository.UserRepository,
	otps repository.OTPRepository,
	cfg *configs.Config,
	cache database.CacheService,
	notifier Notifier,
	google TokenVerifier,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		store:    store,
		users:    users,
		otps:     otps,
		cfg:      cfg,
		cache:    cache,
		notifier: notifier,
		google:   google,
		now:      func() time.Time { return time.Now().UTC() },
		async:    func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type LoginInput struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type LoginResult struct {
	User    *model.User
	Channel model.ContactKind
}

// Login resolves or creates the account for one identifier and sends it a fresh OTP.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)

	if email == "" && phone == "" {
		return nil, customErrors.Validation("email or phone is required")
	}
	if email != "" && phone != "" {
		return nil, customErrors.Validation("You need to use only one(email or phone)")
	}

	var (
		kind    model.ContactKind
		address string
	)
	switch {
	case email != "":
		email = validator.NormalizeEmail(email)
		if !validator.IsValidEmail(email) {
			return nil, customErrors.Validation("You need to enter a valid email")
		}
		kind, address = model.ContactEmail, email
	default:
		if !validator.IsValidPhone(phone) {
			return nil, customErrors.Validation("You need to enter a valid phone number")
		}
		kind, address = model.ContactPhone, phone
	}

	user, err := s.findOrCreate(ctx, kind, address, nil)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	if !user.IsActive {
		return nil, customErrors.UserNotActive
	}

	active, err := s.otps.ActiveForUser(ctx, user.ID, s.now())
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if len(active) > 0 {
		return nil, customErrors.OTPAlreadySent.WithData(map[string]any{"username": user.Username})
	}

	code, _, err := s.issueOTP(ctx, user.ID)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	s.dispatchOTP(ctx, kind, address, code)

	return &LoginResult{User: user, Channel: kind}, nil
}

// findOrCreate returns the user owning address, creating it with a fresh
// username when none exists. A concurrent insert of the same address is
// resolved by re-reading it.
func (s *AuthService) findOrCreate(ctx context.Context, kind model.ContactKind, address string, init func(*model.User)) (*model.User, error) {
	lookup := s.users.GetByEmail
	if kind == model.ContactPhone {
		lookup = s.users.GetByPhone
	}

	var lastErr error
	for attempt := 0; attempt < maxFindCreateRetries; attempt++ {
		user, err := lookup(ctx, address)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}

		username, err := s.newUsername(ctx)
		if err != nil {
			return nil, err
		}

		user = &model.User{Username: username, IsActive: true, DateJoined: s.now()}
		if kind == model.ContactPhone {
			user.Phone = address
		} else {
			user.Email = address
		}
		if init != nil {
			init(user)
		}

		err = s.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("creating user for %s: %w", kind, lastErr)
}

func (s *AuthService) newUsername(ctx context.Context) (string, error) {
	for i := 0; i < maxUsernameAttempts; i++ {
		username, err := verification.GenerateUsername(s.now())
		if err != nil {
			return "", err
		}
		taken, err := s.users.UsernameTaken(ctx, username)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
	}
	return "", errors.New("could not generate a unique username")
}

func (s *AuthService) issueOTP(ctx context.Context, userID int64) (string, *model.OTP, error) {
	code, err := verification.GenerateOTP(s.cfg.Auth.OTPLength, s.cfg.UsesFixedOTP())
	if err != nil {
		return "", nil, err
	}
	hash, err := verification.HashOTP(code, s.cfg.Auth.OTPHashCost)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	otp := &model.OTP{
		UserID:    userID,
		CodeHash:  hash,
		CreatedAt: now,
		ExpiredAt: now.Add(time.Duration(s.cfg.Auth.OTPExpiryMinutes) * time.Minute),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return "", nil, err
	}
	return code, otp, nil
}

type VerifyInput struct {
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

// Session is a logged-in principal together with the tokens to hand out.
type Session struct {
	Principal *auth.Principal
	Tokens    *cookies.TokenPair
}

// VerifyOTP redeems a code, promoting any contact change it was issued for,
// and opens a session.
func (s *AuthService) VerifyOTP(ctx context.Context, input VerifyInput) (*Session, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, customErrors.Validation("username is required")
	}
	if strings.TrimSpace(input.OTP) == "" {
		return nil, customErrors.Validation("otp is required")
	}

	user, err := s.users.GetByUsername(ctx, input.Username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, customErrors.Validation("username is not valid")
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	active, err := s.otps.ActiveForUser(ctx, user.ID, s.now())
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	var redeemed *model.OTP
	for _, otp := range active {
		if verification.CompareOTP(otp.CodeHash, input.OTP) {
			redeemed = otp
			break
		}
	}
	if redeemed == nil {
		return nil, customErrors.InvalidOrExpiredOTP
	}

	err = s.store.InTx(ctx, func(ctx context.Context) error {
		deleted, err := s.otps.Delete(ctx, redeemed.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return customErrors.InvalidOrExpiredOTP
		}
		if pending, ok := user.Pending(); ok && pending.OTPID == redeemed.ID {
			if err := s.promote(ctx, user.ID, pending); err != nil {
				return err
			}
		}
		if err := s.users.AddToGroup(ctx, user.ID, s.cfg.Auth.VerifiedGroup); err != nil {
			return err
		}
		return s.users.UpdateLoginTime(ctx, user.ID, s.now())
	})
	if err != nil {
		if _, ok := customErrors.As(err); ok {
			return nil, err
		}
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	return s.openSession(ctx, user.ID)
}

func (s *AuthService) promote(ctx context.Context, userID int64, pending model.PendingVerification) error {
	taken := s.users.EmailTaken
	conflict := customErrors.EmailInUse
	if pending.Kind == model.ContactPhone {
		taken = s.users.PhoneTaken
		conflict = customErrors.PhoneInUse
	}

	claimed, err := taken(ctx, pending.Candidate, userID)
	if err != nil {
		return err
	}
	if claimed {
		return conflict
	}

	if err := s.users.PromotePending(ctx, userID, pending); err != nil {
		if database.IsUniqueViolation(err) {
			return conflict
		}
		return err
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, userID int64) (*Session, error) {
	principal, err := s.loadPrincipal(ctx, userID)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	tokens, err := cookies.GenerateTokenPair(userID, cookies.Lifetimes{
		Access:  s.cfg.Auth.AccessTokenTTL,
		Refresh: s.cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		logger.FromContext(ctx).Error("failed to generate token pair", zap.Int64("user_id", userID), zap.Error(err))
		return nil, customErrors.ErrSomethingWentWrong
	}
	principal.Token = tokens.AccessToken

	return &Session{Principal: principal, Tokens: tokens}, nil
}

func (s *AuthService) loadPrincipal(ctx context.Context, userID int64) (*auth.Principal, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups, perms, err := s.users.GroupsAndPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{User: user, Groups: groups, Permissions: perms}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", customErrors.AuthenticationRequired
	}

	claims, err := jwt.ValidateToken(refreshToken)
	if err != nil || !claims.IsRefreshToken() {
		return "", customErrors.InvalidRefreshToken
	}

	if blacklisted, _ := s.IsTokenBlacklisted(ctx, refreshToken); blacklisted {
		return "", customErrors.InvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return "", customErrors.InvalidRefreshToken
	}

	access, err := cookies.GenerateAccessToken(user.ID, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return "", customErrors.InternalServerError(err, "Internal server error")
	}
	return access, nil
}

// Authenticate resolves an access token into a principal.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error) {
	claims, err := jwt.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsAccessToken() {
		return nil, customErrors.InvalidTokenType
	}

	blacklisted, err := s.IsTokenBlacklisted(ctx, accessToken)
	if err != nil {
		logger.FromContext(ctx).Warn("blacklist lookup failed", zap.Error(err))
	}
	if blacklisted {
		return nil, customErrors.InvalidToken
	}

	principal, err := s.loadPrincipal(ctx, claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !principal.User.IsActive {
		return nil, customErrors.UserNotActive
	}
	principal.Token = accessToken
	return principal, nil
}

// Logout blacklists whichever of the tokens are still valid for their remaining lifetime.
func (s *AuthService) Logout(ctx context.Context, tokens ...string) error {
	present := tokens[:0:0]
	for _, token := range tokens {
		if token != "" {
			present = append(present, token)
		}
	}
	if len(present) == 0 {
		return customErrors.NotAcceptable("Already logged out")
	}

	for _, token := range present {
		if ttl := jwt.GetTokenRemainingTTL(token); ttl > 0 {
			if err := s.BlacklistToken(ctx, token, ttl); err != nil {
				logger.FromContext(ctx).Error("failed to blacklist token", zap.Error(err))
			}
		}
	}
	return nil
}

func (s *AuthService) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.cache.Set(ctx, BlacklistPrefix+verification.HashToken(token), "blacklisted", ttl)
}

func (s *AuthService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	var v string
	err := s.cache.Get(ctx, BlacklistPrefix+verification.HashToken(token), &v)
	if errors.Is(err, database.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
