package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/domain/shared"
	"github.com/odyssey/backend/internal/infrastructure/auth"
	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxUsernameAttempts bounds retries when a generated username is taken
const maxUsernameAttempts = 5

// timingPassword is hashed once so that a login for an unknown email spends
// as long in the hasher as one with a wrong password.
const timingPassword = "odyssey-timing-equaliser"

var (
	errInvalidCredentials = shared.NewAuthenticationError(MsgInvalidCredentials)
	errInvalidRefresh     = shared.NewAuthenticationError(MsgInvalidRefreshToken)
	errEmailTaken         = shared.NewDomainError(shared.CodeAlreadyExists, MsgEmailTaken)
	errUserNotFound       = shared.NewDomainError(shared.CodeNotFound, MsgUserNotFound)
)

// AuthService handles registration, login and the token lifecycle
type AuthService struct {
	users     identity.UserRepository
	tokens    identity.RefreshTokenRepository
	hasher    auth.PasswordHasher
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	metrics   *telemetry.AuthMetrics
	logger    *zap.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthServiceOption customises an AuthService
type AuthServiceOption func(*AuthService)

// WithAuthMetrics records auth counters
func WithAuthMetrics(m *telemetry.AuthMetrics) AuthServiceOption {
	return func(s *AuthService) {
		s.metrics = m
	}
}

// WithServiceClock overrides the time source
func WithServiceClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	tokens identity.RefreshTokenRepository,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
	opts ...AuthServiceOption,
) *AuthService {
	s := &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		jwt:       jwtService,
		blacklist: blacklist,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and signs the new user in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "register")
	defer span.End()
	defer s.observe(ctx, "register", s.now())

	email := strings.ToLower(identity.SanitizeInput(input.Email))
	if email == "" || input.Password == "" || input.ConfirmPassword == "" {
		return nil, s.rejectRegistration(ctx, shared.NewValidationError(MsgRegisterFieldsRequired))
	}
	if !identity.ValidateEmail(email) {
		return nil, s.rejectRegistration(ctx, shared.NewValidationError(MsgInvalidEmail))
	}
	if pv := identity.ValidatePassword(input.Password); !pv.Valid {
		return nil, s.rejectRegistration(ctx, shared.NewValidationError(pv.Message))
	}
	if !identity.ValidatePasswordMatch(input.Password, input.ConfirmPassword) {
		return nil, s.rejectRegistration(ctx, shared.NewValidationError(MsgPasswordsDoNotMatch))
	}

	firstName := identity.NormalizeName(input.FirstName)
	lastName := identity.NormalizeName(input.LastName)
	if firstName != "" && !identity.ValidateName(firstName) {
		return nil, s.rejectRegistration(ctx, shared.NewValidationError(MsgFirstNameLength))
	}
	if lastName != "" && !identity.ValidateName(lastName) {
		return nil, s.rejectRegistration(ctx, shared.NewValidationError(MsgLastNameLength))
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(ctx, "Failed to check email availability", err)
	}
	if exists {
		s.logger.Info("Registration rejected: email already registered")
		return nil, s.rejectRegistration(ctx, errEmailTaken)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, s.internal(ctx, "Failed to hash password", err)
	}

	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, s.internal(ctx, "Failed to generate username", err)
	}

	user, err := identity.NewUser(email, username, hash)
	if err != nil {
		return nil, s.rejectRegistration(ctx, err)
	}
	if err := user.SetNames(firstName, lastName); err != nil {
		return nil, s.rejectRegistration(ctx, err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// lost a race with a concurrent registration of the same email
			return nil, s.rejectRegistration(ctx, errEmailTaken)
		}
		return nil, s.internal(ctx, "Failed to create user", err)
	}

	result, err := s.signIn(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, "Failed to issue tokens", err)
	}

	span.SetAttributes(attribute.String(telemetry.SpanAttrUserID, user.ID.String()))
	s.metrics.RecordRegistration(ctx, telemetry.ResultSuccess)
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))
	return result, nil
}

// uniqueUsername derives a username from the email and bumps the suffix until it is free
func (s *AuthService) uniqueUsername(ctx context.Context, email string) (string, error) {
	at := s.now()
	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := identity.GenerateUsername(email, at.Add(time.Duration(i)*time.Millisecond))
		taken, err := s.users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free username after %d attempts", maxUsernameAttempts)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer span.End()
	defer s.observe(ctx, "login", s.now())

	email := strings.ToLower(identity.SanitizeInput(input.Email))
	if email == "" || input.Password == "" {
		s.metrics.RecordLogin(ctx, telemetry.ResultRejected)
		return nil, shared.NewValidationError(MsgLoginFieldsRequired)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.metrics.RecordLogin(ctx, telemetry.ResultError)
			return nil, s.internal(ctx, "Failed to load user for login", err)
		}
		_ = s.hasher.Compare(s.timingHash(), input.Password)
		s.logger.Info("Login rejected: unknown email")
		s.metrics.RecordLogin(ctx, telemetry.ResultRejected)
		return nil, errInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("Stored password hash could not be verified",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		s.logger.Info("Login rejected: wrong password", zap.String("user_id", user.ID.String()))
		s.metrics.RecordLogin(ctx, telemetry.ResultRejected)
		return nil, errInvalidCredentials
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.RecordLogin(now)

	result, err := s.signIn(ctx, user)
	if err != nil {
		s.metrics.RecordLogin(ctx, telemetry.ResultError)
		return nil, s.internal(ctx, "Failed to issue tokens", err)
	}

	span.SetAttributes(attribute.String(telemetry.SpanAttrUserID, user.ID.String()))
	s.metrics.RecordLogin(ctx, telemetry.ResultSuccess)
	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return result, nil
}

// Refresh exchanges a refresh token for a new pair. Each refresh token is
// single use: presenting one that was already rotated or revoked is treated
// as theft and signs the user out everywhere.
func (s *AuthService) Refresh(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "refresh")
	defer span.End()
	defer s.observe(ctx, "refresh", s.now())

	presented := strings.TrimSpace(input.RefreshToken)
	if presented == "" {
		s.metrics.RecordRefresh(ctx, telemetry.ResultRejected)
		return nil, shared.NewValidationError(MsgRefreshTokenRequired)
	}

	claims, err := s.jwt.ValidateRefreshToken(presented)
	if err != nil {
		s.logger.Info("Refresh rejected: token failed verification", zap.Error(err))
		return nil, s.rejectRefresh(ctx)
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		s.logger.Info("Refresh rejected: bad subject", zap.Error(err))
		return nil, s.rejectRefresh(ctx)
	}
	span.SetAttributes(attribute.String(telemetry.SpanAttrUserID, userID.String()))

	presentedHash := auth.HashToken(presented)
	stored, err := s.tokens.FindByHash(ctx, presentedHash)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Refresh rejected: token not on record", zap.String("user_id", userID.String()))
			return nil, s.rejectRefresh(ctx)
		}
		s.metrics.RecordRefresh(ctx, telemetry.ResultError)
		return nil, s.internal(ctx, "Failed to load refresh token", err)
	}
	if stored.UserID != userID {
		s.logger.Warn("Refresh rejected: token owner mismatch", zap.String("user_id", userID.String()))
		return nil, s.rejectRefresh(ctx)
	}
	if stored.IsRevoked() {
		s.handleReuse(ctx, userID)
		return nil, s.rejectRefresh(ctx)
	}
	if stored.IsExpired(s.now()) {
		return nil, s.rejectRefresh(ctx)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Refresh rejected: user no longer exists", zap.String("user_id", userID.String()))
			return nil, s.rejectRefresh(ctx)
		}
		s.metrics.RecordRefresh(ctx, telemetry.ResultError)
		return nil, s.internal(ctx, "Failed to load user for refresh", err)
	}

	pair, err := s.jwt.GenerateTokenPair(auth.TokenSubject{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.metrics.RecordRefresh(ctx, telemetry.ResultError)
		return nil, s.internal(ctx, "Failed to issue tokens", err)
	}

	next := identity.NewRefreshToken(user.ID, auth.HashToken(pair.RefreshToken), pair.RefreshTokenExpiresAt)
	if err := s.tokens.Rotate(ctx, presentedHash, next, identity.RevokedReasonRefreshed); err != nil {
		if errors.Is(err, identity.ErrTokenReused) {
			s.handleReuse(ctx, userID)
			return nil, s.rejectRefresh(ctx)
		}
		s.metrics.RecordRefresh(ctx, telemetry.ResultError)
		return nil, s.internal(ctx, "Failed to rotate refresh token", err)
	}

	s.metrics.RecordRefresh(ctx, telemetry.ResultSuccess)
	s.logger.Debug("Tokens refreshed", zap.String("user_id", user.ID.String()))
	return &TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}, nil
}

// handleReuse revokes every refresh token of the user and cuts off their
// outstanding access tokens.
func (s *AuthService) handleReuse(ctx context.Context, userID uuid.UUID) {
	s.metrics.RecordReuseDetected(ctx)
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "refresh_token.reuse_detected",
		telemetry.SpanAttrUserID, userID.String())

	revoked, err := s.tokens.RevokeAllForUser(ctx, userID, identity.RevokedReasonReuse)
	if err != nil {
		s.logger.Error("Failed to revoke token family after reuse", zap.String("user_id", userID.String()), zap.Error(err))
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.jwt.AccessTokenExpiration()); err != nil {
		s.logger.Error("Failed to invalidate access tokens after reuse", zap.String("user_id", userID.String()), zap.Error(err))
	}

	s.logger.Warn("Refresh token reuse detected, all sessions revoked",
		zap.String("user_id", userID.String()),
		zap.Int64("revoked_tokens", revoked))
}

// Logout revokes whatever tokens the caller presents. It never fails.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "logout")
	defer span.End()

	if input.AccessToken != "" {
		claims, err := s.jwt.ValidateAccessToken(input.AccessToken)
		switch {
		case err != nil:
			s.logger.Debug("Logout: access token not blacklisted", zap.Error(err))
		case claims.ID == "":
			s.logger.Debug("Logout: access token has no jti")
		default:
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Error("Failed to blacklist access token on logout", zap.Error(err))
			}
			span.SetAttributes(attribute.String(telemetry.SpanAttrUserID, claims.UserID))
		}
	}

	if rt := strings.TrimSpace(input.RefreshToken); rt != "" {
		if err := s.tokens.Revoke(ctx, auth.HashToken(rt), identity.RevokedReasonLogout); err != nil {
			s.logger.Error("Failed to revoke refresh token on logout", zap.Error(err))
		}
	}

	s.metrics.RecordLogout(ctx)
}

// GetCurrentUser returns the profile of an authenticated user
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errUserNotFound
		}
		s.logger.Error("Failed to load current user", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, shared.ErrInternal
	}
	info := NewUserInfo(user)
	return &info, nil
}

// signIn issues a token pair and records the refresh token
func (s *AuthService) signIn(ctx context.Context, user *identity.User) (*AuthResult, error) {
	pair, err := s.jwt.GenerateTokenPair(auth.TokenSubject{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, err
	}
	stored := identity.NewRefreshToken(user.ID, auth.HashToken(pair.RefreshToken), pair.RefreshTokenExpiresAt)
	if err := s.tokens.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{
		User:                  NewUserInfo(user),
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}, nil
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.logger.Error("Failed to prepare timing hash", zap.Error(err))
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *AuthService) rejectRegistration(ctx context.Context, err error) error {
	s.metrics.RecordRegistration(ctx, telemetry.ResultRejected)
	return err
}

func (s *AuthService) rejectRefresh(ctx context.Context) error {
	s.metrics.RecordRefresh(ctx, telemetry.ResultRejected)
	return errInvalidRefresh
}

// internal logs err and hides it behind the generic internal error
func (s *AuthService) internal(ctx context.Context, msg string, err error) error {
	telemetry.RecordError(telemetry.SpanFromContext(ctx), err)
	s.logger.Error(msg, zap.Error(err))
	return shared.ErrInternal
}

func (s *AuthService) observe(ctx context.Context, op string, start time.Time) {
	s.metrics.RecordDuration(ctx, op, s.now().Sub(start))
}
