package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wowcampus/auth-api/internal/models"
	"github.com/wowcampus/auth-api/internal/password"
	"github.com/wowcampus/auth-api/internal/token"
	appErrors "github.com/wowcampus/auth-api/pkg/errors"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
}

type refreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, revokedAt time.Time) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type tokenBlacklist interface {
	Add(ctx context.Context, entry *models.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
}

type auditTrail interface {
	Record(log *models.AuditLog)
}

type authMetrics interface {
	IncAuthEvent(operation, result string)
}

// AuthService orchestrates the register/login/refresh/logout protocol
// on top of the credential hasher, the token codec and the two token
// stores. It keeps no mutable state of its own; every operation is a
// function of its inputs plus store reads and writes.
type AuthService struct {
	users         userStore
	refreshTokens refreshTokenStore
	blacklist     tokenBlacklist
	codec         *token.Codec
	validator     *validator.Validate
	logger        *zap.Logger
	audit         auditTrail
	metrics       authMetrics
}

// NewAuthService constructs an AuthService. audit and metrics may be
// nil.
func NewAuthService(users userStore, refreshTokens refreshTokenStore, blacklist tokenBlacklist, codec *token.Codec, validate *validator.Validate, logger *zap.Logger, audit auditTrail, metrics authMetrics) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	registerPhoneRule(validate)
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		blacklist:     blacklist,
		codec:         codec,
		validator:     validate,
		logger:        logger,
		audit:         audit,
		metrics:       metrics,
	}
}

// Register creates a new account and logs it in immediately.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		s.observe("register", "conflict")
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := password.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		Role:         models.UserRole(req.Role),
		// Registration auto-approves; administrative review can move
		// the account to any other status later.
		Status: models.StatusApproved,
		Name:   strings.TrimSpace(req.Name),
	}
	if req.Phone != "" {
		phone := strings.TrimSpace(req.Phone)
		user.Phone = &phone
	}
	if req.Location != "" {
		location := strings.TrimSpace(req.Location)
		user.Location = &location
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	res, err := s.openSession(ctx, user, false, req.UserAgent, req.IP)
	if err != nil {
		return nil, err
	}

	s.observe("register", "success")
	s.record(models.AuditActionRegister, &user.ID, req.IP, req.UserAgent, map[string]interface{}{"role": user.Role})
	return res, nil
}

// Login authenticates a user and opens a fresh session. A failed
// lookup and a failed password check are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observe("login", "invalid_credentials")
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		s.observe("login", "invalid_credentials")
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if err := statusError(user.Status); err != nil {
		s.observe("login", "blocked")
		return nil, err
	}

	// Single active session per user: every successful login revokes
	// all previously issued refresh tokens, including those held by
	// other devices.
	if err := s.refreshTokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke previous sessions")
	}

	res, err := s.openSession(ctx, user, req.RememberMe, req.UserAgent, req.IP)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.observe("login", "success")
	s.record(models.AuditActionLogin, &user.ID, req.IP, req.UserAgent, map[string]interface{}{"remember_me": req.RememberMe})
	return res, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated: it stays valid until revoked
// or until its own TTL runs out.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.RefreshResponse, error) {
	if req.RefreshToken == "" {
		return nil, appErrors.Clone(appErrors.ErrRefreshMissing, "")
	}

	claims, err := s.codec.Decode(req.RefreshToken)
	if err != nil {
		s.observe("refresh", "rejected")
		// Expired, forged and malformed all collapse into the same
		// answer, same as revoked and unknown below.
		return nil, appErrors.Wrap(err, appErrors.ErrRefreshInvalid.Code, appErrors.ErrRefreshInvalid.Status, appErrors.ErrRefreshInvalid.Message)
	}
	if claims.TokenType != token.TypeRefresh {
		s.observe("refresh", "wrong_type")
		return nil, appErrors.Clone(appErrors.ErrWrongTokenType, "")
	}

	record, err := s.refreshTokens.FindActive(ctx, token.Digest(req.RefreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observe("refresh", "rejected")
			return nil, appErrors.Clone(appErrors.ErrRefreshInvalid, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up refresh token")
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observe("refresh", "user_unavailable")
			return nil, appErrors.Clone(appErrors.ErrUserUnavailable, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Status != models.StatusApproved {
		s.observe("refresh", "user_unavailable")
		return nil, appErrors.Clone(appErrors.ErrUserUnavailable, "")
	}

	accessToken, _, err := s.codec.MintAccess(user, time.Unix(claims.OriginalLoginAt, 0))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint access token")
	}

	s.observe("refresh", "success")
	s.record(models.AuditActionRefresh, &user.ID, req.IP, req.UserAgent, nil)
	return &models.RefreshResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(token.AccessTokenTTL.Seconds()),
	}, nil
}

// Logout retires the presented credentials. It is best-effort by
// contract: invalid or missing tokens and failed writes never bubble
// up, since session validity is bounded by the tokens' TTLs anyway.
func (s *AuthService) Logout(ctx context.Context, req models.LogoutRequest) {
	var userID *int64

	if req.AccessToken != "" {
		if claims, err := s.codec.DecodeAccess(req.AccessToken); err == nil {
			userID = &claims.UserID
			entry := &models.BlacklistedToken{
				TokenHash: token.Digest(req.AccessToken),
				UserID:    claims.UserID,
				ExpiresAt: claims.ExpiresAt.Time,
				Reason:    models.BlacklistReasonLogout,
			}
			if err := s.blacklist.Add(ctx, entry); err != nil {
				s.logger.Warn("failed to blacklist access token on logout", zap.Error(err))
			}
		}
	}

	if req.RefreshToken != "" {
		digest := token.Digest(req.RefreshToken)
		if record, err := s.refreshTokens.FindActive(ctx, digest); err == nil {
			if userID == nil {
				userID = &record.UserID
			}
			if err := s.refreshTokens.Revoke(ctx, digest, time.Now().UTC()); err != nil {
				s.logger.Warn("failed to revoke refresh token on logout", zap.Error(err))
			}
		}
	}

	s.observe("logout", "success")
	s.record(models.AuditActionLogout, userID, req.IP, req.UserAgent, nil)
}

// RevokeUserSessions force-revokes every refresh token issued to the
// user. Access tokens already in the wild stay valid until their own
// TTL runs out.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID int64, ip, userAgent string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.refreshTokens.RevokeAllForUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke user sessions")
	}

	s.observe("revoke_sessions", "success")
	s.record(models.AuditActionRevoke, &userID, ip, userAgent, nil)
	return nil
}

// ValidateAccessToken verifies an access token for request
// authentication: signature, expiry, token role, then the blacklist.
func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenString string) (*token.Claims, error) {
	claims, err := s.codec.DecodeAccess(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, appErrors.Clone(appErrors.ErrTokenExpired, "")
		case errors.Is(err, token.ErrWrongType):
			return nil, appErrors.Clone(appErrors.ErrWrongTokenType, "")
		default:
			return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "")
		}
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, token.Digest(tokenString))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check token blacklist")
	}
	if blacklisted {
		s.observe("validate", "blacklisted")
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "token has been revoked")
	}

	return claims, nil
}

// GetUser loads the account behind a validated token's subject.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.SanitizedUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// openSession mints and persists a fresh access+refresh pair. The
// refresh record's persist is ordered strictly after any revocation
// the caller performed.
func (s *AuthService) openSession(ctx context.Context, user *models.User, rememberMe bool, deviceInfo, ip string) (*models.AuthResponse, error) {
	loginAt := time.Now().UTC()

	accessToken, _, err := s.codec.MintAccess(user, loginAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint access token")
	}

	refreshToken, refreshExpiry, err := s.codec.MintRefresh(user, rememberMe, loginAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint refresh token")
	}

	record := &models.RefreshToken{
		UserID:     user.ID,
		TokenHash:  token.Digest(refreshToken),
		ExpiresAt:  refreshExpiry,
		DeviceInfo: deviceInfo,
		IPAddress:  ip,
	}
	if err := s.refreshTokens.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return &models.AuthResponse{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(token.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) record(action string, userID *int64, ip, userAgent string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if detail != nil {
		if payload, err := json.Marshal(detail); err == nil {
			log.Detail = payload
		}
	}
	s.audit.Record(log)
}

func (s *AuthService) observe(operation, result string) {
	if s.metrics != nil {
		s.metrics.IncAuthEvent(operation, result)
	}
}

// statusError maps a non-approved account status to its error. The
// distinction is not secret here: the caller has already proven they
// hold the account's credentials.
func statusError(status models.UserStatus) error {
	switch status {
	case models.StatusApproved:
		return nil
	case models.StatusPending:
		return appErrors.Clone(appErrors.ErrAccountPending, "")
	case models.StatusSuspended:
		return appErrors.Clone(appErrors.ErrAccountSuspended, "")
	case models.StatusRejected:
		return appErrors.Clone(appErrors.ErrAccountRejected, "")
	default:
		return appErrors.Clone(appErrors.ErrAccountUnavailable, fmt.Sprintf("account status %q is not available", status))
	}
}

// Phone numbers accept digits, spaces, parentheses, plus and dash.
var phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)

func registerPhoneRule(v *validator.Validate) {
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// validationError reports the first violated rule only.
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		first := fieldErrors[0]
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fieldMessage(first))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "password and confirmPassword do not match"
	case "phone":
		return "phone may only contain digits, spaces, parentheses, plus and dash"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
