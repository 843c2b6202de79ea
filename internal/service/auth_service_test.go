package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wowcampus/auth-api/internal/models"
	"github.com/wowcampus/auth-api/internal/password"
	"github.com/wowcampus/auth-api/internal/token"
	appErrors "github.com/wowcampus/auth-api/pkg/errors"
)

type mockUserStore struct {
	findByEmailFn     func(ctx context.Context, email string) (*models.User, error)
	findByIDFn        func(ctx context.Context, id int64) (*models.User, error)
	createFn          func(ctx context.Context, user *models.User) error
	updateLastLoginFn func(ctx context.Context, id int64, ts time.Time) error
	lastLoginCalls    int
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserStore) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	m.lastLoginCalls++
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id, ts)
	}
	return nil
}

type mockRefreshStore struct {
	created      []*models.RefreshToken
	revoked      []string
	revokedUsers []int64
	findActiveFn func(ctx context.Context, hash string) (*models.RefreshToken, error)
	createErr    error
}

func (m *mockRefreshStore) Create(ctx context.Context, rt *models.RefreshToken) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, rt)
	return nil
}

func (m *mockRefreshStore) FindActive(ctx context.Context, hash string) (*models.RefreshToken, error) {
	if m.findActiveFn != nil {
		return m.findActiveFn(ctx, hash)
	}
	return nil, sql.ErrNoRows
}

func (m *mockRefreshStore) Revoke(ctx context.Context, hash string, at time.Time) error {
	m.revoked = append(m.revoked, hash)
	return nil
}

func (m *mockRefreshStore) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

type mockBlacklist struct {
	added       []*models.BlacklistedToken
	blacklisted map[string]bool
	addErr      error
}

func (m *mockBlacklist) Add(ctx context.Context, entry *models.BlacklistedToken) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, entry)
	return nil
}

func (m *mockBlacklist) IsBlacklisted(ctx context.Context, hash string) (bool, error) {
	return m.blacklisted[hash], nil
}

func newTestService(users *mockUserStore, refresh *mockRefreshStore, blacklist *mockBlacklist) *AuthService {
	return NewAuthService(users, refresh, blacklist, testCodec(), nil, nil, nil, nil)
}

func testCodec() *token.Codec {
	return token.NewCodec("test-secret-at-least-32-bytes-long!", "wowcampus-auth")
}

func approvedUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := password.Hash("correct horse")
	require.NoError(t, err)
	return &models.User{
		ID:           1,
		Email:        "ada@x.com",
		PasswordHash: hash,
		Role:         models.RoleJobseeker,
		Status:       models.StatusApproved,
		Name:         "Ada",
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return appErrors.FromError(err).Code
}

func TestRegisterIssuesSessionAndPersistsRefreshDigest(t *testing.T) {
	users := &mockUserStore{}
	refresh := &mockRefreshStore{}
	svc := newTestService(users, refresh, &mockBlacklist{})

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "Ada@X.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Ada",
		Role:            "jobseeker",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@x.com", res.User.Email)
	assert.Equal(t, models.StatusApproved, res.User.Status)
	assert.Equal(t, int64(token.AccessTokenTTL.Seconds()), res.ExpiresIn)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	require.Len(t, refresh.created, 1)
	record := refresh.created[0]
	assert.Equal(t, token.Digest(res.RefreshToken), record.TokenHash)
	assert.NotEqual(t, res.RefreshToken, record.TokenHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := &mockUserStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return approvedUser(t), nil
		},
	}
	svc := newTestService(users, &mockRefreshStore{}, &mockBlacklist{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "ada@x.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Ada",
		Role:            "jobseeker",
	})
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestRegisterReportsFirstViolatedRule(t *testing.T) {
	svc := newTestService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "ada@x.com",
		Password:        "secret123",
		ConfirmPassword: "different1",
		Name:            "Ada",
		Role:            "jobseeker",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "do not match")
}

func TestRegisterRejectsMalformedPhone(t *testing.T) {
	svc := newTestService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{})

	payload := registerRequestWithPhone("abc!DEF#ghi")
	_, err := svc.Register(context.Background(), payload)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "phone")
}

func TestRegisterAcceptsFormattedPhone(t *testing.T) {
	svc := newTestService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{})

	res, err := svc.Register(context.Background(), registerRequestWithPhone("+82 (10) 1234-5678"))
	require.NoError(t, err)
	require.NotNil(t, res.User.Phone)
	assert.Equal(t, "+82 (10) 1234-5678", *res.User.Phone)
}

func registerRequestWithPhone(phone string) models.RegisterRequest {
	return models.RegisterRequest{
		Email:           "ada@x.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Ada",
		Role:            "jobseeker",
		Phone:           phone,
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc := newTestService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "ada@x.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Ada",
		Role:            "admin",
	})
	assert.Equal(t, "VALIDATION_ERROR", errCode(t, err))
}

func TestLoginRevokesPreviousSessionsBeforeIssuingNew(t *testing.T) {
	user := approvedUser(t)
	users := &mockUserStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	refresh := &mockRefreshStore{}
	svc := newTestService(users, refresh, &mockBlacklist{})

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@x.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, refresh.revokedUsers)
	require.Len(t, refresh.created, 1)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, 1, users.lastLoginCalls)

	// Default session keeps the short refresh TTL.
	assert.WithinDuration(t, time.Now().Add(token.RefreshTokenTTL), refresh.created[0].ExpiresAt, time.Minute)
}

func TestLoginRememberMeExtendsRefreshTTL(t *testing.T) {
	user := approvedUser(t)
	users := &mockUserStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	refresh := &mockRefreshStore{}
	svc := newTestService(users, refresh, &mockBlacklist{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:      "ada@x.com",
		Password:   "correct horse",
		RememberMe: true,
	})
	require.NoError(t, err)
	require.Len(t, refresh.created, 1)
	assert.WithinDuration(t, time.Now().Add(token.RememberMeRefreshTTL), refresh.created[0].ExpiresAt, time.Minute)
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	user := approvedUser(t)
	users := &mockUserStore{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email == "ada@x.com" {
				return user, nil
			}
			return nil, sql.ErrNoRows
		},
	}
	svc := newTestService(users, &mockRefreshStore{}, &mockBlacklist{})

	_, errUnknown := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@x.com", Password: "whatever1"})
	_, errWrongPw := svc.Login(context.Background(), models.LoginRequest{Email: "ada@x.com", Password: "wrong password"})

	a, b := appErrors.FromError(errUnknown), appErrors.FromError(errWrongPw)
	assert.Equal(t, "INVALID_CREDENTIALS", a.Code)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.Status, b.Status)
}

func TestLoginReportsAccountStatus(t *testing.T) {
	cases := []struct {
		status models.UserStatus
		code   string
	}{
		{models.StatusPending, "ACCOUNT_PENDING"},
		{models.StatusSuspended, "ACCOUNT_SUSPENDED"},
		{models.StatusRejected, "ACCOUNT_REJECTED"},
		{models.UserStatus("archived"), "ACCOUNT_UNAVAILABLE"},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			user := approvedUser(t)
			user.Status = tc.status
			users := &mockUserStore{
				findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
					return user, nil
				},
			}
			refresh := &mockRefreshStore{}
			svc := newTestService(users, refresh, &mockBlacklist{})

			_, err := svc.Login(context.Background(), models.LoginRequest{
				Email:    "ada@x.com",
				Password: "correct horse",
			})
			assert.Equal(t, tc.code, errCode(t, err))
			assert.Empty(t, refresh.created)
		})
	}
}

func TestRefreshMintsNewAccessTokenWithoutRotation(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	loginAt := time.Now().Add(-time.Hour).UTC()
	refreshToken, expiry, err := codec.MintRefresh(user, false, loginAt)
	require.NoError(t, err)

	users := &mockUserStore{
		findByIDFn: func(ctx context.Context, id int64) (*models.User, error) {
			return user, nil
		},
	}
	refresh := &mockRefreshStore{
		findActiveFn: func(ctx context.Context, hash string) (*models.RefreshToken, error) {
			require.Equal(t, token.Digest(refreshToken), hash)
			return &models.RefreshToken{ID: "rt1", UserID: user.ID, TokenHash: hash, ExpiresAt: expiry}, nil
		},
	}
	svc := NewAuthService(users, refresh, &mockBlacklist{}, codec, nil, nil, nil, nil)

	res, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	assert.Equal(t, int64(token.AccessTokenTTL.Seconds()), res.ExpiresIn)

	// No rotation: no new refresh record, nothing revoked.
	assert.Empty(t, refresh.created)
	assert.Empty(t, refresh.revoked)

	claims, err := codec.DecodeAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, loginAt.Unix(), claims.OriginalLoginAt)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	accessToken, _, err := codec.MintAccess(user, time.Now())
	require.NoError(t, err)

	svc := NewAuthService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{}, codec, nil, nil, nil, nil)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: accessToken})
	assert.Equal(t, "WRONG_TOKEN_TYPE", errCode(t, err))
}

func TestRefreshCollapsesFailureModes(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	validToken, _, err := codec.MintRefresh(user, false, time.Now())
	require.NoError(t, err)
	forged, _, err := token.NewCodec("another-secret-entirely-here!!!!", "wowcampus-auth").MintRefresh(user, false, time.Now())
	require.NoError(t, err)

	svc := NewAuthService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{}, codec, nil, nil, nil, nil)

	// Unknown digest, forged signature and garbage all yield the same
	// rejection; a revoked token is just an unknown digest here too.
	for _, tokenString := range []string{validToken, forged, "not-a-token"} {
		_, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tokenString})
		assert.Equal(t, "REFRESH_INVALID", errCode(t, err))
	}
}

func TestRefreshMissingToken(t *testing.T) {
	svc := newTestService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{})
	_, err := svc.Refresh(context.Background(), models.RefreshRequest{})
	assert.Equal(t, "REFRESH_MISSING", errCode(t, err))
}

func TestRefreshRejectsUnavailableUser(t *testing.T) {
	user := approvedUser(t)
	user.Status = models.StatusSuspended
	codec := testCodec()
	refreshToken, expiry, err := codec.MintRefresh(user, false, time.Now())
	require.NoError(t, err)

	users := &mockUserStore{
		findByIDFn: func(ctx context.Context, id int64) (*models.User, error) {
			return user, nil
		},
	}
	refresh := &mockRefreshStore{
		findActiveFn: func(ctx context.Context, hash string) (*models.RefreshToken, error) {
			return &models.RefreshToken{ID: "rt1", UserID: user.ID, TokenHash: hash, ExpiresAt: expiry}, nil
		},
	}
	svc := NewAuthService(users, refresh, &mockBlacklist{}, codec, nil, nil, nil, nil)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: refreshToken})
	assert.Equal(t, "USER_UNAVAILABLE", errCode(t, err))
}

func TestLogoutBlacklistsAccessAndRevokesRefresh(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	accessToken, _, err := codec.MintAccess(user, time.Now())
	require.NoError(t, err)
	refreshToken, expiry, err := codec.MintRefresh(user, false, time.Now())
	require.NoError(t, err)

	refresh := &mockRefreshStore{
		findActiveFn: func(ctx context.Context, hash string) (*models.RefreshToken, error) {
			return &models.RefreshToken{ID: "rt1", UserID: user.ID, TokenHash: hash, ExpiresAt: expiry}, nil
		},
	}
	blacklist := &mockBlacklist{}
	svc := NewAuthService(&mockUserStore{}, refresh, blacklist, codec, nil, nil, nil, nil)

	svc.Logout(context.Background(), models.LogoutRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})

	require.Len(t, blacklist.added, 1)
	assert.Equal(t, token.Digest(accessToken), blacklist.added[0].TokenHash)
	assert.Equal(t, models.BlacklistReasonLogout, blacklist.added[0].Reason)
	assert.Equal(t, []string{token.Digest(refreshToken)}, refresh.revoked)
}

func TestLogoutNeverFails(t *testing.T) {
	refresh := &mockRefreshStore{}
	blacklist := &mockBlacklist{addErr: assert.AnError}
	svc := newTestService(&mockUserStore{}, refresh, blacklist)

	// Garbage tokens, store failures, empty request: none of it
	// escapes Logout.
	svc.Logout(context.Background(), models.LogoutRequest{})
	svc.Logout(context.Background(), models.LogoutRequest{AccessToken: "garbage", RefreshToken: "garbage"})

	assert.Empty(t, blacklist.added)
	assert.Empty(t, refresh.revoked)
}

func TestRevokeUserSessions(t *testing.T) {
	user := approvedUser(t)
	users := &mockUserStore{
		findByIDFn: func(ctx context.Context, id int64) (*models.User, error) {
			return user, nil
		},
	}
	refresh := &mockRefreshStore{}
	svc := newTestService(users, refresh, &mockBlacklist{})

	err := svc.RevokeUserSessions(context.Background(), user.ID, "127.0.0.1", "cli")
	require.NoError(t, err)
	assert.Equal(t, []int64{user.ID}, refresh.revokedUsers)
}

func TestRevokeUserSessionsUnknownUser(t *testing.T) {
	refresh := &mockRefreshStore{}
	svc := newTestService(&mockUserStore{}, refresh, &mockBlacklist{})

	err := svc.RevokeUserSessions(context.Background(), 99, "127.0.0.1", "cli")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
	assert.Empty(t, refresh.revokedUsers)
}

func TestValidateAccessTokenRejectsBlacklisted(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	accessToken, _, err := codec.MintAccess(user, time.Now())
	require.NoError(t, err)

	blacklist := &mockBlacklist{blacklisted: map[string]bool{token.Digest(accessToken): true}}
	svc := NewAuthService(&mockUserStore{}, &mockRefreshStore{}, blacklist, codec, nil, nil, nil, nil)

	_, err = svc.ValidateAccessToken(context.Background(), accessToken)
	assert.Equal(t, "TOKEN_INVALID", errCode(t, err))
}

func TestValidateAccessTokenAcceptsLiveToken(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	accessToken, _, err := codec.MintAccess(user, time.Now())
	require.NoError(t, err)

	svc := NewAuthService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{}, codec, nil, nil, nil, nil)

	claims, err := svc.ValidateAccessToken(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)
}

func TestValidateAccessTokenRejectsRefreshToken(t *testing.T) {
	user := approvedUser(t)
	codec := testCodec()
	refreshToken, _, err := codec.MintRefresh(user, false, time.Now())
	require.NoError(t, err)

	svc := NewAuthService(&mockUserStore{}, &mockRefreshStore{}, &mockBlacklist{}, codec, nil, nil, nil, nil)

	_, err = svc.ValidateAccessToken(context.Background(), refreshToken)
	assert.Equal(t, "WRONG_TOKEN_TYPE", errCode(t, err))
}
