// MsHoa Learning | 2026
// service_test.go

package auth

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/core"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *token
	copied.CreatedAt = time.Now()
	f.tokens[token.ID] = &copied
	return nil
}

func (f *fakeTokenRepo) FindByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash {
			copied := *t
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeTokenRepo) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTokenRepo) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &replacedByID
	return nil
}

func (f *fakeTokenRepo) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (f *fakeTokenRepo) RevokeByFamilyID(_ context.Context, familyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) GetActiveSessionsForUser(_ context.Context, userID string) ([]RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sessions []RefreshToken
	for _, t := range f.tokens {
		if t.UserID == userID && t.IsValid() {
			sessions = append(sessions, *t)
		}
	}
	return sessions, nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*UserInfo
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*UserInfo)}
}

func (f *fakeUserStore) seed(u *UserInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) Create(
	_ context.Context,
	email, passwordHash, fullName, verificationTokenHash string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, core.ErrDuplicateKey
		}
	}
	f.nextID++
	u := &UserInfo{
		ID:                    "u" + strconv.Itoa(f.nextID),
		Email:                 email,
		FullName:              fullName,
		PasswordHash:          passwordHash,
		MembershipTier:        "free",
		IsActive:              true,
		VerificationTokenHash: &verificationTokenHash,
	}
	f.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) MarkVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationTokenHash = nil
	return nil
}

func (f *fakeUserStore) SetVerificationToken(_ context.Context, userID, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.VerificationTokenHash = &tokenHash
	return nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserStore) ClearResetToken(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeUserStore) TouchLastLogin(_ context.Context, _ string) error { return nil }

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) IncrementTokenVersion(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (f *fakeUserStore) FindByVerificationToken(_ context.Context, tokenHash string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.VerificationTokenHash != nil && *u.VerificationTokenHash == tokenHash {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUserStore) FindByResetToken(_ context.Context, tokenHash string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

type fakeMailer struct {
	mu     sync.Mutex
	resets []string
}

func (f *fakeMailer) SendVerificationEmail(_ context.Context, _, _, _ string) error {
	return nil
}

func (f *fakeMailer) SendWelcomeEmail(_ context.Context, _, _ string) error { return nil }

func (f *fakeMailer) SendPasswordResetEmail(_ context.Context, _, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, token)
	return nil
}

func (f *fakeMailer) lastResetToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resets) == 0 {
		return ""
	}
	return f.resets[len(f.resets)-1]
}

type authFixture struct {
	service *Service
	tokens  *fakeTokenRepo
	users   *fakeUserStore
	mailer  *fakeMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	tokens := newFakeTokenRepo()
	users := newFakeUserStore()
	mailer := &fakeMailer{}

	svc := NewService(
		tokens,
		newTestJWTManager(t, 15*time.Minute),
		users,
		mailer,
		nil,
		config.AdminConfig{Emails: []string{"hoa@mshoa.vn"}},
		slog.New(slog.DiscardHandler),
	)

	return &authFixture{service: svc, tokens: tokens, users: users, mailer: mailer}
}

func (fx *authFixture) seedVerifiedUser(t *testing.T, email, password string) *UserInfo {
	t.Helper()
	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	u := &UserInfo{
		ID:             "u-" + email,
		Email:          email,
		FullName:       "Test User",
		PasswordHash:   hash,
		MembershipTier: "free",
		IsActive:       true,
		EmailVerified:  true,
	}
	fx.users.seed(u)
	return u
}

func TestRegisterIssuesNoTokens(t *testing.T) {
	fx := newAuthFixture(t)

	resp, err := fx.service.Register(context.Background(), RegisterRequest{
		Email:    "lan@example.com",
		Password: "matkhau-an-toan",
		FullName: "Lan",
	})
	require.NoError(t, err)

	assert.Equal(t, "lan@example.com", resp.Email)
	assert.False(t, resp.EmailVerified)

	_, err = fx.service.Register(context.Background(), RegisterRequest{
		Email:    "lan@example.com",
		Password: "matkhau-an-toan",
		FullName: "Lan",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedVerifiedUser(t, "lan@example.com", "matkhau-an-toan")

	t.Run("success", func(t *testing.T) {
		resp, err := fx.service.Login(context.Background(), LoginRequest{
			Email:    "lan@example.com",
			Password: "matkhau-an-toan",
		}, "ua", "203.0.113.1")
		require.NoError(t, err)

		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		assert.Equal(t, "Bearer", resp.Tokens.TokenType)

		claims, err := fx.service.jwt.VerifyAccessToken(
			context.Background(), resp.Tokens.AccessToken,
		)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := fx.service.Login(context.Background(), LoginRequest{
			Email:    "lan@example.com",
			Password: "sai-mat-khau",
		}, "ua", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := fx.service.Login(context.Background(), LoginRequest{
			Email:    "nobody@example.com",
			Password: "matkhau-an-toan",
		}, "ua", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account", func(t *testing.T) {
		u := fx.seedVerifiedUser(t, "moi@example.com", "matkhau-an-toan")
		u.EmailVerified = false

		_, err := fx.service.Login(context.Background(), LoginRequest{
			Email:    "moi@example.com",
			Password: "matkhau-an-toan",
		}, "ua", "")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("disabled account", func(t *testing.T) {
		u := fx.seedVerifiedUser(t, "khoa@example.com", "matkhau-an-toan")
		u.IsActive = false

		_, err := fx.service.Login(context.Background(), LoginRequest{
			Email:    "khoa@example.com",
			Password: "matkhau-an-toan",
		}, "ua", "")
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestAdminRoleFromAllowList(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedVerifiedUser(t, "hoa@mshoa.vn", "matkhau-an-toan")

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "hoa@mshoa.vn",
		Password: "matkhau-an-toan",
	}, "ua", "")
	require.NoError(t, err)

	claims, err := fx.service.jwt.VerifyAccessToken(
		context.Background(), resp.Tokens.AccessToken,
	)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerifyEmailSignsUserIn(t *testing.T) {
	fx := newAuthFixture(t)

	token, err := core.GenerateSecureToken(32)
	require.NoError(t, err)
	tokenHash := core.HashToken(token)

	fx.users.seed(&UserInfo{
		ID:                    "u-verify",
		Email:                 "lan@example.com",
		FullName:              "Lan",
		MembershipTier:        "free",
		IsActive:              true,
		VerificationTokenHash: &tokenHash,
	})

	resp, err := fx.service.VerifyEmail(context.Background(), token, "ua", "")
	require.NoError(t, err)
	assert.True(t, resp.User.EmailVerified)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	stored, err := fx.users.GetByID(context.Background(), "u-verify")
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	_, err = fx.service.VerifyEmail(context.Background(), token, "ua", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "verification tokens are one-shot")
}

func TestRefreshRotationAndReuseDetection(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedVerifiedUser(t, "lan@example.com", "matkhau-an-toan")

	login, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "lan@example.com",
		Password: "matkhau-an-toan",
	}, "ua", "")
	require.NoError(t, err)
	firstRefresh := login.Tokens.RefreshToken

	rotated, err := fx.service.Refresh(context.Background(), firstRefresh, "ua", "")
	require.NoError(t, err)
	assert.NotEqual(t, firstRefresh, rotated.Tokens.RefreshToken)

	// Replaying the consumed token revokes the whole family.
	_, err = fx.service.Refresh(context.Background(), firstRefresh, "ua", "")
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = fx.service.Refresh(
		context.Background(), rotated.Tokens.RefreshToken, "ua", "",
	)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestPasswordResetFlow(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedVerifiedUser(t, "lan@example.com", "mat-khau-cu")

	require.NoError(t, fx.service.ForgotPassword(context.Background(), "lan@example.com"))
	resetToken := fx.mailer.lastResetToken()
	require.NotEmpty(t, resetToken)

	require.NoError(t, fx.service.ResetPassword(
		context.Background(), resetToken, "mat-khau-moi",
	))

	_, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "lan@example.com",
		Password: "mat-khau-cu",
	}, "ua", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fx.service.Login(context.Background(), LoginRequest{
		Email:    "lan@example.com",
		Password: "mat-khau-moi",
	}, "ua", "")
	assert.NoError(t, err)

	err = fx.service.ResetPassword(context.Background(), resetToken, "khac-nua")
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "reset tokens are cleared after use")
}

func TestForgotPasswordHidesUnknownAccounts(t *testing.T) {
	fx := newAuthFixture(t)

	require.NoError(t, fx.service.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, fx.mailer.lastResetToken())
}
