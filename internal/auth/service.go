// MsHoa Learning | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrAccountDisabled    = errors.New("account disabled")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	resetTokenTTL = time.Hour
)

// UserInfo is the account view the auth flows operate on. The user
// package maps its entity into this shape so the two packages stay
// decoupled at the type level.
type UserInfo struct {
	ID                    string
	Email                 string
	FullName              string
	PasswordHash          string
	MembershipTier        string
	MembershipExpiresAt   *time.Time
	IsActive              bool
	EmailVerified         bool
	VerificationTokenHash *string
	ResetTokenHash        *string
	ResetTokenExpiresAt   *time.Time
	TokenVersion          int
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, fullName string,
		verificationTokenHash string,
	) (*UserInfo, error)
	MarkVerified(ctx context.Context, userID string) error
	SetVerificationToken(ctx context.Context, userID, tokenHash string) error
	SetResetToken(
		ctx context.Context,
		userID, tokenHash string,
		expiresAt time.Time,
	) error
	ClearResetToken(ctx context.Context, userID string) error
	TouchLastLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, userID string) error
	FindByVerificationToken(
		ctx context.Context,
		tokenHash string,
	) (*UserInfo, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*UserInfo, error)
}

// Mailer sends the transactional mail the account flows produce.
// Implementations must be safe for concurrent use; callers dispatch
// asynchronously and only log failures unless noted otherwise.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, fullName, token string) error
	SendWelcomeEmail(ctx context.Context, to, fullName string) error
	SendPasswordResetEmail(
		ctx context.Context,
		to, fullName, token string,
	) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	mailer       Mailer
	redis        *redis.Client
	adminEmails  map[string]struct{}
	logger       *slog.Logger
}

// The gateway consults the service for early-revoked access tokens.
var _ middleware.TokenRevocations = (*Service)(nil)

func NewService(
	repo Repository,
	jwtManager *JWTManager,
	userProvider UserProvider,
	mailer Mailer,
	redisClient *redis.Client,
	adminCfg config.AdminConfig,
	logger *slog.Logger,
) *Service {
	adminEmails := make(map[string]struct{}, len(adminCfg.Emails))
	for _, email := range adminCfg.Emails {
		adminEmails[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}

	return &Service{
		repo:         repo,
		jwt:          jwtManager,
		userProvider: userProvider,
		mailer:       mailer,
		redis:        redisClient,
		adminEmails:  adminEmails,
		logger:       logger,
	}
}

// RoleFor resolves the role carried in access tokens. Admins are a
// configured email allow-list rather than a database column, so the
// role is computed at token issue time.
func (s *Service) RoleFor(email string) string {
	if _, ok := s.adminEmails[strings.ToLower(email)]; ok {
		return RoleAdmin
	}
	return RoleUser
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthUserResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := core.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	user, err := s.userProvider.Create(
		ctx,
		req.Email,
		passwordHash,
		req.FullName,
		core.HashToken(verificationToken),
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.mailer.SendVerificationEmail(
			ctx,
			user.Email,
			user.FullName,
			verificationToken,
		)
	}, "verification email", user.Email)

	resp := s.toAuthUserResponse(user)
	return &resp, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*LoginResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	//nolint:errcheck // last login is informational only
	_ = s.userProvider.TouchLastLogin(ctx, user.ID)

	return s.createLoginResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) VerifyEmail(
	ctx context.Context,
	token, userAgent, ipAddress string,
) (*LoginResponse, error) {
	user, err := s.findByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.userProvider.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	user.EmailVerified = true

	s.sendAsync(func(ctx context.Context) error {
		return s.mailer.SendWelcomeEmail(ctx, user.Email, user.FullName)
	}, "welcome email", user.Email)

	// Verification links land the user in a signed-in session.
	return s.createLoginResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) ResendVerification(
	ctx context.Context,
	email string,
) error {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Respond identically whether or not the account exists.
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	verificationToken, err := core.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	if err := s.userProvider.SetVerificationToken(
		ctx,
		user.ID,
		core.HashToken(verificationToken),
	); err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.mailer.SendVerificationEmail(
			ctx,
			user.Email,
			user.FullName,
			verificationToken,
		)
	}, "verification email", user.Email)

	return nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	resetToken, err := core.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.userProvider.SetResetToken(
		ctx,
		user.ID,
		core.HashToken(resetToken),
		time.Now().Add(resetTokenTTL),
	); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	// Reset mail is sent synchronously: the caller must know whether the
	// only recovery path actually went out.
	if err := s.mailer.SendPasswordResetEmail(
		ctx,
		user.Email,
		user.FullName,
		resetToken,
	); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	return nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) error {
	user, err := s.findByResetToken(ctx, token)
	if err != nil {
		return err
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.userProvider.ClearResetToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}

	if err := s.LogoutAll(ctx, user.ID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*LoginResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.createLoginResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
) error {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	key := "blacklist:" + jti
	ttl := time.Until(expiresAt)

	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	key := "blacklist:" + jti

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionResponse, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionResponse{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*AuthUserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := s.toAuthUserResponse(user)
	return &resp, nil
}

func (s *Service) findByVerificationToken(
	ctx context.Context,
	token string,
) (*UserInfo, error) {
	user, err := s.userProvider.FindByVerificationToken(
		ctx,
		core.HashToken(token),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify email: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find verification token: %w", err)
	}

	return user, nil
}

func (s *Service) findByResetToken(
	ctx context.Context,
	token string,
) (*UserInfo, error) {
	user, err := s.userProvider.FindByResetToken(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("reset password: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}

	if user.ResetTokenExpiresAt == nil ||
		time.Now().After(*user.ResetTokenExpiresAt) {
		return nil, fmt.Errorf("reset password: %w", core.ErrTokenExpired)
	}

	return user, nil
}

func (s *Service) createLoginResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*LoginResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:           user.ID,
		Role:             s.RoleFor(user.Email),
		Tier:             user.MembershipTier,
		MembershipExpiry: user.MembershipExpiresAt,
		TokenVersion:     user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	refreshTokenEntity := &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, refreshTokenEntity); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID)
	}

	return &LoginResponse{
		User: s.toAuthUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
		},
	}, nil
}

func (s *Service) toAuthUserResponse(user *UserInfo) AuthUserResponse {
	return AuthUserResponse{
		ID:                  user.ID,
		Email:               user.Email,
		FullName:            user.FullName,
		Role:                s.RoleFor(user.Email),
		MembershipTier:      user.MembershipTier,
		MembershipExpiresAt: user.MembershipExpiresAt,
		EmailVerified:       user.EmailVerified,
	}
}

func (s *Service) sendAsync(
	send func(ctx context.Context) error,
	kind, recipient string,
) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := send(ctx); err != nil {
			s.logger.Error("send email failed",
				"kind", kind,
				"recipient", recipient,
				"error", err,
			)
		}
	}()
}
