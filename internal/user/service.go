// MsHoa Learning | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mshoa-learning/backend/internal/auth"
	"github.com/mshoa-learning/backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// WithTx returns a copy of the service whose writes run on the given
// transaction. A nil tx keeps the current store binding.
func (s *Service) WithTx(tx core.DBTX) *Service {
	if tx == nil {
		return s
	}
	return &Service{repo: NewRepository(tx)}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, fullName string,
	verificationTokenHash string,
) (*auth.UserInfo, error) {
	u := &User{
		ID:                    uuid.New().String(),
		Email:                 strings.ToLower(email),
		PasswordHash:          passwordHash,
		FullName:              fullName,
		MembershipTier:        TierFree,
		IsActive:              true,
		VerificationTokenHash: &verificationTokenHash,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) FindByVerificationToken(
	ctx context.Context,
	tokenHash string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByVerificationToken(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) FindByResetToken(
	ctx context.Context,
	tokenHash string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByResetToken(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) MarkVerified(ctx context.Context, userID string) error {
	return s.repo.SetVerified(ctx, userID)
}

func (s *Service) SetVerificationToken(
	ctx context.Context,
	userID, tokenHash string,
) error {
	return s.repo.SetVerificationToken(ctx, userID, &tokenHash)
}

func (s *Service) SetResetToken(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetResetToken(ctx, userID, tokenHash, expiresAt)
}

func (s *Service) ClearResetToken(ctx context.Context, userID string) error {
	return s.repo.ClearResetToken(ctx, userID)
}

func (s *Service) TouchLastLogin(ctx context.Context, userID string) error {
	return s.repo.TouchLastLogin(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) IsAccountActive(
	ctx context.Context,
	userID string,
) (bool, error) {
	return s.repo.IsActive(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.ProfileImageURL != nil {
		u.ProfileImageURL = req.ProfileImageURL
	}

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) DeactivateMe(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("deactivate me: %w", core.ErrUnauthorized)
	}

	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return err
	}

	return s.repo.IncrementTokenVersion(ctx, userID)
}

// GrantMembership extends the user's VIP membership by the given number
// of days. The base is whichever is later, now or the current expiry, so
// stacked purchases accumulate. An indefinite membership (vip with no
// expiry, admin-granted) is left untouched: settling a stale order must
// never collapse it to a dated one.
func (s *Service) GrantMembership(
	ctx context.Context,
	userID string,
	days int,
	now time.Time,
) (*time.Time, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.MembershipTier == TierVIP && u.MembershipExpiresAt == nil {
		return nil, nil
	}

	base := now
	if u.MembershipTier == TierVIP && u.MembershipExpiresAt != nil &&
		u.MembershipExpiresAt.After(now) {
		base = *u.MembershipExpiresAt
	}

	expiresAt := base.Add(time.Duration(days) * 24 * time.Hour)

	if err := s.repo.ExtendMembership(ctx, userID, TierVIP, &expiresAt); err != nil {
		return nil, err
	}

	return &expiresAt, nil
}

// RollbackMembership shortens the membership after a refund. The expiry
// moves back by the refunded duration, never below now for a membership
// that is still running.
func (s *Service) RollbackMembership(
	ctx context.Context,
	userID string,
	days int,
	now time.Time,
) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if u.MembershipTier != TierVIP || u.MembershipExpiresAt == nil {
		return nil
	}

	expiresAt := u.MembershipExpiresAt.Add(-time.Duration(days) * 24 * time.Hour)
	if expiresAt.Before(now) {
		expiresAt = now
	}

	return s.repo.ExtendMembership(ctx, userID, TierVIP, &expiresAt)
}

func (s *Service) SetMembership(
	ctx context.Context,
	userID, tier string,
	expiresAt *time.Time,
) error {
	if tier != TierFree && tier != TierVIP {
		return fmt.Errorf(
			"set membership: invalid tier %q: %w",
			tier,
			core.ErrInvalidInput,
		)
	}

	return s.repo.ExtendMembership(ctx, userID, tier, expiresAt)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                    u.ID,
		Email:                 u.Email,
		FullName:              u.FullName,
		PasswordHash:          u.PasswordHash,
		MembershipTier:        u.MembershipTier,
		MembershipExpiresAt:   u.MembershipExpiresAt,
		IsActive:              u.IsActive,
		EmailVerified:         u.EmailVerified,
		VerificationTokenHash: u.VerificationTokenHash,
		ResetTokenHash:        u.ResetTokenHash,
		ResetTokenExpiresAt:   u.ResetTokenExpiresAt,
		TokenVersion:          u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
