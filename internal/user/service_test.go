// MsHoa Learning | 2026
// service_test.go

package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/core"
)

type membershipRepo struct {
	u              *User
	extendCalls    int
	extendedTier   string
	extendedExpiry *time.Time
}

func (f *membershipRepo) Create(_ context.Context, _ *User) error { return nil }

func (f *membershipRepo) GetByID(_ context.Context, id string) (*User, error) {
	if f.u == nil || f.u.ID != id {
		return nil, core.ErrNotFound
	}
	copied := *f.u
	return &copied, nil
}

func (f *membershipRepo) GetByEmail(_ context.Context, _ string) (*User, error) {
	return nil, core.ErrNotFound
}

func (f *membershipRepo) GetByVerificationToken(_ context.Context, _ string) (*User, error) {
	return nil, core.ErrNotFound
}

func (f *membershipRepo) GetByResetToken(_ context.Context, _ string) (*User, error) {
	return nil, core.ErrNotFound
}

func (f *membershipRepo) UpdateProfile(_ context.Context, _ *User) error          { return nil }
func (f *membershipRepo) UpdatePassword(_ context.Context, _, _ string) error     { return nil }
func (f *membershipRepo) IncrementTokenVersion(_ context.Context, _ string) error { return nil }
func (f *membershipRepo) SetVerified(_ context.Context, _ string) error           { return nil }

func (f *membershipRepo) SetVerificationToken(_ context.Context, _ string, _ *string) error {
	return nil
}

func (f *membershipRepo) SetResetToken(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (f *membershipRepo) ClearResetToken(_ context.Context, _ string) error { return nil }
func (f *membershipRepo) TouchLastLogin(_ context.Context, _ string) error  { return nil }

func (f *membershipRepo) ExtendMembership(
	_ context.Context,
	_, tier string,
	expiresAt *time.Time,
) error {
	f.extendCalls++
	f.extendedTier = tier
	f.extendedExpiry = expiresAt
	return nil
}

func (f *membershipRepo) Deactivate(_ context.Context, _ string) error { return nil }

func (f *membershipRepo) IsActive(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *membershipRepo) List(_ context.Context, _ ListUsersParams) ([]User, int, error) {
	return nil, 0, nil
}

func TestGrantMembership(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("free user starts from now", func(t *testing.T) {
		repo := &membershipRepo{u: &User{ID: "u1", MembershipTier: TierFree}}
		svc := NewService(repo)

		expiry, err := svc.GrantMembership(context.Background(), "u1", 30, now)
		require.NoError(t, err)

		require.NotNil(t, expiry)
		assert.Equal(t, now.Add(30*24*time.Hour), *expiry)
		assert.Equal(t, TierVIP, repo.extendedTier)
	})

	t.Run("live membership stacks on current expiry", func(t *testing.T) {
		current := now.Add(10 * 24 * time.Hour)
		repo := &membershipRepo{u: &User{
			ID:                  "u1",
			MembershipTier:      TierVIP,
			MembershipExpiresAt: &current,
		}}
		svc := NewService(repo)

		expiry, err := svc.GrantMembership(context.Background(), "u1", 30, now)
		require.NoError(t, err)

		require.NotNil(t, expiry)
		assert.Equal(t, current.Add(30*24*time.Hour), *expiry)
	})

	t.Run("lapsed membership restarts from now", func(t *testing.T) {
		lapsed := now.Add(-24 * time.Hour)
		repo := &membershipRepo{u: &User{
			ID:                  "u1",
			MembershipTier:      TierVIP,
			MembershipExpiresAt: &lapsed,
		}}
		svc := NewService(repo)

		expiry, err := svc.GrantMembership(context.Background(), "u1", 30, now)
		require.NoError(t, err)

		require.NotNil(t, expiry)
		assert.Equal(t, now.Add(30*24*time.Hour), *expiry)
	})

	t.Run("indefinite membership is never dated", func(t *testing.T) {
		repo := &membershipRepo{u: &User{
			ID:             "u1",
			MembershipTier: TierVIP,
		}}
		svc := NewService(repo)

		expiry, err := svc.GrantMembership(context.Background(), "u1", 30, now)
		require.NoError(t, err)

		assert.Nil(t, expiry)
		assert.Zero(t, repo.extendCalls, "admin-granted VIP stays untouched")
	})
}

func TestRollbackMembership(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("moves expiry back by refunded days", func(t *testing.T) {
		current := now.Add(60 * 24 * time.Hour)
		repo := &membershipRepo{u: &User{
			ID:                  "u1",
			MembershipTier:      TierVIP,
			MembershipExpiresAt: &current,
		}}
		svc := NewService(repo)

		require.NoError(t, svc.RollbackMembership(context.Background(), "u1", 30, now))
		require.NotNil(t, repo.extendedExpiry)
		assert.Equal(t, current.Add(-30*24*time.Hour), *repo.extendedExpiry)
	})

	t.Run("floors at now", func(t *testing.T) {
		current := now.Add(5 * 24 * time.Hour)
		repo := &membershipRepo{u: &User{
			ID:                  "u1",
			MembershipTier:      TierVIP,
			MembershipExpiresAt: &current,
		}}
		svc := NewService(repo)

		require.NoError(t, svc.RollbackMembership(context.Background(), "u1", 30, now))
		require.NotNil(t, repo.extendedExpiry)
		assert.Equal(t, now, *repo.extendedExpiry)
	})

	t.Run("indefinite membership is a no-op", func(t *testing.T) {
		repo := &membershipRepo{u: &User{ID: "u1", MembershipTier: TierVIP}}
		svc := NewService(repo)

		require.NoError(t, svc.RollbackMembership(context.Background(), "u1", 30, now))
		assert.Zero(t, repo.extendCalls)
	})
}
