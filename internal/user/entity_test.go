// MsHoa Learning | 2026
// entity_test.go

package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasMembershipAccess(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name         string
		tier         string
		expiresAt    *time.Time
		requiredTier string
		want         bool
	}{
		{"free tier is always open", TierFree, nil, TierFree, true},
		{"vip user on free content", TierVIP, &future, TierFree, true},
		{"live vip membership", TierVIP, &future, TierVIP, true},
		{"vip without expiry never lapses", TierVIP, nil, TierVIP, true},
		{"lapsed vip membership", TierVIP, &past, TierVIP, false},
		{"expiry instant itself is lapsed", TierVIP, &now, TierVIP, false},
		{"free user on vip content", TierFree, nil, TierVIP, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{MembershipTier: tt.tier, MembershipExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, u.HasMembershipAccess(tt.requiredTier, now))
		})
	}
}

func TestIsVIP(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	assert.True(t, (&User{MembershipTier: TierVIP, MembershipExpiresAt: &future}).IsVIP(now))
	assert.False(t, (&User{MembershipTier: TierFree}).IsVIP(now))
}
