// MsHoa Learning | 2026
// resolver_test.go

package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/user"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	freeCourse := &course.Course{ID: "c-free", RequiredTier: course.TierFree}
	vipCourse := &course.Course{ID: "c-vip", RequiredTier: course.TierVIP}

	vipUser := &user.User{MembershipTier: user.TierVIP, MembershipExpiresAt: &future}
	lapsedVIP := &user.User{MembershipTier: user.TierVIP, MembershipExpiresAt: &past}
	freeUser := &user.User{MembershipTier: user.TierFree}

	tests := []struct {
		name string
		u    *user.User
		c    *course.Course
		rec  *UserCourse
		want Access
	}{
		{
			name: "anonymous free course",
			u:    nil,
			c:    freeCourse,
			want: Access{Granted: true},
		},
		{
			name: "anonymous vip course",
			u:    nil,
			c:    vipCourse,
			want: Access{},
		},
		{
			name: "free course keeps enrollment progress",
			u:    freeUser,
			c:    freeCourse,
			rec:  &UserCourse{AccessType: AccessTypeGift, ProgressPercentage: 40, IsActive: true},
			want: Access{Granted: true, AccessType: AccessTypeGift, Progress: 40},
		},
		{
			name: "live vip membership grants vip course",
			u:    vipUser,
			c:    vipCourse,
			want: Access{Granted: true, AccessType: AccessTypeVIPMembership},
		},
		{
			name: "membership wins over purchase record for access type",
			u:    vipUser,
			c:    vipCourse,
			rec:  &UserCourse{AccessType: AccessTypePurchased, ProgressPercentage: 75, IsActive: true},
			want: Access{Granted: true, AccessType: AccessTypeVIPMembership, Progress: 75},
		},
		{
			name: "lapsed membership falls back to purchase record",
			u:    lapsedVIP,
			c:    vipCourse,
			rec:  &UserCourse{AccessType: AccessTypePurchased, ProgressPercentage: 20, IsActive: true},
			want: Access{Granted: true, AccessType: AccessTypePurchased, Progress: 20},
		},
		{
			name: "lapsed membership without record denies",
			u:    lapsedVIP,
			c:    vipCourse,
			want: Access{},
		},
		{
			name: "free user with live purchase",
			u:    freeUser,
			c:    vipCourse,
			rec:  &UserCourse{AccessType: AccessTypePurchased, ProgressPercentage: 10, IsActive: true},
			want: Access{Granted: true, AccessType: AccessTypePurchased, Progress: 10},
		},
		{
			name: "inactive record denies",
			u:    freeUser,
			c:    vipCourse,
			rec:  &UserCourse{AccessType: AccessTypePurchased, IsActive: false},
			want: Access{},
		},
		{
			name: "expired trial denies",
			u:    freeUser,
			c:    vipCourse,
			rec:  &UserCourse{AccessType: AccessTypeTrial, IsActive: true, ExpiresAt: &past},
			want: Access{},
		},
		{
			name: "trial expiring in the future grants",
			u:    freeUser,
			c:    vipCourse,
			rec:  &UserCourse{AccessType: AccessTypeTrial, IsActive: true, ExpiresAt: &future},
			want: Access{Granted: true, AccessType: AccessTypeTrial},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.u, tt.c, tt.rec, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveVideo(t *testing.T) {
	granted := Access{Granted: true, AccessType: AccessTypePurchased}
	denied := Access{}

	assert.True(t, ResolveVideo(granted, false))
	assert.True(t, ResolveVideo(granted, true))
	assert.True(t, ResolveVideo(denied, true), "previews are always watchable")
	assert.False(t, ResolveVideo(denied, false))
}

func TestUserCourseIsLive(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	rec := &UserCourse{IsActive: true}
	assert.True(t, rec.IsLive(now), "active record without expiry never lapses")

	rec.ExpiresAt = &future
	assert.True(t, rec.IsLive(now))
	assert.False(t, rec.IsLive(future), "expiry boundary is exclusive")

	rec.IsActive = false
	assert.False(t, rec.IsLive(now))
}
