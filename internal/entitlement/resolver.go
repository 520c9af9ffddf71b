// MsHoa Learning | 2026
// resolver.go

package entitlement

import (
	"time"

	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/user"
)

// Resolve decides course access from plain values. u is nil for
// anonymous callers, rec is nil when no entitlement record exists.
//
// Precedence: free tier grants everyone; a live VIP membership grants
// VIP courses regardless of purchase records; otherwise a live record
// grants with its own access type. A lapsed membership behaves exactly
// like the free tier, no state is written back.
func Resolve(
	u *user.User,
	c *course.Course,
	rec *UserCourse,
	now time.Time,
) Access {
	if c.IsFreeTier() {
		access := Access{Granted: true}
		if rec != nil {
			access.AccessType = rec.AccessType
			access.Progress = rec.ProgressPercentage
		}
		return access
	}

	if u != nil && u.HasMembershipAccess(c.RequiredTier, now) {
		access := Access{
			Granted:    true,
			AccessType: AccessTypeVIPMembership,
		}
		if rec != nil {
			access.Progress = rec.ProgressPercentage
		}
		return access
	}

	if rec != nil && rec.IsLive(now) {
		return Access{
			Granted:    true,
			AccessType: rec.AccessType,
			Progress:   rec.ProgressPercentage,
		}
	}

	return Access{}
}

// ResolveVideo layers the video rule on top of course access: previews
// are always readable, everything else requires the course grant.
func ResolveVideo(courseAccess Access, isPreview bool) bool {
	return isPreview || courseAccess.Granted
}
