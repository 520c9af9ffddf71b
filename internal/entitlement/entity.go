// MsHoa Learning | 2026
// entity.go

package entitlement

import "time"

const (
	AccessTypePurchased     = "purchased"
	AccessTypeVIPMembership = "vip_membership"
	AccessTypeGift          = "gift"
	AccessTypeTrial         = "trial"
)

// UserCourse is one user's entitlement to one course. At most one
// active record exists per (user, course) pair, enforced by a partial
// unique index.
type UserCourse struct {
	ID                 string     `db:"id"`
	UserID             string     `db:"user_id"`
	CourseID           string     `db:"course_id"`
	PaymentID          *string    `db:"payment_id"`
	AccessType         string     `db:"access_type"`
	PurchasedAt        time.Time  `db:"purchased_at"`
	ExpiresAt          *time.Time `db:"expires_at"`
	ProgressPercentage float64    `db:"progress_percentage"`
	CompletionDate     *time.Time `db:"completion_date"`
	LastWatchedVideoID *string    `db:"last_watched_video_id"`
	IsActive           bool       `db:"is_active"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// IsLive reports whether the record grants access at the given instant.
func (uc *UserCourse) IsLive(now time.Time) bool {
	if !uc.IsActive {
		return false
	}
	if uc.ExpiresAt != nil && !now.Before(*uc.ExpiresAt) {
		return false
	}
	return true
}

// Access is the outcome of resolving a user against a course.
type Access struct {
	Granted    bool
	AccessType string
	Progress   float64
}
