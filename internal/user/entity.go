// MsHoa Learning | 2026
// entity.go

package user

import (
	"time"
)

const (
	TierFree = "free"
	TierVIP  = "vip"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                    string     `db:"id"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	FullName              string     `db:"full_name"`
	MembershipTier        string     `db:"membership_tier"`
	MembershipExpiresAt   *time.Time `db:"membership_expires_at"`
	IsActive              bool       `db:"is_active"`
	EmailVerified         bool       `db:"email_verified"`
	VerificationTokenHash *string    `db:"verification_token_hash"`
	ResetTokenHash        *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt   *time.Time `db:"reset_token_expires_at"`
	LastLoginAt           *time.Time `db:"last_login_at"`
	ProfileImageURL       *string    `db:"profile_image_url"`
	TokenVersion          int        `db:"token_version"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// HasMembershipAccess reports whether the user's tier satisfies the
// required tier at the given instant. A lapsed VIP membership counts as
// free; the tier column is never rewritten on expiry.
func (u *User) HasMembershipAccess(requiredTier string, now time.Time) bool {
	if requiredTier == TierFree {
		return true
	}

	if u.MembershipTier != TierVIP {
		return false
	}

	return u.MembershipExpiresAt == nil || now.Before(*u.MembershipExpiresAt)
}

// IsVIP reports a live VIP membership at the given instant.
func (u *User) IsVIP(now time.Time) bool {
	return u.HasMembershipAccess(TierVIP, now)
}
