// MsHoa Learning | 2026
// dto.go

package user

import (
	"time"
)

type UpdateProfileRequest struct {
	FullName        *string `json:"full_name,omitempty"         validate:"omitempty,min=2,max=100"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitempty,url,max=500"`
}

type UserResponse struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FullName            string     `json:"full_name"`
	MembershipTier      string     `json:"membership_tier"`
	MembershipExpiresAt *time.Time `json:"membership_expires_at,omitempty"`
	EmailVerified       bool       `json:"email_verified"`
	ProfileImageURL     *string    `json:"profile_image_url,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Tier     string `json:"tier"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Email:               u.Email,
		FullName:            u.FullName,
		MembershipTier:      u.MembershipTier,
		MembershipExpiresAt: u.MembershipExpiresAt,
		EmailVerified:       u.EmailVerified,
		ProfileImageURL:     u.ProfileImageURL,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
