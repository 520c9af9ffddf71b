// MsHoa Learning | 2026
// dto.go

package course

import (
	"strings"
	"time"
)

type CreateCourseRequest struct {
	Title                   string `json:"title"                     validate:"required,min=1,max=255"`
	Description             string `json:"description"               validate:"max=5000"`
	ShortDescription        string `json:"short_description"         validate:"max=500"`
	Level                   string `json:"level"                     validate:"required,oneof=beginner elementary intermediate advanced"`
	RequiredTier            string `json:"required_tier"             validate:"required,oneof=free vip"`
	PriceVND                int64  `json:"price_vnd"                 validate:"min=0"`
	VIPPriceVND             *int64 `json:"vip_price_vnd"             validate:"omitempty,min=0"`
	CanPurchaseIndividually bool   `json:"can_purchase_individually"`
	ThumbnailURL            string `json:"thumbnail_url"             validate:"omitempty,url,max=2048"`
	IsFeatured              bool   `json:"is_featured"`
	OrderIndex              int    `json:"order_index"               validate:"min=0"`
}

type UpdateCourseRequest struct {
	Title                   *string `json:"title"                     validate:"omitempty,min=1,max=255"`
	Description             *string `json:"description"               validate:"omitempty,max=5000"`
	ShortDescription        *string `json:"short_description"         validate:"omitempty,max=500"`
	Level                   *string `json:"level"                     validate:"omitempty,oneof=beginner elementary intermediate advanced"`
	RequiredTier            *string `json:"required_tier"             validate:"omitempty,oneof=free vip"`
	PriceVND                *int64  `json:"price_vnd"                 validate:"omitempty,min=0"`
	VIPPriceVND             *int64  `json:"vip_price_vnd"             validate:"omitempty,min=0"`
	CanPurchaseIndividually *bool   `json:"can_purchase_individually"`
	ThumbnailURL            *string `json:"thumbnail_url"             validate:"omitempty,url,max=2048"`
	IsFeatured              *bool   `json:"is_featured"`
	IsActive                *bool   `json:"is_active"`
	OrderIndex              *int    `json:"order_index"               validate:"omitempty,min=0"`
}

type ListCoursesParams struct {
	Level    string
	Search   string
	Featured *bool
	Page     int
	PerPage  int
}

func (p *ListCoursesParams) Normalize() {
	p.Level = strings.TrimSpace(strings.ToLower(p.Level))
	p.Search = strings.TrimSpace(p.Search)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
}

func (p *ListCoursesParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// UserAccess is the caller-specific access summary attached to catalog
// responses for authenticated requests.
type UserAccess struct {
	HasAccess  bool    `json:"has_access"`
	AccessType string  `json:"access_type,omitempty"`
	Progress   float64 `json:"progress"`
}

type VideoSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	ThumbnailURL    *string `json:"thumbnail_url,omitempty"`
	DurationSeconds int     `json:"duration_seconds"`
	OrderIndex      int     `json:"order_index"`
	IsPreview       bool    `json:"is_preview"`
}

type CourseResponse struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	ShortDescription string           `json:"short_description"`
	Level            string           `json:"level"`
	RequiredTier     string           `json:"required_tier"`
	PriceVND         int64            `json:"price_vnd"`
	PriceLabel       string           `json:"price_label"`
	ThumbnailURL     *string          `json:"thumbnail_url,omitempty"`
	IsFeatured       bool             `json:"is_featured"`
	VideoCount       int              `json:"video_count"`
	PurchaseOptions  []PurchaseOption `json:"purchase_options"`
	UserAccess       *UserAccess      `json:"user_access,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

type CourseDetailResponse struct {
	CourseResponse
	Description string         `json:"description"`
	Videos      []VideoSummary `json:"videos"`
}

type CourseListResponse struct {
	Courses    []CourseResponse `json:"courses"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
}

type EnrolledCourseResponse struct {
	CourseResponse
	AccessType     string     `json:"access_type"`
	Progress       float64    `json:"progress"`
	PurchasedAt    time.Time  `json:"purchased_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}

func ToCourseResponse(c *Course) CourseResponse {
	return CourseResponse{
		ID:               c.ID,
		Title:            c.Title,
		ShortDescription: c.ShortDescription,
		Level:            c.Level,
		RequiredTier:     c.RequiredTier,
		PriceVND:         c.PriceVND,
		PriceLabel:       FormatVND(c.PriceVND),
		ThumbnailURL:     c.ThumbnailURL,
		IsFeatured:       c.IsFeatured,
		VideoCount:       c.VideoCount,
		PurchaseOptions:  c.PurchaseOptions(),
		CreatedAt:        c.CreatedAt,
	}
}
