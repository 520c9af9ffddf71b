// MsHoa Learning | 2026
// dto.go

package video

import "time"

type UploadVideoRequest struct {
	Title           string `validate:"required,min=1,max=255"`
	Description     string `validate:"max=5000"`
	DurationSeconds int    `validate:"min=0"`
	OrderIndex      int    `validate:"min=0"`
	IsPreview       bool
}

type UpdateVideoRequest struct {
	Title           *string `json:"title"            validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description"      validate:"omitempty,max=5000"`
	ThumbnailURL    *string `json:"thumbnail_url"    validate:"omitempty,url,max=2048"`
	DurationSeconds *int    `json:"duration_seconds" validate:"omitempty,min=0"`
	OrderIndex      *int    `json:"order_index"      validate:"omitempty,min=0"`
	IsPreview       *bool   `json:"is_preview"`
}

type ReorderVideosRequest struct {
	VideoIDs []string `json:"video_ids" validate:"required,min=1,dive,uuid"`
}

type VideoResponse struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ThumbnailURL    *string   `json:"thumbnail_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	OrderIndex      int       `json:"order_index"`
	IsPreview       bool      `json:"is_preview"`
	CreatedAt       time.Time `json:"created_at"`
}

type StreamResponse struct {
	VideoID   string     `json:"video_id"`
	StreamURL string     `json:"stream_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func toVideoResponse(v *Video) VideoResponse {
	return VideoResponse{
		ID:              v.ID,
		CourseID:        v.CourseID,
		Title:           v.Title,
		Description:     v.Description,
		ThumbnailURL:    v.ThumbnailURL,
		DurationSeconds: v.DurationSeconds,
		OrderIndex:      v.OrderIndex,
		IsPreview:       v.IsPreview,
		CreatedAt:       v.CreatedAt,
	}
}
