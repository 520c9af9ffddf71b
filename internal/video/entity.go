// MsHoa Learning | 2026
// entity.go

package video

import "time"

type Video struct {
	ID              string    `db:"id"`
	CourseID        string    `db:"course_id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	BlobKey         string    `db:"blob_key"`
	VideoURL        string    `db:"video_url"`
	ThumbnailURL    *string   `db:"thumbnail_url"`
	DurationSeconds int       `db:"duration_seconds"`
	OrderIndex      int       `db:"order_index"`
	IsPreview       bool      `db:"is_preview"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
