// MsHoa Learning | 2026
// repository.go

package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mshoa-learning/backend/internal/core"
)

const videoColumns = `
	id, course_id, title, description, blob_key, video_url,
	thumbnail_url, duration_seconds, order_index, is_preview, is_active,
	created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, v *Video) error
	GetByID(ctx context.Context, id string) (*Video, error)
	ListByCourse(
		ctx context.Context,
		courseID string,
		previewOnly bool,
	) ([]Video, error)
	Update(ctx context.Context, v *Video) error
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, courseID string, videoIDs []string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (
			id, course_id, title, description, blob_key, video_url,
			thumbnail_url, duration_seconds, order_index, is_preview
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, v, query,
		v.ID,
		v.CourseID,
		v.Title,
		v.Description,
		v.BlobKey,
		v.VideoURL,
		v.ThumbnailURL,
		v.DurationSeconds,
		v.OrderIndex,
		v.IsPreview,
	)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE id = $1 AND is_active = true`

	var v Video
	err := r.db.GetContext(ctx, &v, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get video: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	return &v, nil
}

func (r *repository) ListByCourse(
	ctx context.Context,
	courseID string,
	previewOnly bool,
) ([]Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE course_id = $1 AND is_active = true
			AND ($2 = false OR is_preview = true)
		ORDER BY order_index ASC, created_at ASC`

	var videos []Video
	err := r.db.SelectContext(ctx, &videos, query, courseID, previewOnly)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	return videos, nil
}

func (r *repository) Update(ctx context.Context, v *Video) error {
	query := `
		UPDATE videos
		SET title = $2, description = $3, thumbnail_url = $4,
			duration_seconds = $5, order_index = $6, is_preview = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, v, query,
		v.ID,
		v.Title,
		v.Description,
		v.ThumbnailURL,
		v.DurationSeconds,
		v.OrderIndex,
		v.IsPreview,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update video: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM videos WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete video: %w", core.ErrNotFound)
	}

	return nil
}

// Reorder rewrites order_index to match the given sequence. Videos
// not listed keep their index.
func (r *repository) Reorder(
	ctx context.Context,
	courseID string,
	videoIDs []string,
) error {
	query := `
		UPDATE videos
		SET order_index = $3, updated_at = NOW()
		WHERE id = $1 AND course_id = $2`

	for i, id := range videoIDs {
		if _, err := r.db.ExecContext(ctx, query, id, courseID, i); err != nil {
			return fmt.Errorf("reorder videos: %w", err)
		}
	}

	return nil
}
