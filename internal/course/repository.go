// MsHoa Learning | 2026
// repository.go

package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mshoa-learning/backend/internal/core"
)

const courseColumns = `
	id, title, description, short_description, level, required_tier,
	price_vnd, vip_price_vnd, can_purchase_individually, thumbnail_url,
	is_featured, is_active, order_index, video_count, created_at,
	updated_at`

type Repository interface {
	Create(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	GetActiveByID(ctx context.Context, id string) (*Course, error)
	Update(ctx context.Context, course *Course) error
	Deactivate(ctx context.Context, id string) error
	List(
		ctx context.Context,
		params ListCoursesParams,
		activeOnly bool,
	) ([]Course, int, error)
	ListEnrolled(ctx context.Context, userID string) ([]EnrolledCourse, error)
	AdjustVideoCount(ctx context.Context, id string, delta int) error
}

// EnrolledCourse pairs a course with the caller's entitlement record
// for the my-courses listing.
type EnrolledCourse struct {
	Course
	AccessType     string     `db:"access_type"`
	Progress       float64    `db:"progress_percentage"`
	PurchasedAt    time.Time  `db:"purchased_at"`
	AccessExpires  *time.Time `db:"access_expires_at"`
	CompletionDate *time.Time `db:"completion_date"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, course *Course) error {
	query := `
		INSERT INTO courses (
			id, title, description, short_description, level, required_tier,
			price_vnd, vip_price_vnd, can_purchase_individually,
			thumbnail_url, is_featured, order_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, course, query,
		course.ID,
		course.Title,
		course.Description,
		course.ShortDescription,
		course.Level,
		course.RequiredTier,
		course.PriceVND,
		course.VIPPriceVND,
		course.CanPurchaseIndividually,
		course.ThumbnailURL,
		course.IsFeatured,
		course.OrderIndex,
	)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	var c Course
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get course: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}

	return &c, nil
}

func (r *repository) GetActiveByID(
	ctx context.Context,
	id string,
) (*Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses
		WHERE id = $1 AND is_active = true`

	var c Course
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get active course: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active course: %w", err)
	}

	return &c, nil
}

func (r *repository) Update(ctx context.Context, course *Course) error {
	query := `
		UPDATE courses
		SET title = $2, description = $3, short_description = $4,
			level = $5, required_tier = $6, price_vnd = $7,
			vip_price_vnd = $8, can_purchase_individually = $9,
			thumbnail_url = $10, is_featured = $11, is_active = $12,
			order_index = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, course, query,
		course.ID,
		course.Title,
		course.Description,
		course.ShortDescription,
		course.Level,
		course.RequiredTier,
		course.PriceVND,
		course.VIPPriceVND,
		course.CanPurchaseIndividually,
		course.ThumbnailURL,
		course.IsFeatured,
		course.IsActive,
		course.OrderIndex,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update course: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE courses
		SET is_active = false, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate course: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate course: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deactivate course: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListCoursesParams,
	activeOnly bool,
) ([]Course, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if activeOnly {
		conditions = append(conditions, "is_active = true")
	}

	if params.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", argIdx))
		args = append(args, params.Level)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Featured != nil {
		conditions = append(
			conditions,
			fmt.Sprintf("is_featured = $%d", argIdx),
		)
		args = append(args, *params.Featured)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM courses WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+courseColumns+`
		FROM courses
		WHERE %s
		ORDER BY order_index ASC, created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PerPage, params.Offset())

	var courses []Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	return courses, total, nil
}

func (r *repository) ListEnrolled(
	ctx context.Context,
	userID string,
) ([]EnrolledCourse, error) {
	query := `
		SELECT c.id, c.title, c.description, c.short_description, c.level,
			c.required_tier, c.price_vnd, c.vip_price_vnd,
			c.can_purchase_individually, c.thumbnail_url, c.is_featured,
			c.is_active, c.order_index, c.video_count, c.created_at,
			c.updated_at,
			uc.access_type, uc.progress_percentage, uc.purchased_at,
			uc.expires_at AS access_expires_at, uc.completion_date
		FROM user_courses uc
		JOIN courses c ON c.id = uc.course_id
		WHERE uc.user_id = $1
			AND uc.is_active = true
			AND (uc.expires_at IS NULL OR uc.expires_at > NOW())
			AND c.is_active = true
		ORDER BY uc.purchased_at DESC`

	var enrolled []EnrolledCourse
	if err := r.db.SelectContext(ctx, &enrolled, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}

	return enrolled, nil
}

func (r *repository) AdjustVideoCount(
	ctx context.Context,
	id string,
	delta int,
) error {
	query := `
		UPDATE courses
		SET video_count = GREATEST(video_count + $2, 0), updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("adjust video count: %w", err)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
