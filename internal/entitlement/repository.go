// MsHoa Learning | 2026
// repository.go

package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mshoa-learning/backend/internal/core"
)

const userCourseColumns = `
	id, user_id, course_id, payment_id, access_type, purchased_at,
	expires_at, progress_percentage, completion_date,
	last_watched_video_id, is_active, created_at, updated_at`

type Repository interface {
	Insert(ctx context.Context, rec *UserCourse) error
	GetActive(ctx context.Context, userID, courseID string) (*UserCourse, error)
	Reactivate(
		ctx context.Context,
		userID, courseID, accessType string,
		paymentID *string,
		expiresAt *time.Time,
	) (*UserCourse, error)
	Deactivate(ctx context.Context, userID, courseID string) error
	DeactivateByPaymentID(ctx context.Context, paymentID string) error
	UpdateProgress(
		ctx context.Context,
		userID, courseID string,
		progress float64,
		lastVideoID *string,
		completionDate *time.Time,
	) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, rec *UserCourse) error {
	query := `
		INSERT INTO user_courses (
			id, user_id, course_id, payment_id, access_type,
			purchased_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, rec, query,
		rec.ID,
		rec.UserID,
		rec.CourseID,
		rec.PaymentID,
		rec.AccessType,
		rec.PurchasedAt,
		rec.ExpiresAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("insert entitlement: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("insert entitlement: %w", err)
	}

	return nil
}

func (r *repository) GetActive(
	ctx context.Context,
	userID, courseID string,
) (*UserCourse, error) {
	query := `SELECT ` + userCourseColumns + ` FROM user_courses
		WHERE user_id = $1 AND course_id = $2 AND is_active = true`

	var rec UserCourse
	err := r.db.GetContext(ctx, &rec, query, userID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entitlement: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entitlement: %w", err)
	}

	return &rec, nil
}

// Reactivate flips the most recent inactive record back on with fresh
// grant details. Used when a revoked or expired enrollment is bought
// again, keeping the partial unique index satisfied.
func (r *repository) Reactivate(
	ctx context.Context,
	userID, courseID, accessType string,
	paymentID *string,
	expiresAt *time.Time,
) (*UserCourse, error) {
	query := `
		UPDATE user_courses
		SET is_active = true, access_type = $3, payment_id = $4,
			purchased_at = NOW(), expires_at = $5, updated_at = NOW()
		WHERE id = (
			SELECT id FROM user_courses
			WHERE user_id = $1 AND course_id = $2 AND is_active = false
			ORDER BY updated_at DESC
			LIMIT 1
		)
		RETURNING ` + userCourseColumns

	var rec UserCourse
	err := r.db.GetContext(
		ctx, &rec, query,
		userID, courseID, accessType, paymentID, expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reactivate entitlement: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reactivate entitlement: %w", err)
	}

	return &rec, nil
}

func (r *repository) Deactivate(
	ctx context.Context,
	userID, courseID string,
) error {
	query := `
		UPDATE user_courses
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1 AND course_id = $2 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query, userID, courseID)
	if err != nil {
		return fmt.Errorf("deactivate entitlement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate entitlement: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deactivate entitlement: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeactivateByPaymentID(
	ctx context.Context,
	paymentID string,
) error {
	query := `
		UPDATE user_courses
		SET is_active = false, updated_at = NOW()
		WHERE payment_id = $1 AND is_active = true`

	if _, err := r.db.ExecContext(ctx, query, paymentID); err != nil {
		return fmt.Errorf("deactivate entitlement by payment: %w", err)
	}

	return nil
}

func (r *repository) UpdateProgress(
	ctx context.Context,
	userID, courseID string,
	progress float64,
	lastVideoID *string,
	completionDate *time.Time,
) error {
	query := `
		UPDATE user_courses
		SET progress_percentage = $3,
			last_watched_video_id = COALESCE($4, last_watched_video_id),
			completion_date = COALESCE(completion_date, $5),
			updated_at = NOW()
		WHERE user_id = $1 AND course_id = $2 AND is_active = true`

	result, err := r.db.ExecContext(
		ctx, query,
		userID, courseID, progress, lastVideoID, completionDate,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update progress: %w", core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
