// MsHoa Learning | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mshoa-learning/backend/internal/core"
)

const paymentColumns = `
	id, user_id, course_id, payment_type, membership_tier, amount_vnd,
	status, payment_method, qr_code_data, transaction_id, bank_reference,
	payment_date, expires_at, notes, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	ListForUser(ctx context.Context, userID string) ([]PaymentRecord, error)
	List(
		ctx context.Context,
		status string,
		limit, offset int,
	) ([]PaymentRecord, int, error)
	HasPendingOrder(
		ctx context.Context,
		userID string,
		courseID *string,
		paymentType string,
	) (bool, error)
	Settle(
		ctx context.Context,
		id, status string,
		transactionID, bankReference *string,
		now time.Time,
	) (*Payment, error)
	MarkRefunded(ctx context.Context, id string) (*Payment, error)
}

// PaymentRecord joins the ledger row with the course title for
// history listings.
type PaymentRecord struct {
	Payment
	CourseTitle *string `db:"course_title"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, course_id, payment_type, membership_tier,
			amount_vnd, status, payment_method, qr_code_data, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.UserID,
		p.CourseID,
		p.PaymentType,
		p.MembershipTier,
		p.AmountVND,
		p.Status,
		p.PaymentMethod,
		p.QRCodeData,
		p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p Payment
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return &p, nil
}

func (r *repository) ListForUser(
	ctx context.Context,
	userID string,
) ([]PaymentRecord, error) {
	query := `
		SELECT p.id, p.user_id, p.course_id, p.payment_type,
			p.membership_tier, p.amount_vnd, p.status, p.payment_method,
			p.qr_code_data, p.transaction_id, p.bank_reference,
			p.payment_date, p.expires_at, p.notes, p.created_at,
			p.updated_at,
			c.title AS course_title
		FROM payments p
		LEFT JOIN courses c ON c.id = p.course_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`

	var records []PaymentRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return records, nil
}

func (r *repository) List(
	ctx context.Context,
	status string,
	limit, offset int,
) ([]PaymentRecord, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM payments
		WHERE ($1 = '' OR status = $1)`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, status); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := `
		SELECT p.id, p.user_id, p.course_id, p.payment_type,
			p.membership_tier, p.amount_vnd, p.status, p.payment_method,
			p.qr_code_data, p.transaction_id, p.bank_reference,
			p.payment_date, p.expires_at, p.notes, p.created_at,
			p.updated_at,
			c.title AS course_title
		FROM payments p
		LEFT JOIN courses c ON c.id = p.course_id
		WHERE ($1 = '' OR p.status = $1)
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`

	var records []PaymentRecord
	err := r.db.SelectContext(ctx, &records, query, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	return records, total, nil
}

func (r *repository) HasPendingOrder(
	ctx context.Context,
	userID string,
	courseID *string,
	paymentType string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE user_id = $1
				AND payment_type = $2
				AND ($3::uuid IS NULL OR course_id = $3)
				AND status = 'pending'
				AND expires_at > NOW()
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, paymentType, courseID)
	if err != nil {
		return false, fmt.Errorf("check pending order: %w", err)
	}

	return exists, nil
}

// Settle moves a live pending order to its terminal state. The status
// guard in the WHERE clause makes duplicate webhook deliveries, late
// deliveries for expired orders, and concurrent settlements all land
// on zero rows, reported as ErrConflict.
func (r *repository) Settle(
	ctx context.Context,
	id, status string,
	transactionID, bankReference *string,
	now time.Time,
) (*Payment, error) {
	query := `
		UPDATE payments
		SET status = $2, transaction_id = $3, bank_reference = $4,
			payment_date = CASE WHEN $2 = 'completed' THEN $5
				ELSE payment_date END,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND expires_at > $5
		RETURNING ` + paymentColumns

	var p Payment
	err := r.db.GetContext(
		ctx, &p, query,
		id, status, transactionID, bankReference, now,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settle payment: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}

	return &p, nil
}

func (r *repository) MarkRefunded(
	ctx context.Context,
	id string,
) (*Payment, error) {
	query := `
		UPDATE payments
		SET status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status = 'completed'
		RETURNING ` + paymentColumns

	var p Payment
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("refund payment: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	return &p, nil
}
