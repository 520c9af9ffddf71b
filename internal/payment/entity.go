// MsHoa Learning | 2026
// entity.go

package payment

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"

	TypeCourse     = "course"
	TypeMembership = "membership"

	MethodVietQR       = "vietqr"
	MethodBankTransfer = "bank_transfer"
	MethodCash         = "cash"
)

type Payment struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	CourseID       *string    `db:"course_id"`
	PaymentType    string     `db:"payment_type"`
	MembershipTier *string    `db:"membership_tier"`
	AmountVND      int64      `db:"amount_vnd"`
	Status         string     `db:"status"`
	PaymentMethod  string     `db:"payment_method"`
	QRCodeData     *string    `db:"qr_code_data"`
	TransactionID  *string    `db:"transaction_id"`
	BankReference  *string    `db:"bank_reference"`
	PaymentDate    *time.Time `db:"payment_date"`
	ExpiresAt      *time.Time `db:"expires_at"`
	Notes          *string    `db:"notes"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// IsExpired reports whether a pending order can no longer be settled.
func (p *Payment) IsExpired(now time.Time) bool {
	return p.Status == StatusPending &&
		p.ExpiresAt != nil &&
		!now.Before(*p.ExpiresAt)
}

// CanRefund reports whether the payment is refundable at the given
// instant: completed, and within the refund window of payment_date.
func (p *Payment) CanRefund(window time.Duration, now time.Time) bool {
	if p.Status != StatusCompleted || p.PaymentDate == nil {
		return false
	}
	return now.Sub(*p.PaymentDate) <= window
}
