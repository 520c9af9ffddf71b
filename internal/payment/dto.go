// MsHoa Learning | 2026
// dto.go

package payment

import (
	"time"

	"github.com/mshoa-learning/backend/internal/course"
)

type CreateOrderRequest struct {
	PurchaseType string `json:"purchase_type" validate:"required,oneof=individual vip_membership"`
}

// WebhookNotification is the bank's settlement callback body.
type WebhookNotification struct {
	TransactionID   string `json:"transaction_id"   validate:"required,max=255"`
	BankReference   string `json:"bank_reference"   validate:"max=255"`
	TransferContent string `json:"transfer_content" validate:"required,max=255"`
	AmountVND       int64  `json:"amount_vnd"       validate:"required,min=1"`
	Success         bool   `json:"success"`
}

type PaymentResponse struct {
	ID             string     `json:"id"`
	CourseID       *string    `json:"course_id,omitempty"`
	CourseTitle    string     `json:"course_title,omitempty"`
	PaymentType    string     `json:"payment_type"`
	MembershipTier *string    `json:"membership_tier,omitempty"`
	AmountVND      int64      `json:"amount_vnd"`
	AmountLabel    string     `json:"amount_label"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"payment_method"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CanRefund      bool       `json:"can_refund"`
	CreatedAt      time.Time  `json:"created_at"`
}

type CreateOrderResponse struct {
	Payment PaymentResponse `json:"payment"`
	QR      QRPayload       `json:"qr"`
}

func toPaymentResponse(
	p *Payment,
	courseTitle string,
	refundWindow time.Duration,
	now time.Time,
) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		CourseID:       p.CourseID,
		CourseTitle:    courseTitle,
		PaymentType:    p.PaymentType,
		MembershipTier: p.MembershipTier,
		AmountVND:      p.AmountVND,
		AmountLabel:    course.FormatVND(p.AmountVND),
		Status:         p.Status,
		PaymentMethod:  p.PaymentMethod,
		PaymentDate:    p.PaymentDate,
		ExpiresAt:      p.ExpiresAt,
		CanRefund:      p.CanRefund(refundWindow, now),
		CreatedAt:      p.CreatedAt,
	}
}
