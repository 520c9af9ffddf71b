// MsHoa Learning | 2026
// service.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/entitlement"
	"github.com/mshoa-learning/backend/internal/user"
)

var (
	ErrAlreadyOwned     = errors.New("course already owned")
	ErrPendingExists    = errors.New("pending order already exists")
	ErrNotPurchasable   = errors.New("course not purchasable this way")
	ErrOrderExpired     = errors.New("payment order expired")
	ErrNotRefundable    = errors.New("payment not refundable")
	ErrAmountMismatch   = errors.New("amount does not match order")
	ErrUnknownReference = errors.New("unknown transfer reference")
)

// ReceiptMailer sends the post-settlement receipt.
type ReceiptMailer interface {
	SendReceiptEmail(
		ctx context.Context,
		to, fullName string,
		payment *Payment,
		courseTitle string,
	) error
}

type Service struct {
	repo         Repository
	courses      *course.Service
	entitlements *entitlement.Service
	users        *user.Service
	mailer       ReceiptMailer
	cfg          config.PaymentConfig
	logger       *slog.Logger

	// repoFor and inTx bind settlement to the database; tests swap
	// them to run the settle path against in-memory stores.
	repoFor func(core.DBTX) Repository
	inTx    func(ctx context.Context, fn func(tx core.DBTX) error) error
}

func NewService(
	db *sqlx.DB,
	repo Repository,
	courses *course.Service,
	entitlements *entitlement.Service,
	users *user.Service,
	mailer ReceiptMailer,
	cfg config.PaymentConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		courses:      courses,
		entitlements: entitlements,
		users:        users,
		mailer:       mailer,
		cfg:          cfg,
		logger:       logger,
		repoFor:      NewRepository,
		inTx: func(ctx context.Context, fn func(tx core.DBTX) error) error {
			return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
				return fn(tx)
			})
		},
	}
}

// CreateOrder opens a pending VietQR order for a course purchase or a
// VIP membership bought from a course page.
func (s *Service) CreateOrder(
	ctx context.Context,
	userID, courseID, purchaseType string,
) (*CreateOrderResponse, error) {
	c, err := s.courses.GetActiveByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	access, err := s.entitlements.Check(ctx, userID, c)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if access.Granted {
		return nil, ErrAlreadyOwned
	}

	p := &Payment{
		ID:            uuid.New().String(),
		UserID:        userID,
		CourseID:      &c.ID,
		Status:        StatusPending,
		PaymentMethod: MethodVietQR,
	}

	switch purchaseType {
	case course.PurchaseTypeIndividual:
		if !c.CanPurchaseIndividually || c.PriceVND <= 0 {
			return nil, ErrNotPurchasable
		}
		p.PaymentType = TypeCourse
		p.AmountVND = c.PriceVND

	case course.PurchaseTypeVIPMembership:
		if c.VIPPriceVND == nil || c.RequiredTier != course.TierVIP {
			return nil, ErrNotPurchasable
		}
		tier := user.TierVIP
		p.PaymentType = TypeMembership
		p.MembershipTier = &tier
		p.AmountVND = *c.VIPPriceVND

	default:
		return nil, ErrNotPurchasable
	}

	pending, err := s.repo.HasPendingOrder(
		ctx, userID, &c.ID, p.PaymentType,
	)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingExists
	}

	expiresAt := time.Now().Add(s.cfg.OrderWindow)
	p.ExpiresAt = &expiresAt

	qr := BuildQRPayload(p, s.cfg)
	p.QRCodeData = &qr.QRCodeURL

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return &CreateOrderResponse{
		Payment: toPaymentResponse(p, c.Title, s.cfg.RefundWindow, time.Now()),
		QR:      qr,
	}, nil
}

// Settle moves a pending order to completed or failed and, in the same
// transaction, applies what was bought. A conflict means the order was
// already settled, expired, or never existed as pending; callers map
// it to 409 and the bank does not retry.
func (s *Service) Settle(
	ctx context.Context,
	paymentID string,
	success bool,
	transactionID, bankReference *string,
) (*Payment, error) {
	status := StatusCompleted
	if !success {
		status = StatusFailed
	}

	now := time.Now()

	var settled *Payment
	err := s.inTx(ctx, func(tx core.DBTX) error {
		txRepo := s.repoFor(tx)

		p, err := txRepo.Settle(
			ctx, paymentID, status, transactionID, bankReference, now,
		)
		if err != nil {
			return err
		}

		if p.Status == StatusCompleted {
			if err := s.applyPurchase(ctx, tx, p, now); err != nil {
				return err
			}
		}

		settled = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled.Status == StatusCompleted {
		s.sendReceipt(settled)
	}

	return settled, nil
}

func (s *Service) applyPurchase(
	ctx context.Context,
	tx core.DBTX,
	p *Payment,
	now time.Time,
) error {
	switch p.PaymentType {
	case TypeCourse:
		if p.CourseID == nil {
			return fmt.Errorf("course payment %s has no course", p.ID)
		}
		_, err := s.entitlements.WithTx(tx).Grant(
			ctx,
			p.UserID,
			*p.CourseID,
			entitlement.AccessTypePurchased,
			&p.ID,
			nil,
		)
		if err != nil {
			return fmt.Errorf("grant entitlement: %w", err)
		}

	case TypeMembership:
		_, err := s.users.WithTx(tx).GrantMembership(
			ctx, p.UserID, s.cfg.MembershipDays, now,
		)
		if err != nil {
			return fmt.Errorf("grant membership: %w", err)
		}

	default:
		return fmt.Errorf("unknown payment type %q", p.PaymentType)
	}

	return nil
}

// Refund reverses a completed payment inside the refund window and
// takes back what it granted. Membership rollback floors at now, so a
// refund never strips time that was already consumed.
func (s *Service) Refund(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !p.CanRefund(s.cfg.RefundWindow, now) {
		return nil, ErrNotRefundable
	}

	var refunded *Payment
	err = s.inTx(ctx, func(tx core.DBTX) error {
		txRepo := s.repoFor(tx)

		p, err := txRepo.MarkRefunded(ctx, paymentID)
		if err != nil {
			return err
		}

		switch p.PaymentType {
		case TypeCourse:
			if err := s.entitlements.WithTx(tx).RevokeByPayment(ctx, p.ID); err != nil {
				return fmt.Errorf("revoke entitlement: %w", err)
			}
		case TypeMembership:
			err := s.users.WithTx(tx).RollbackMembership(
				ctx, p.UserID, s.cfg.MembershipDays, now,
			)
			if err != nil {
				return fmt.Errorf("rollback membership: %w", err)
			}
		}

		refunded = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refunded, nil
}

// HandleNotification maps a verified bank webhook onto settlement.
func (s *Service) HandleNotification(
	ctx context.Context,
	notif WebhookNotification,
) (*Payment, error) {
	paymentID, ok := PaymentIDFromContent(notif.TransferContent)
	if !ok {
		return nil, ErrUnknownReference
	}

	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUnknownReference
		}
		return nil, err
	}

	success := notif.Success
	if success && notif.AmountVND != p.AmountVND {
		// Wrong amount settles the order as failed; reconciliation is
		// manual from there.
		s.logger.Warn("webhook amount mismatch",
			"payment_id", p.ID,
			"expected", p.AmountVND,
			"received", notif.AmountVND,
		)
		success = false
	}

	transactionID := notif.TransactionID
	var bankRef *string
	if notif.BankReference != "" {
		bankRef = &notif.BankReference
	}

	return s.Settle(ctx, p.ID, success, &transactionID, bankRef)
}

// GetQR returns the transfer payload for one of the caller's pending
// orders. Foreign payments read as not found.
func (s *Service) GetQR(
	ctx context.Context,
	paymentID, userID string,
) (*QRPayload, error) {
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.UserID != userID {
		return nil, fmt.Errorf("get qr: %w", core.ErrNotFound)
	}

	if p.IsExpired(time.Now()) {
		return nil, ErrOrderExpired
	}

	qr := BuildQRPayload(p, s.cfg)
	return &qr, nil
}

func (s *Service) ListMy(
	ctx context.Context,
	userID string,
) ([]PaymentResponse, error) {
	records, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.toResponses(records), nil
}

func (s *Service) List(
	ctx context.Context,
	status string,
	limit, offset int,
) ([]PaymentResponse, int, error) {
	records, total, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return s.toResponses(records), total, nil
}

func (s *Service) toResponses(records []PaymentRecord) []PaymentResponse {
	now := time.Now()
	responses := make([]PaymentResponse, 0, len(records))
	for i := range records {
		title := ""
		if records[i].CourseTitle != nil {
			title = *records[i].CourseTitle
		}
		responses = append(responses, toPaymentResponse(
			&records[i].Payment, title, s.cfg.RefundWindow, now,
		))
	}
	return responses
}

func (s *Service) sendReceipt(p *Payment) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		info, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			s.logger.Error("receipt lookup failed",
				"payment_id", p.ID, "error", err)
			return
		}

		courseTitle := ""
		if p.CourseID != nil {
			if c, err := s.courses.GetByID(ctx, *p.CourseID); err == nil {
				courseTitle = c.Title
			}
		}

		err = s.mailer.SendReceiptEmail(
			ctx, info.Email, info.FullName, p, courseTitle,
		)
		if err != nil {
			s.logger.Error("send receipt failed",
				"payment_id", p.ID,
				"recipient", info.Email,
				"error", err,
			)
		}
	}()
}
