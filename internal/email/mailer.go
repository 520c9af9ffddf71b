// MsHoa Learning | 2026
// mailer.go

package email

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/payment"
)

// Mailer renders and sends the platform's transactional mail. With
// Enabled off it logs instead of sending, which keeps development
// environments quiet without stubbing the interface.
type Mailer struct {
	client      *Client
	frontendURL string
	enabled     bool
	logger      *slog.Logger
	templates   *template.Template
}

func NewMailer(
	cfg config.EmailConfig,
	frontendURL string,
	logger *slog.Logger,
) (*Mailer, error) {
	templates, err := template.New("email").Parse(mailTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &Mailer{
		client:      NewClient(cfg),
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		enabled:     cfg.Enabled,
		logger:      logger,
		templates:   templates,
	}, nil
}

func (m *Mailer) SendVerificationEmail(
	ctx context.Context,
	to, fullName, token string,
) error {
	link := fmt.Sprintf(
		"%s/verify-email?token=%s",
		m.frontendURL,
		url.QueryEscape(token),
	)

	return m.send(ctx, to, "Xác thực tài khoản MsHoa Learning",
		"verification", map[string]any{
			"Name": fullName,
			"Link": link,
		})
}

func (m *Mailer) SendWelcomeEmail(
	ctx context.Context,
	to, fullName string,
) error {
	return m.send(ctx, to, "Chào mừng bạn đến với MsHoa Learning",
		"welcome", map[string]any{
			"Name": fullName,
			"Link": m.frontendURL + "/courses",
		})
}

func (m *Mailer) SendPasswordResetEmail(
	ctx context.Context,
	to, fullName, token string,
) error {
	link := fmt.Sprintf(
		"%s/reset-password?token=%s",
		m.frontendURL,
		url.QueryEscape(token),
	)

	return m.send(ctx, to, "Đặt lại mật khẩu MsHoa Learning",
		"password_reset", map[string]any{
			"Name": fullName,
			"Link": link,
		})
}

func (m *Mailer) SendReceiptEmail(
	ctx context.Context,
	to, fullName string,
	p *payment.Payment,
	courseTitle string,
) error {
	item := courseTitle
	if p.PaymentType == payment.TypeMembership {
		item = "Gói hội viên VIP 30 ngày"
	}

	return m.send(ctx, to, "Biên nhận thanh toán MsHoa Learning",
		"receipt", map[string]any{
			"Name":      fullName,
			"Item":      item,
			"Amount":    p.AmountVND,
			"PaymentID": p.ID,
		})
}

func (m *Mailer) send(
	ctx context.Context,
	to, subject, templateName string,
	data map[string]any,
) error {
	if !m.enabled {
		m.logger.Info("email sending disabled, skipping",
			"template", templateName,
			"recipient", to,
		)
		return nil
	}

	var body strings.Builder
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s email: %w", templateName, err)
	}

	return m.client.Send(ctx, &Message{
		To:          []string{to},
		Subject:     subject,
		Body:        body.String(),
		ContentType: "text/html; charset=UTF-8",
	})
}
