// MsHoa Learning | 2026
// vietqr.go

package payment

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/course"
)

// BankInfo is the manual-transfer fallback shown next to the QR code.
type BankInfo struct {
	BankName        string `json:"bank_name"`
	AccountNumber   string `json:"account_number"`
	AccountName     string `json:"account_name"`
	TransferContent string `json:"transfer_content"`
}

type QRPayload struct {
	QRCodeURL   string     `json:"qr_code_url"`
	Amount      int64      `json:"amount"`
	AmountLabel string     `json:"amount_label"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	BankInfo    BankInfo   `json:"bank_info"`
}

// TransferContent is the wire reference the bank echoes back in its
// webhook; settlement matches payments on it.
func TransferContent(paymentID string) string {
	return "THANHTOAN " + paymentID
}

// PaymentIDFromContent extracts the payment ID from a bank transfer
// reference, tolerating extra whitespace and case drift.
func PaymentIDFromContent(content string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(content))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "THANHTOAN") {
		return "", false
	}
	return fields[1], true
}

// BuildQRPayload renders the VietQR image URL plus manual-transfer
// details for a pending order.
func BuildQRPayload(p *Payment, cfg config.PaymentConfig) QRPayload {
	content := TransferContent(p.ID)

	query := url.Values{}
	query.Set("amount", strconv.FormatInt(p.AmountVND, 10))
	query.Set("addInfo", content)
	query.Set("accountName", cfg.AccountName)

	qrURL := fmt.Sprintf(
		"https://img.vietqr.io/image/%s-%s-compact2.png?%s",
		url.PathEscape(cfg.BankName),
		url.PathEscape(cfg.AccountNumber),
		query.Encode(),
	)

	return QRPayload{
		QRCodeURL:   qrURL,
		Amount:      p.AmountVND,
		AmountLabel: course.FormatVND(p.AmountVND),
		ExpiresAt:   p.ExpiresAt,
		BankInfo: BankInfo{
			BankName:        cfg.BankName,
			AccountNumber:   cfg.AccountNumber,
			AccountName:     cfg.AccountName,
			TransferContent: content,
		},
	}
}
