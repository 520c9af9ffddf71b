// MsHoa Learning | 2026
// vietqr_test.go

package payment

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/config"
)

func TestTransferContentRoundTrip(t *testing.T) {
	id := "550e8400-e29b-41d4-a716-446655440000"
	content := TransferContent(id)
	assert.Equal(t, "THANHTOAN "+id, content)

	got, ok := PaymentIDFromContent(content)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestPaymentIDFromContent(t *testing.T) {
	tests := []struct {
		content string
		wantID  string
		wantOK  bool
	}{
		{"THANHTOAN abc-123", "abc-123", true},
		{"thanhtoan abc-123", "abc-123", true},
		{"  THANHTOAN   abc-123  ", "abc-123", true},
		{"THANHTOAN", "", false},
		{"THANHTOAN abc 123", "", false},
		{"CK abc-123", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := PaymentIDFromContent(tt.content)
		assert.Equal(t, tt.wantOK, ok, "content %q", tt.content)
		assert.Equal(t, tt.wantID, got, "content %q", tt.content)
	}
}

func TestBuildQRPayload(t *testing.T) {
	cfg := config.PaymentConfig{
		BankName:      "vietcombank",
		AccountNumber: "0123456789",
		AccountName:   "NGUYEN THI HOA",
	}
	expires := time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)
	p := &Payment{
		ID:        "pay-1",
		AmountVND: 299000,
		ExpiresAt: &expires,
	}

	payload := BuildQRPayload(p, cfg)

	assert.Equal(t, int64(299000), payload.Amount)
	assert.Equal(t, "299.000₫", payload.AmountLabel)
	require.NotNil(t, payload.ExpiresAt)
	assert.Equal(t, expires, *payload.ExpiresAt)
	assert.Equal(t, "THANHTOAN pay-1", payload.BankInfo.TransferContent)
	assert.Equal(t, "NGUYEN THI HOA", payload.BankInfo.AccountName)

	parsed, err := url.Parse(payload.QRCodeURL)
	require.NoError(t, err)
	assert.Equal(t, "img.vietqr.io", parsed.Host)
	assert.True(t, strings.HasPrefix(parsed.Path, "/image/vietcombank-0123456789"))
	assert.Equal(t, "299000", parsed.Query().Get("amount"))
	assert.Equal(t, "THANHTOAN pay-1", parsed.Query().Get("addInfo"))
}

func TestPaymentIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&Payment{Status: StatusPending}).IsExpired(now),
		"no deadline never expires")
	assert.False(t, (&Payment{Status: StatusPending, ExpiresAt: &future}).IsExpired(now))
	assert.True(t, (&Payment{Status: StatusPending, ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&Payment{Status: StatusPending, ExpiresAt: &now}).IsExpired(now),
		"deadline itself is too late")
	assert.False(t, (&Payment{Status: StatusCompleted, ExpiresAt: &past}).IsExpired(now),
		"settled orders never expire")
}

func TestPaymentCanRefund(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	recent := now.Add(-3 * 24 * time.Hour)
	edge := now.Add(-window)
	stale := now.Add(-8 * 24 * time.Hour)

	assert.True(t, (&Payment{Status: StatusCompleted, PaymentDate: &recent}).CanRefund(window, now))
	assert.True(t, (&Payment{Status: StatusCompleted, PaymentDate: &edge}).CanRefund(window, now),
		"window boundary is inclusive")
	assert.False(t, (&Payment{Status: StatusCompleted, PaymentDate: &stale}).CanRefund(window, now))
	assert.False(t, (&Payment{Status: StatusPending, PaymentDate: &recent}).CanRefund(window, now))
	assert.False(t, (&Payment{Status: StatusRefunded, PaymentDate: &recent}).CanRefund(window, now))
	assert.False(t, (&Payment{Status: StatusCompleted}).CanRefund(window, now),
		"missing payment_date is never refundable")
}
