// MsHoa Learning | 2026
// mailer_test.go

package email

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/config"
)

func newTestMailer(t *testing.T) *Mailer {
	t.Helper()
	m, err := NewMailer(
		config.EmailConfig{Enabled: false},
		"https://mshoa.example.com/",
		slog.New(slog.DiscardHandler),
	)
	require.NoError(t, err)
	return m
}

func TestMailTemplatesRender(t *testing.T) {
	m := newTestMailer(t)

	tests := []struct {
		template string
		data     map[string]any
		contains string
	}{
		{
			template: "verification",
			data:     map[string]any{"Name": "Lan", "Link": "https://x/verify-email?token=abc"},
			contains: "verify-email?token=abc",
		},
		{
			template: "welcome",
			data:     map[string]any{"Name": "Lan", "Link": "https://x/courses"},
			contains: "Lan",
		},
		{
			template: "password_reset",
			data:     map[string]any{"Name": "Lan", "Link": "https://x/reset-password?token=abc"},
			contains: "reset-password?token=abc",
		},
		{
			template: "receipt",
			data: map[string]any{
				"Name":      "Lan",
				"Item":      "Tiếng Anh giao tiếp",
				"Amount":    int64(299000),
				"PaymentID": "pay-1",
			},
			contains: "Tiếng Anh giao tiếp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			var body strings.Builder
			err := m.templates.ExecuteTemplate(&body, tt.template, tt.data)
			require.NoError(t, err)
			assert.Contains(t, body.String(), tt.contains)
		})
	}
}

func TestDisabledMailerSkipsSend(t *testing.T) {
	m := newTestMailer(t)

	err := m.SendVerificationEmail(context.Background(), "to@example.com", "Lan", "tok")
	assert.NoError(t, err)

	err = m.SendWelcomeEmail(context.Background(), "to@example.com", "Lan")
	assert.NoError(t, err)
}

func TestMailerTrimsFrontendURL(t *testing.T) {
	m := newTestMailer(t)
	assert.Equal(t, "https://mshoa.example.com", m.frontendURL)
}
