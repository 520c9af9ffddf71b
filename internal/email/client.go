// MsHoa Learning | 2026
// client.go

package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mshoa-learning/backend/internal/config"
)

// Message is a single outbound mail. The sender comes from config.
type Message struct {
	To          []string
	Subject     string
	Body        string
	ContentType string
}

// Client speaks SMTP with STARTTLS. Port 587 implies STARTTLS even
// when the TLS flag is off, matching common provider defaults.
type Client struct {
	cfg config.EmailConfig
}

func NewClient(cfg config.EmailConfig) *Client {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Client{cfg: cfg}
}

func (c *Client) Send(ctx context.Context, msg *Message) error {
	if c.cfg.FromAddr == "" {
		return fmt.Errorf("email: sender is required")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("email: at least one recipient is required")
	}
	if msg.Subject == "" {
		return fmt.Errorf("email: subject is required")
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: %w", err)
	}

	contentType := msg.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=UTF-8"
	}

	fromHeader := c.cfg.FromAddr
	if c.cfg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", c.cfg.FromName, c.cfg.FromAddr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	if c.cfg.UseTLS || c.cfg.Port == 587 {
		return c.sendWithStartTLS(
			addr, auth, c.cfg.FromAddr, msg.To, []byte(b.String()),
		)
	}

	return smtp.SendMail(addr, auth, c.cfg.FromAddr, msg.To, []byte(b.String()))
}

func (c *Client) sendWithStartTLS(
	addr string,
	auth smtp.Auth,
	from string,
	to []string,
	msg []byte,
) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("email: dial smtp: %w", err)
	}
	defer client.Close() //nolint:errcheck // connection teardown

	if err = client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
		return fmt.Errorf("email: starttls: %w", err)
	}

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("email: smtp auth: %w", err)
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("email: set sender: %w", err)
	}

	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("email: set recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("email: open data: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("email: write body: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("email: close body: %w", err)
	}

	return client.Quit()
}
