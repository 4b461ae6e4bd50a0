package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/steadypath/steadypath/internal/config"
	"github.com/steadypath/steadypath/internal/escalation"
	"github.com/steadypath/steadypath/pkg/models"
)

// APIEmail sends the alert through a templated transactional email API.
type APIEmail struct {
	logger *zap.Logger
	cfg    config.EmailConfig
	client httpDoer
}

// NewAPIEmail creates the transactional email provider.
func NewAPIEmail(logger *zap.Logger, cfg config.EmailConfig, client httpDoer) *APIEmail {
	return &APIEmail{logger: logger, cfg: cfg, client: client}
}

// Name implements escalation.Provider.
func (p *APIEmail) Name() string { return "email-api" }

// Send implements escalation.Provider.
func (p *APIEmail) Send(ctx context.Context, contacts []models.Contact, msg escalation.AlertMessage) error {
	recipients := make([]map[string]string, 0, len(contacts))
	for _, c := range contacts {
		if c.Email == "" {
			continue
		}
		recipients = append(recipients, map[string]string{"email": c.Email, "name": c.Label})
	}
	if len(recipients) == 0 {
		return fmt.Errorf("email-api: no contacts with an email address")
	}

	payload := map[string]any{
		"from":     map[string]string{"email": p.cfg.FromAddress, "name": p.cfg.FromName},
		"to":       recipients,
		"subject":  msg.Title,
		"text":     msg.Body,
		"category": "emergency_escalation",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("email-api: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email-api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("email-api: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("email-api: %w", err)
	}
	p.logger.Info("Alert email sent via API", zap.Int("recipients", len(recipients)))
	return nil
}

// smtpSendFunc matches smtp.SendMail, injectable for tests.
type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// ComposeEmail is the fallback email hop: it hands the pre-filled message
// to the local mail submission agent over SMTP.
type ComposeEmail struct {
	logger *zap.Logger
	cfg    config.EmailConfig
	send   smtpSendFunc
}

// NewComposeEmail creates the local compose fallback provider.
func NewComposeEmail(logger *zap.Logger, cfg config.EmailConfig) *ComposeEmail {
	return &ComposeEmail{logger: logger, cfg: cfg, send: smtp.SendMail}
}

// Name implements escalation.Provider.
func (p *ComposeEmail) Name() string { return "email-compose" }

// Send implements escalation.Provider.
func (p *ComposeEmail) Send(ctx context.Context, contacts []models.Contact, msg escalation.AlertMessage) error {
	if p.cfg.SMTPHost == "" {
		return fmt.Errorf("email-compose: no smtp host configured")
	}
	to := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			to = append(to, c.Email)
		}
	}
	if len(to) == 0 {
		return fmt.Errorf("email-compose: no contacts with an email address")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email-compose: %w", err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s <%s>\r\n", p.cfg.FromName, p.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Title)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	var auth smtp.Auth
	if p.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", p.cfg.SMTPUser, p.cfg.SMTPPass, p.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.SMTPHost, p.cfg.SMTPPort)
	if err := p.send(addr, auth, p.cfg.FromAddress, to, b.Bytes()); err != nil {
		return fmt.Errorf("email-compose: %w", err)
	}
	p.logger.Info("Alert email handed to local mail agent", zap.Int("recipients", len(to)))
	return nil
}
