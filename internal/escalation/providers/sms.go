// Package providers contains the concrete delivery backends behind each
// escalation channel: HTTP SMS gateways, transactional email with an SMTP
// fallback, a chat bot API with a deep-link fallback, and the
// device-local channel that never depends on network availability.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/steadypath/steadypath/internal/config"
	"github.com/steadypath/steadypath/internal/escalation"
	"github.com/steadypath/steadypath/pkg/models"
)

// httpDoer is the subset of http.Client the providers need.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// drainBody reads a capped error body for failure details.
func drainBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

func checkStatus(resp *http.Response) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, drainBody(resp.Body))
}

// PrimarySMS is the primary transactional SMS API. It submits one
// form-encoded message per contact and succeeds when at least one contact
// accepted.
type PrimarySMS struct {
	logger *zap.Logger
	cfg    config.SMSProviderConfig
	client httpDoer
}

// NewPrimarySMS creates the primary SMS provider.
func NewPrimarySMS(logger *zap.Logger, cfg config.SMSProviderConfig, client httpDoer) *PrimarySMS {
	return &PrimarySMS{logger: logger, cfg: cfg, client: client}
}

// Name implements escalation.Provider.
func (p *PrimarySMS) Name() string { return "sms-primary" }

// Send implements escalation.Provider.
func (p *PrimarySMS) Send(ctx context.Context, contacts []models.Contact, msg escalation.AlertMessage) error {
	var lastErr error
	delivered := 0
	for _, c := range contacts {
		form := url.Values{}
		form.Set("To", c.PhoneNumber)
		form.Set("From", p.cfg.From)
		form.Set("Body", msg.Body)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, strings.NewReader(form.Encode()))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send to %s: %w", c.PhoneNumber, err)
			continue
		}
		if err := checkStatus(resp); err != nil {
			lastErr = fmt.Errorf("send to %s: %w", c.PhoneNumber, err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no contacts to message")
		}
		return fmt.Errorf("primary sms: %w", lastErr)
	}
	p.logger.Info("SMS sent via primary gateway", zap.Int("delivered", delivered))
	return nil
}

// GatewaySMS is a JSON SMS gateway used for the alternate and regional
// fallback hops. The two hops differ only in endpoint, credentials and
// name.
type GatewaySMS struct {
	logger *zap.Logger
	name   string
	cfg    config.SMSProviderConfig
	client httpDoer
}

// NewGatewaySMS creates a fallback SMS gateway provider with the given
// provider name ("sms-alternate" or "sms-regional").
func NewGatewaySMS(logger *zap.Logger, name string, cfg config.SMSProviderConfig, client httpDoer) *GatewaySMS {
	return &GatewaySMS{logger: logger, name: name, cfg: cfg, client: client}
}

// Name implements escalation.Provider.
func (p *GatewaySMS) Name() string { return p.name }

// Send implements escalation.Provider.
func (p *GatewaySMS) Send(ctx context.Context, contacts []models.Contact, msg escalation.AlertMessage) error {
	numbers := make([]string, 0, len(contacts))
	for _, c := range contacts {
		numbers = append(numbers, c.PhoneNumber)
	}
	if len(numbers) == 0 {
		return fmt.Errorf("%s: no contacts to message", p.name)
	}

	payload := map[string]any{
		"sender":     p.cfg.From,
		"recipients": numbers,
		"text":       msg.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	p.logger.Info("SMS sent via gateway", zap.String("provider", p.name), zap.Int("recipients", len(numbers)))
	return nil
}
