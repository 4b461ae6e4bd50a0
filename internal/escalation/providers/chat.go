package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/steadypath/steadypath/internal/config"
	"github.com/steadypath/steadypath/internal/escalation"
	"github.com/steadypath/steadypath/pkg/models"
)

// BotChat sends the alert programmatically through a chat-platform bot
// API (Telegram-style sendMessage endpoint keyed by chat handle).
type BotChat struct {
	logger *zap.Logger
	cfg    config.ChatConfig
	client httpDoer
}

// NewBotChat creates the programmatic chat provider.
func NewBotChat(logger *zap.Logger, cfg config.ChatConfig, client httpDoer) *BotChat {
	return &BotChat{logger: logger, cfg: cfg, client: client}
}

// Name implements escalation.Provider.
func (p *BotChat) Name() string { return "chat-bot" }

// Send implements escalation.Provider.
func (p *BotChat) Send(ctx context.Context, contacts []models.Contact, msg escalation.AlertMessage) error {
	if p.cfg.BotToken == "" {
		return fmt.Errorf("chat-bot: no bot token configured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.cfg.APIBase, p.cfg.BotToken)
	var lastErr error
	delivered := 0
	for _, c := range contacts {
		if c.ChatHandle == "" {
			continue
		}
		payload := map[string]any{
			"chat_id": "@" + c.ChatHandle,
			"text":    msg.Title + "\n\n" + msg.Body,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			lastErr = err
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send to %s: %w", c.ChatHandle, err)
			continue
		}
		if err := checkStatus(resp); err != nil {
			lastErr = fmt.Errorf("send to %s: %w", c.ChatHandle, err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no contacts with a chat handle")
		}
		return fmt.Errorf("chat-bot: %w", lastErr)
	}
	p.logger.Info("Chat alert sent via bot API", zap.Int("delivered", delivered))
	return nil
}

// openerFunc launches the host's URL opener, injectable for tests.
type openerFunc func(ctx context.Context, target string) error

func systemOpen(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	return cmd.Run()
}

// DeepLinkChat is the manual-send fallback: it opens a pre-filled deep
// link to the chat app on the operator's machine.
type DeepLinkChat struct {
	logger *zap.Logger
	cfg    config.ChatConfig
	open   openerFunc
}

// NewDeepLinkChat creates the deep-link fallback provider.
func NewDeepLinkChat(logger *zap.Logger, cfg config.ChatConfig) *DeepLinkChat {
	return &DeepLinkChat{logger: logger, cfg: cfg, open: systemOpen}
}

// Name implements escalation.Provider.
func (p *DeepLinkChat) Name() string { return "chat-deeplink" }

// Send implements escalation.Provider.
func (p *DeepLinkChat) Send(ctx context.Context, contacts []models.Contact, msg escalation.AlertMessage) error {
	var lastErr error
	opened := 0
	for _, c := range contacts {
		if c.ChatHandle == "" {
			continue
		}
		link := fmt.Sprintf("%s/%s?text=%s", p.cfg.DeepLinkBase, c.ChatHandle, url.QueryEscape(msg.Body))
		if err := p.open(ctx, link); err != nil {
			lastErr = fmt.Errorf("open deep link for %s: %w", c.ChatHandle, err)
			continue
		}
		opened++
	}
	if opened == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no contacts with a chat handle")
		}
		return fmt.Errorf("chat-deeplink: %w", lastErr)
	}
	p.logger.Info("Chat deep link opened for manual send", zap.Int("opened", opened))
	return nil
}
