package escalation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steadypath/steadypath/pkg/metrics"
	"github.com/steadypath/steadypath/pkg/models"
)

// ChannelAdapter owns one channel's ordered provider chain. Providers are
// tried in priority order until one succeeds or the chain exhausts; every
// provider call is fault-isolated so a panicking provider cannot prevent
// the next one from running.
type ChannelAdapter struct {
	logger    *zap.Logger
	channel   models.Channel
	providers []Provider
}

// NewChannelAdapter builds an adapter for the given channel with providers
// in priority order.
func NewChannelAdapter(logger *zap.Logger, channel models.Channel, providers ...Provider) *ChannelAdapter {
	return &ChannelAdapter{
		logger:    logger.With(zap.String("channel", string(channel))),
		channel:   channel,
		providers: providers,
	}
}

// Channel returns the channel this adapter serves.
func (a *ChannelAdapter) Channel() models.Channel { return a.channel }

// Attempt walks the provider chain and returns exactly one ChannelAttempt:
// the first success, or a failure carrying the last error detail once the
// chain exhausts. Attempt never returns an error and never panics.
func (a *ChannelAdapter) Attempt(ctx context.Context, contacts []models.Contact, msg AlertMessage) models.ChannelAttempt {
	attempt := models.ChannelAttempt{
		Channel:     a.channel,
		Outcome:     models.OutcomeFailure,
		Detail:      "no providers configured",
		AttemptedAt: nowUTC(),
	}

	for _, p := range a.providers {
		err := a.callProvider(ctx, p, contacts, msg)
		if err == nil {
			attempt.Provider = p.Name()
			attempt.Outcome = models.OutcomeSuccess
			attempt.Detail = fmt.Sprintf("delivered via %s", p.Name())
			attempt.AttemptedAt = nowUTC()
			metrics.ChannelAttemptsTotal.WithLabelValues(string(a.channel), p.Name(), string(models.OutcomeSuccess)).Inc()
			return attempt
		}

		a.logger.Warn("provider failed, advancing chain",
			zap.String("provider", p.Name()),
			zap.Error(err))
		metrics.ProviderFailuresTotal.WithLabelValues(string(a.channel), p.Name()).Inc()

		attempt.Provider = p.Name()
		attempt.Detail = err.Error()
		attempt.AttemptedAt = nowUTC()
	}

	metrics.ChannelAttemptsTotal.WithLabelValues(string(a.channel), attempt.Provider, string(models.OutcomeFailure)).Inc()
	return attempt
}

func nowUTC() time.Time { return time.Now().UTC() }

// callProvider invokes one provider with panic isolation.
func (a *ChannelAdapter) callProvider(ctx context.Context, p Provider, contacts []models.Contact, msg AlertMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Send(ctx, contacts, msg)
}
