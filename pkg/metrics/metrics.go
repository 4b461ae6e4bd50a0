package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EscalationsTotal counts completed escalations by terminal status.
var EscalationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "steadypath_escalations_total",
		Help: "Total number of emergency escalations by terminal status",
	},
	[]string{"status"},
)

// EscalationDuration records end-to-end escalation latency.
var EscalationDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "steadypath_escalation_duration_seconds",
		Help:    "Latency in seconds for one full escalation fan-out",
		Buckets: prometheus.DefBuckets,
	},
)

// ChannelAttemptsTotal counts provider chain outcomes per channel.
var ChannelAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "steadypath_channel_attempts_total",
		Help: "Total channel attempts by channel, winning provider and outcome",
	},
	[]string{"channel", "provider", "outcome"},
)

// ProviderFailuresTotal counts individual provider failures inside a chain.
var ProviderFailuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "steadypath_provider_failures_total",
		Help: "Total individual provider failures by channel and provider",
	},
	[]string{"channel", "provider"},
)

// FeedClients tracks connected live-feed websocket clients.
var FeedClients = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "steadypath_feed_clients",
		Help: "Number of connected escalation feed websocket clients",
	},
)

func init() {
	prometheus.MustRegister(EscalationsTotal, EscalationDuration)
	prometheus.MustRegister(ChannelAttemptsTotal, ProviderFailuresTotal)
	prometheus.MustRegister(FeedClients)
}
