package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	chatRequestsTotal   *prometheus.CounterVec
	chatRepliesTotal    *prometheus.CounterVec
	chatPromptTokens    prometheus.Histogram
}

// ------------------------------------------------------------------------------------------------------
// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		chatRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_requests_total",
				Help: "Total number of chat requests",
			},
			[]string{"stream_type"},
		),
		chatRepliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_replies_total",
				Help: "Total number of chat replies by outcome",
			},
			[]string{"outcome"},
		),
		chatPromptTokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_prompt_tokens",
				Help:    "Token count of visitor questions",
				Buckets: prometheus.ExponentialBuckets(8, 2, 8),
			},
		),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.chatRequestsTotal,
		m.chatRepliesTotal,
		m.chatPromptTokens,
	)
	return m
}

// ------------------------------------------------------------------------------------------------------
func (m *Metrics) ObserveChatRequest(streamType string) {
	m.chatRequestsTotal.WithLabelValues(streamType).Inc()
}

// ------------------------------------------------------------------------------------------------------
func (m *Metrics) ObserveReply(outcome string, promptTokens int) {
	m.chatRepliesTotal.WithLabelValues(outcome).Inc()
	if promptTokens > 0 {
		m.chatPromptTokens.Observe(float64(promptTokens))
	}
}
