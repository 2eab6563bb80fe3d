// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks processed conversation turns by classified intent
	// and outcome (delegated, clarification, error).
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_turns_total",
			Help: "Conversation turns processed",
		},
		[]string{"intent", "outcome"},
	)

	// TurnDuration tracks end-to-end turn handling latency.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_turn_duration_seconds",
			Help:    "Turn handling duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"agent"},
	)

	// ClarificationsTotal tracks follow-up questions asked, labelled by the
	// slot that was missing or invalid.
	ClarificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_clarifications_total",
			Help: "Clarifying follow-ups asked",
		},
		[]string{"slot"},
	)

	// OfferSearchesTotal tracks flight searches by result disposition.
	OfferSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_offer_searches_total",
			Help: "Flight searches executed",
		},
		[]string{"disposition"},
	)

	// BookingsTotal tracks booking attempts by result.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_bookings_total",
			Help: "Booking attempts",
		},
		[]string{"result"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// MessagesTotal tracks messages appended to the conversation log.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Messages appended",
		},
		[]string{"role"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records a processed turn.
func RecordTurn(intent, outcome, agent string, seconds float64) {
	TurnsTotal.WithLabelValues(intent, outcome).Inc()
	TurnDuration.WithLabelValues(agent).Observe(seconds)
}

// RecordLLMTokens records LLM token usage.
func RecordLLMTokens(model string, tokensIn, tokensOut int) {
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
