package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"service", "object"},
	)

	MessagesRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_relayed_total",
			Help: "Total number of chat messages relayed, by destination",
		},
		[]string{"service", "destination"},
	)

	MessageRelayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "message_relay_latency_seconds",
			Help:    "Latency from webhook receipt to WebSocket delivery",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
)
