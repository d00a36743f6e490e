package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelboard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelboard_ws_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_notifications_delivered_total",
			Help: "Notifications pushed to connected recipients",
		},
		[]string{"kind"}, // task_status_changed, task_assigned, project_updated
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_notifications_dropped_total",
			Help: "Notifications dropped instead of delivered",
		},
		[]string{"reason"}, // offline, slow_consumer
	)

	RelayEventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_relay_events_rejected_total",
			Help: "Inbound relay events rejected at the boundary",
		},
		[]string{"reason"}, // malformed, illegal_transition
	)

	// Business metrics
	TasksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelboard_tasks_created_total",
			Help: "Total tasks created",
		},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_task_status_changes_total",
			Help: "Total task status changes persisted",
		},
		[]string{"to_status"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_logins_total",
			Help: "Login attempts",
		},
		[]string{"result"}, // success, failure
	)

	SearchQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelboard_search_queries_total",
			Help: "Total search queries",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelboard_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)
