// Package metrics defines the Prometheus metrics of the admin API. It is the
// single source of truth for metric names, labels and help strings.
//
// Metrics register with the default registry at package init through
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sheet_admin"

// ── HTTP ──────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts finished requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/users/:ref"), never the raw URL
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures handler latency including error rendering.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Auth ──────────────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRejectionsTotal counts requests turned away by the auth middleware or
// the RBAC gate.
// Label:
//   - reason: "missing_token", "invalid_token", "revoked", "forbidden"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

// LogoutsTotal counts successful logouts.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of revoked tokens.",
	},
)

// ── Users ─────────────────────────────────────────────────────────────────────

// UserMutationsTotal counts successful account changes.
// Label:
//   - action: "create", "update" or "delete"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of successful user account mutations, by action.",
	},
	[]string{"action"},
)

// ── Records ───────────────────────────────────────────────────────────────────

// RecordRequestsTotal counts proxied record store calls.
// Labels:
//   - op: "list", "create", "update" or "delete"
//   - outcome: "ok" or "error"
var RecordRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_requests_total",
		Help:      "Total number of record store calls, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// ImportRowsTotal counts rows handled by bulk uploads.
// Label:
//   - result: "imported" or "failed"
var ImportRowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Total number of uploaded rows, by result.",
	},
	[]string{"result"},
)
