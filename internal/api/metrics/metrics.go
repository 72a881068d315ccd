// Package metrics defines the custom Prometheus metrics of the ADBMX CRM API.
// It is the single source of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry on package load and are
// served by the echoprometheus handler mounted at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adbmx_crm"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "disabled", "invalid_request",
//     "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts bearer credential checks in the auth middleware.
// Label:
//   - result: "valid", "missing" or "invalid"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer credential verifications, by result.",
	},
	[]string{"result"},
)

// LoginThrottleErrorsTotal counts limiter failures that let a request through.
var LoginThrottleErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_throttle_errors_total",
		Help:      "Total number of login limiter errors (requests allowed through).",
	},
)

// ── CRM metrics ───────────────────────────────────────────────────────────────

// EntityMutationsTotal counts successful writes to CRM records.
// Labels:
//   - entity: "cliente", "contacto", "oportunidad", "tarea"
//   - action: "creado", "actualizado", "eliminado"
var EntityMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entity_mutations_total",
		Help:      "Total number of CRM record writes, by entity and action.",
	},
	[]string{"entity", "action"},
)

// ── Activity queue metrics ────────────────────────────────────────────────────

// ActivityQueueDepth tracks the entries waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activity entries pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityWritesTotal counts activity inserts.
// Label:
//   - result: "ok", "error" or "dropped"
var ActivityWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_writes_total",
		Help:      "Total number of activity log writes, by result.",
	},
	[]string{"result"},
)
