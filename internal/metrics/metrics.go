// Package metrics exposes Prometheus instrumentation for the bot engine.
// Counters live here rather than in the engine so every component records
// through one registry, with careful attention to label cardinality:
//
//   - command: the resolved command word (bounded by the handler table)
//   - reason:  deny reason / error kind labels (small fixed sets)
//   - filter:  which protection filter fired (link/badword/spam)
//
// All collectors are safe for concurrent use and registered at init, the
// admin server serves them on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Events counts normalized inbound events by kind.
	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total number of normalized inbound events.",
		},
		[]string{"kind"},
	)

	// Dispatches counts command dispatches that reached a handler.
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_dispatched_total",
			Help: "Total number of commands dispatched to a handler.",
		},
		[]string{"command"},
	)

	// Denials counts access-gate rejections by reason.
	Denials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_permission_denied_total",
			Help: "Total number of commands rejected by the access gates.",
		},
		[]string{"reason"},
	)

	// QuotaCharges counts quota resolutions by outcome
	// (charged, premium, denied).
	QuotaCharges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_quota_charges_total",
			Help: "Total number of quota charge attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// HandlerErrors counts handler invocations that returned an error.
	HandlerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_command_errors_total",
			Help: "Total number of handler invocations that failed.",
		},
		[]string{"command"},
	)

	// Removals counts moderation removals by the filter that fired.
	Removals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_moderation_removals_total",
			Help: "Total number of group removals performed by protection filters.",
		},
		[]string{"filter"},
	)

	// AbuseTriggers counts sliding-window detector trips.
	AbuseTriggers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_abuse_triggers_total",
			Help: "Total number of sliding-window spam detections.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Events,
		Dispatches,
		Denials,
		QuotaCharges,
		HandlerErrors,
		Removals,
		AbuseTriggers,
	)
}
