// Package metrics exposes the simulation kernel's Prometheus collectors.
// Unlike a pluggable-backend abstraction, this is a single binary with one
// metrics backend, so collectors are registered once against the default
// registerer via promauto and called directly — no provider interface, no
// injected dependency to thread through every constructor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "overwatch"

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_ticks_total",
		Help:      "Master simulation ticks processed, by scenario.",
	}, []string{"scenario_id"})

	missionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mission_transitions_total",
		Help:      "Mission status transitions applied during tick processing.",
	}, []string{"scenario_id", "status"})

	injectsFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "injects_fired_total",
		Help:      "MSEL injects fired, by effect type.",
	}, []string{"scenario_id", "effect"})

	coverageCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coverage_cycles_total",
		Help:      "Space coverage recompute cycles run during the position loop.",
	}, []string{"scenario_id"})

	coverageGapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coverage_gaps_total",
		Help:      "Coverage gaps detected or resolved, by transition.",
	}, []string{"scenario_id", "transition"})

	decisionsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_raised_total",
		Help:      "DECISION_REQUIRED events raised for operator response.",
	}, []string{"scenario_id"})

	llmAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_attempts_total",
		Help:      "LLM generation attempts, by artifact and outcome status.",
	}, []string{"artifact", "status"})

	llmAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_attempt_duration_seconds",
		Help:      "LLM generation attempt latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"artifact"})

	ingestLogsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_logs_total",
		Help:      "Document ingest pipeline runs, by success/failure.",
	}, []string{"scenario_id", "outcome"})

	activeConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Currently open WebSocket connections across all scenarios.",
	})
)

// Tick records one master tick processed for scenarioID.
func Tick(scenarioID string) {
	ticksTotal.WithLabelValues(scenarioID).Inc()
}

// MissionTransition records a mission advancing to status.
func MissionTransition(scenarioID, status string) {
	missionTransitionsTotal.WithLabelValues(scenarioID, status).Inc()
}

// InjectFired records an MSEL inject firing with the given effect type.
func InjectFired(scenarioID, effect string) {
	injectsFiredTotal.WithLabelValues(scenarioID, effect).Inc()
}

// CoverageCycle records one coverage recompute cycle for scenarioID.
func CoverageCycle(scenarioID string) {
	coverageCyclesTotal.WithLabelValues(scenarioID).Inc()
}

// GapDetected records a newly opened coverage gap.
func GapDetected(scenarioID string) {
	coverageGapsTotal.WithLabelValues(scenarioID, "detected").Inc()
}

// GapResolved records a previously open coverage gap closing.
func GapResolved(scenarioID string) {
	coverageGapsTotal.WithLabelValues(scenarioID, "resolved").Inc()
}

// DecisionRaised records a DECISION_REQUIRED event reaching the operator.
func DecisionRaised(scenarioID string) {
	decisionsRaisedTotal.WithLabelValues(scenarioID).Inc()
}

// LLMAttempt records one best-of-N generation attempt and its latency.
func LLMAttempt(artifact, status string, seconds float64) {
	llmAttemptsTotal.WithLabelValues(artifact, status).Inc()
	llmAttemptDuration.WithLabelValues(artifact).Observe(seconds)
}

// IngestLog records one document ingest pipeline run outcome.
func IngestLog(scenarioID, outcome string) {
	ingestLogsTotal.WithLabelValues(scenarioID, outcome).Inc()
}

// ConnectionOpened/ConnectionClosed track live WebSocket connection count.
func ConnectionOpened() { activeConnectionsGauge.Inc() }
func ConnectionClosed() { activeConnectionsGauge.Dec() }

// Handler exposes the default registry's collectors for a /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
