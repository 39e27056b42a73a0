// Package metrics provides Prometheus metrics for the calculation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Streak calculator ──────────────────────────────────────────────────────

// StreakCalculations tracks streak recalculations by outcome.
var StreakCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "streak_calculations_total",
	Help:      "Total streak calculations by outcome.",
}, []string{"outcome"})

// StreakCalculationLatency tracks calculator wall time.
var StreakCalculationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "loopstate",
	Name:      "streak_calculation_latency_seconds",
	Help:      "Streak calculation duration in seconds.",
	Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// FreezesConsumed tracks auto-consumed freezes.
var FreezesConsumed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "freezes_consumed_total",
	Help:      "Total freezes auto-consumed to bridge a gap.",
})

// FreezesAvailable tracks the current freeze balance observed per run, as a
// distribution rather than a single gauge since it is scoped per user.
var FreezesAvailable = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "loopstate",
	Name:      "freezes_available",
	Help:      "Freezes remaining after a streak calculation.",
	Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
})

// ─── XP calculator ──────────────────────────────────────────────────────────

// XPCalculations tracks XP recalculations by outcome.
var XPCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "xp_calculations_total",
	Help:      "Total XP calculations by outcome.",
}, []string{"outcome"})

// XPCalculationLatency tracks calculator wall time.
var XPCalculationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "loopstate",
	Name:      "xp_calculation_latency_seconds",
	Help:      "XP calculation duration in seconds.",
	Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// PointsAwarded tracks total points appended across all XP events.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "points_awarded_total",
	Help:      "Total points appended via XP events.",
})

// ─── Orchestration ──────────────────────────────────────────────────────────

// OrchestratorRuns tracks orchestrator invocations by kind and result.
var OrchestratorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "orchestrator_runs_total",
	Help:      "Total orchestrator runs by kind and result.",
}, []string{"kind", "result"})

// RecomputeTriggered tracks how often a freeze consumption forced a
// second read-calculate pass within one orchestrator run.
var RecomputeTriggered = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "orchestrator_recompute_total",
	Help:      "Total orchestrator runs that triggered a recompute pass after consuming freezes.",
})

// ─── Engagement ─────────────────────────────────────────────────────────────

// AchievementsUnlocked tracks achievement unlocks by achievement key.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievement unlocks by key.",
}, []string{"achievement"})

// QuestsCompleted tracks quest completions by quest type.
var QuestsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "quests_completed_total",
	Help:      "Total quest completions by type.",
}, []string{"type"})

// NotificationsSent tracks notifications dispatched by kind.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "notifications_sent_total",
	Help:      "Total notifications sent by kind.",
}, []string{"kind"})

// NotificationsSuppressed tracks notifications withheld by policy (quiet
// hours, daily cap) by reason.
var NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "notifications_suppressed_total",
	Help:      "Total notifications suppressed by policy, by reason.",
}, []string{"reason"})

// ─── Store ──────────────────────────────────────────────────────────────────

// StoreOperationLatency tracks sqlite operation duration by operation name.
var StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "loopstate",
	Name:      "store_operation_latency_seconds",
	Help:      "SQLite store operation duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "loopstate",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loopstate",
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})

// ─── API ────────────────────────────────────────────────────────────────────

// APIRequestLatency tracks HTTP handler duration by route and status.
var APIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "loopstate",
	Name:      "api_request_latency_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "status"})
