// Package metrics provides Prometheus metrics for the devderby scoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Scoring pipeline
	eventsScored    *prometheus.CounterVec
	eventsSkipped   prometheus.Counter
	eventsDuplicate prometheus.Counter
	pointsAwarded   prometheus.Counter
	penaltyPoints   prometheus.Counter

	// Poll cycles
	pollCycles   *prometheus.CounterVec
	pollErrors   *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec

	// Commentary pipeline
	commentaryGenerated *prometheus.CounterVec
	commentaryErrors    prometheus.Counter
	commentaryQueueSize prometheus.Gauge

	// State store
	stateSaves      prometheus.Counter
	stateSaveErrors prometheus.Counter

	// Leaderboard
	playersTracked prometheus.Gauge
	leaderScore    prometheus.Gauge
	scoreGap       prometheus.Gauge

	// HTTP / WS surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsConnections       prometheus.Gauge
}

// Global manager on a custom registry so default Go collectors stay out of
// the scrape output.
var (
	globalManager  *Manager                //nolint:gochecknoglobals // singleton metrics manager
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "devderby",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	auto := promauto.With(m.registry)

	m.eventsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_scored_total",
		Help: "Score events applied to the ledger, by event type",
	}, []string{"event_type"})

	m.eventsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_skipped_total",
		Help: "Raw events skipped because auxiliary data could not be fetched",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_duplicate_total",
		Help: "Raw events dropped as already seen",
	})

	m.pointsAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "points_awarded_total",
		Help: "Positive points applied to player totals",
	})

	m.penaltyPoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "penalty_points_total",
		Help: "Absolute value of negative points applied to player totals",
	})

	m.pollCycles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "poll_cycles_total",
		Help: "Completed poll cycles by event class",
	}, []string{"source"})

	m.pollErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "poll_errors_total",
		Help: "Failed poll cycles by event class",
	}, []string{"source"})

	m.pollDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "poll_duration_milliseconds",
		Help:    "Poll cycle duration in milliseconds by event class",
		Buckets: m.histogramBuckets,
	}, []string{"source"})

	m.commentaryGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "commentary_generated_total",
		Help: "Commentary entries produced, by trigger",
	}, []string{"trigger"})

	m.commentaryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "commentary_errors_total",
		Help: "Narrative-service calls that produced no commentary",
	})

	m.commentaryQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "commentary_queue_size",
		Help: "Pending commentary requests",
	})

	m.stateSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "state_saves_total",
		Help: "Successful engine state snapshots written",
	})

	m.stateSaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "state_save_errors_total",
		Help: "Engine state snapshot writes that failed",
	})

	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "players_tracked",
		Help: "Players present in the ledger",
	})

	m.leaderScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "leader_score",
		Help: "Total score of the current leaderboard leader",
	})

	m.scoreGap = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_gap",
		Help: "Score gap between leader and runner-up",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.wsConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ws_connections",
		Help: "Connected websocket render clients",
	})
}

// GetRegistry exposes the gatherer backing the custom registry for the
// health/metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers against the global manager.

func RecordEventScored(eventType string, points int) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsScored.WithLabelValues(eventType).Inc()
	if points >= 0 {
		globalManager.pointsAwarded.Add(float64(points))
	} else {
		globalManager.penaltyPoints.Add(float64(-points))
	}
}

func RecordEventSkipped() {
	if globalManager.enabled {
		globalManager.eventsSkipped.Inc()
	}
}

func RecordEventDuplicate() {
	if globalManager.enabled {
		globalManager.eventsDuplicate.Inc()
	}
}

func RecordPollCycle(source string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.pollCycles.WithLabelValues(source).Inc()
	globalManager.pollDuration.WithLabelValues(source).Observe(durationMs)
}

func RecordPollError(source string) {
	if globalManager.enabled {
		globalManager.pollErrors.WithLabelValues(source).Inc()
	}
}

func RecordCommentaryGenerated(trigger string) {
	if globalManager.enabled {
		globalManager.commentaryGenerated.WithLabelValues(trigger).Inc()
	}
}

func RecordCommentaryError() {
	if globalManager.enabled {
		globalManager.commentaryErrors.Inc()
	}
}

func UpdateCommentaryQueueSize(n int) {
	if globalManager.enabled {
		globalManager.commentaryQueueSize.Set(float64(n))
	}
}

func RecordStateSave() {
	if globalManager.enabled {
		globalManager.stateSaves.Inc()
	}
}

func RecordStateSaveError() {
	if globalManager.enabled {
		globalManager.stateSaveErrors.Inc()
	}
}

func UpdatePlayersTracked(n int) {
	if globalManager.enabled {
		globalManager.playersTracked.Set(float64(n))
	}
}

func UpdateLeaderScore(score int) {
	if globalManager.enabled {
		globalManager.leaderScore.Set(float64(score))
	}
}

func UpdateScoreGap(gap int) {
	if globalManager.enabled {
		globalManager.scoreGap.Set(float64(gap))
	}
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

func UpdateWSConnections(n int) {
	if globalManager.enabled {
		globalManager.wsConnections.Set(float64(n))
	}
}
