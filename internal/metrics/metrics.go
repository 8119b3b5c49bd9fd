// Package metrics exposes Prometheus counters for upstream calls and snapshot runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

const namespace = "crmeta"

type Metrics struct {
	// Registry is private to the process so /metrics shows only these series.
	Registry *prometheus.Registry

	upstreamRequests    *prometheus.CounterVec
	upstreamRateLimited *prometheus.CounterVec
	upstreamDuration    *prometheus.HistogramVec

	playersProcessed *prometheus.CounterVec
	battlesFolded    prometheus.Counter

	snapshotRuns       *prometheus.CounterVec
	snapshotDuration   prometheus.Histogram
	snapshotDecks      prometheus.Gauge
	snapshotLastUnix   prometheus.Gauge
	catalogCacheLookup *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		upstreamRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream requests by route and HTTP status (0 for transport errors)",
		}, []string{"route", "status"}),
		upstreamRateLimited: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rate_limited_total",
			Help:      "429 answers that were retried after backoff",
		}, []string{"route"}),
		upstreamDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of a single upstream attempt",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		playersProcessed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "players_total",
			Help:      "Player tasks completed, by outcome",
		}, []string{"outcome"}),
		battlesFolded: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "battles_folded_total",
			Help:      "Battle records folded into aggregation tables",
		}),
		snapshotRuns: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "runs_total",
			Help:      "Snapshot runs by outcome",
		}, []string{"outcome"}),
		snapshotDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Wall time of a full snapshot run",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		snapshotDecks: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "decks",
			Help:      "Decks analysed by the last successful snapshot",
		}),
		snapshotLastUnix: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_success_unixtime",
			Help:      "Completion time of the last successful snapshot",
		}),
		catalogCacheLookup: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cache_lookups_total",
			Help:      "Card catalog cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRequest(route string, status int, took time.Duration) {
	m.upstreamRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) RateLimited(route string) {
	m.upstreamRateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) PlayerProcessed(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.playersProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BattlesFolded(n int) {
	m.battlesFolded.Add(float64(n))
}

func (m *Metrics) CatalogLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.catalogCacheLookup.WithLabelValues(result).Inc()
}

func (m *Metrics) SnapshotCompleted(took time.Duration, decks int) {
	m.snapshotRuns.WithLabelValues("ok").Inc()
	m.snapshotDuration.Observe(took.Seconds())
	m.snapshotDecks.Set(float64(decks))
	m.snapshotLastUnix.SetToCurrentTime()
}

func (m *Metrics) SnapshotFailed() {
	m.snapshotRuns.WithLabelValues("failed").Inc()
}

var Module = fx.Provide(New)
