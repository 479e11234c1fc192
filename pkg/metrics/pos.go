package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics records transaction commit outcomes and read-cache traffic.
type POSMetrics struct {
	commitDuration *prometheus.HistogramVec
	commitSuccess  *prometheus.CounterVec
	commitPartial  *prometheus.CounterVec
	commitFailure  *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
}

// NewPOSMetrics registers the engine metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_commit_duration_seconds",
		Help:    "Duration of transaction commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	commitSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_commit_success",
		Help: "Fully reconciled transaction commits.",
	}, []string{"kind"})
	commitPartial := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_commit_partial",
		Help: "Commits persisted with incomplete side effects.",
	}, []string{"kind", "step"})
	commitFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_commit_failure",
		Help: "Commits rejected before the record was persisted.",
	}, []string{"kind"})
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cache_hits",
		Help: "Read-cache hits by entity.",
	}, []string{"entity"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cache_misses",
		Help: "Read-cache misses (stale or absent) by entity.",
	}, []string{"entity"})
	reg.MustRegister(commitDuration, commitSuccess, commitPartial, commitFailure, cacheHits, cacheMisses)
	return &POSMetrics{
		commitDuration: commitDuration,
		commitSuccess:  commitSuccess,
		commitPartial:  commitPartial,
		commitFailure:  commitFailure,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
	}
}

// ObserveCommitDuration records how long the named commit kind took.
func (m *POSMetrics) ObserveCommitDuration(kind string, duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncCommitSuccess increments the success counter for the named commit kind.
func (m *POSMetrics) IncCommitSuccess(kind string) {
	if m == nil || m.commitSuccess == nil {
		return
	}
	m.commitSuccess.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCommitPartial increments the partial counter for the failed step.
func (m *POSMetrics) IncCommitPartial(kind, step string) {
	if m == nil || m.commitPartial == nil {
		return
	}
	m.commitPartial.WithLabelValues(normalizeLabel(kind), normalizeLabel(step)).Inc()
}

// IncCommitFailure increments the pre-persist failure counter.
func (m *POSMetrics) IncCommitFailure(kind string) {
	if m == nil || m.commitFailure == nil {
		return
	}
	m.commitFailure.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheHit increments the hit counter for the entity.
func (m *POSMetrics) IncCacheHit(entity string) {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncCacheMiss increments the miss counter for the entity.
func (m *POSMetrics) IncCacheMiss(entity string) {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.WithLabelValues(normalizeLabel(entity)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
