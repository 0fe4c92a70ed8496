package shard

import "github.com/prometheus/client_golang/prometheus"

// Metric names, all in the "shard" namespace.
const (
	MetricReads        = "reads_total"
	MetricCacheLookups = "cache_lookups_total"
	MetricLoadDuration = "load_duration_seconds"
)

// Read outcomes, cache results and load modes used as label values.
const (
	OutcomePresent = "present"
	OutcomeAbsent  = "absent"
	OutcomeError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"

	ModeParallel = "parallel"
	ModeSerial   = "serial"
)

// Metrics holds the collectors a Reader updates.
type Metrics struct {
	// Reads counts per-file dataset reads by outcome.
	Reads *prometheus.CounterVec

	// CacheLookups counts Get calls by cache result.
	CacheLookups *prometheus.CounterVec

	// LoadDuration observes whole-set loads by mode.
	LoadDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shard",
				Name:      MetricReads,
				Help:      "Per-file dataset reads by outcome.",
			},
			[]string{"outcome"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shard",
				Name:      MetricCacheLookups,
				Help:      "Dataset cache lookups by result.",
			},
			[]string{"result"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shard",
				Name:      MetricLoadDuration,
				Help:      "Time to load and merge a dataset across the file set.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"mode"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Reads, m.CacheLookups, m.LoadDuration)
	}
	return m
}
