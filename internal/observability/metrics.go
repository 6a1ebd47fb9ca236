package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard service.
type Metrics struct {
	// Highlight synchronizer.
	HighlightAttempts   *prometheus.CounterVec // labels: strategy={simple,full,paint_only,forced}, outcome={ok,error}
	HighlightRetries    prometheus.Counter
	StaleRetriesDropped prometheus.Counter

	// Feature pipeline.
	FeatureRebuilds prometheus.Counter
	MappableRecords prometheus.Gauge

	// Volunteer marker lifecycle.
	VolunteerRefreshes      *prometheus.CounterVec // labels: outcome={ok,fetch_error}
	VolunteerPingsDiscarded prometheus.Counter
	VolunteerMarkers        prometheus.Gauge
	RefreshDuration         prometheus.Histogram

	// Remote sources and outbound pushes.
	SourceFallbacks *prometheus.CounterVec // labels: source={records,villages,volunteers}, transport={retry,csv,local,empty}
	PushFallbacks   *prometheus.CounterVec // labels: target={location_retry,webhook}
	PushesSent      *prometheus.CounterVec // labels: kind={location,notification}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HighlightAttempts,
		m.HighlightRetries,
		m.StaleRetriesDropped,
		m.FeatureRebuilds,
		m.MappableRecords,
		m.VolunteerRefreshes,
		m.VolunteerPingsDiscarded,
		m.VolunteerMarkers,
		m.RefreshDuration,
		m.SourceFallbacks,
		m.PushFallbacks,
		m.PushesSent,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HighlightAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "highlight_attempts_total",
			Help:      "Highlight applications by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		HighlightRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "highlight_retries_total",
			Help:      "Retry ladder rungs taken because the map was not ready.",
		}),
		StaleRetriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "highlight_stale_retries_dropped_total",
			Help:      "Scheduled retries dropped because a newer highlight superseded them.",
		}),
		FeatureRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "feature_rebuilds_total",
			Help:      "Wholesale feature-collection rebuilds (zoom end, restore, style switch).",
		}),
		MappableRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aidmap",
			Name:      "mappable_records",
			Help:      "Records with usable coordinates after backfill.",
		}),
		VolunteerRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "volunteer_refreshes_total",
			Help:      "Volunteer marker refresh cycles by outcome.",
		}, []string{"outcome"}),
		VolunteerPingsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "volunteer_pings_discarded_total",
			Help:      "Pings dropped for stale age or unusable coordinates.",
		}),
		VolunteerMarkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aidmap",
			Name:      "volunteer_markers",
			Help:      "Volunteer markers in the current rendered set.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aidmap",
			Name:      "volunteer_refresh_duration_seconds",
			Help:      "Duration of a fetch-parse-filter-render volunteer cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SourceFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "source_fallbacks_total",
			Help:      "Fallback transports taken while fetching remote data.",
		}, []string{"source", "transport"}),
		PushFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "push_fallbacks_total",
			Help:      "Fallback deliveries taken while pushing to the central service.",
		}, []string{"target"}),
		PushesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aidmap",
			Name:      "pushes_sent_total",
			Help:      "Successful outbound deliveries by kind.",
		}, []string{"kind"}),
	}
}
