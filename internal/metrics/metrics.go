package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for fetchers and health probes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheHits     *prometheus.CounterVec   // labels: source
	CacheMisses   *prometheus.CounterVec   // labels: source
	FetchDuration *prometheus.HistogramVec // labels: source
	FetchErrors   *prometheus.CounterVec   // labels: source, kind
	Coalesced     *prometheus.CounterVec   // labels: source

	ProbeLatency *prometheus.HistogramVec // labels: api
	APIUp        *prometheus.GaugeVec     // labels: api

	StreamMessages   *prometheus.CounterVec // labels: exchange
	StreamReconnects *prometheus.CounterVec // labels: exchange

	SnapshotsTotal *prometheus.CounterVec // labels: result
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_cache_hits_total",
			Help: "Fetches served from a fresh cache entry",
		}, []string{"source"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_cache_misses_total",
			Help: "Fetches that went to the upstream API",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinpulse_upstream_fetch_duration_seconds",
			Help:    "Upstream fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_upstream_fetch_errors_total",
			Help: "Upstream fetch failures by kind",
		}, []string{"source", "kind"}),
		Coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_fetch_coalesced_total",
			Help: "Fetches that shared an in-flight upstream call",
		}, []string{"source"}),
		ProbeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinpulse_health_probe_latency_seconds",
			Help:    "Latency of successful health probes",
			Buckets: prometheus.DefBuckets,
		}, []string{"api"}),
		APIUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coinpulse_api_up",
			Help: "Upstream API status (1=online, 0=offline)",
		}, []string{"api"}),
		StreamMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_stream_messages_total",
			Help: "Ticker messages received over WebSocket",
		}, []string{"exchange"}),
		StreamReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_stream_reconnects_total",
			Help: "WebSocket reconnection attempts",
		}, []string{"exchange"}),
		SnapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpulse_snapshots_total",
			Help: "Market indicator snapshots by result (complete, partial, failed)",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheHits,
			m.CacheMisses,
			m.FetchDuration,
			m.FetchErrors,
			m.Coalesced,
			m.ProbeLatency,
			m.APIUp,
			m.StreamMessages,
			m.StreamReconnects,
			m.SnapshotsTotal,
		)
	}
	return m
}

func (m *Metrics) CacheHit(source string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(source).Inc()
}

func (m *Metrics) CacheMiss(source string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) FetchError(source, kind string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) FetchCoalesced(source string) {
	if m == nil {
		return
	}
	m.Coalesced.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveProbe(api string, online bool, latency time.Duration) {
	if m == nil {
		return
	}
	if online {
		m.APIUp.WithLabelValues(api).Set(1)
		m.ProbeLatency.WithLabelValues(api).Observe(latency.Seconds())
		return
	}
	m.APIUp.WithLabelValues(api).Set(0)
}

func (m *Metrics) StreamMessage(exchange string) {
	if m == nil {
		return
	}
	m.StreamMessages.WithLabelValues(exchange).Inc()
}

func (m *Metrics) StreamReconnect(exchange string) {
	if m == nil {
		return
	}
	m.StreamReconnects.WithLabelValues(exchange).Inc()
}

func (m *Metrics) Snapshot(result string) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.WithLabelValues(result).Inc()
}
