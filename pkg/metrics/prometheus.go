package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations *prometheus.CounterVec
	rsiValue     *prometheus.GaugeVec
	alertsTotal  *prometheus.CounterVec
	divergences  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rsipulse_observations_total",
				Help: "Total number of observations ingested",
			},
			[]string{"symbol", "timeframe"},
		),
		rsiValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rsipulse_rsi_value",
				Help: "Latest RSI value per tracked pair",
			},
			[]string{"symbol", "timeframe"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rsipulse_alerts_total",
				Help: "Total number of zone transition alerts",
			},
			[]string{"symbol", "zone"},
		),
		divergences: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rsipulse_divergences_total",
				Help: "Total number of divergence signals",
			},
			[]string{"symbol", "kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rsipulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rsipulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordObservation records an ingested observation.
func (r *Recorder) RecordObservation(symbol, timeframe string) {
	r.observations.WithLabelValues(symbol, timeframe).Inc()
}

// RecordRSI records the latest RSI value for a pair.
func (r *Recorder) RecordRSI(symbol, timeframe string, value float64) {
	r.rsiValue.WithLabelValues(symbol, timeframe).Set(value)
}

// RecordAlert records a zone transition alert.
func (r *Recorder) RecordAlert(symbol, zone string) {
	r.alertsTotal.WithLabelValues(symbol, zone).Inc()
}

// RecordDivergence records a divergence signal.
func (r *Recorder) RecordDivergence(symbol, kind string) {
	r.divergences.WithLabelValues(symbol, kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
