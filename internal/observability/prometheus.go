package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports engine and gateway metrics through a Prometheus
// registry, for deployments scraped by a metrics server.
type PrometheusRecorder struct {
	commits      *prometheus.CounterVec
	remotes      *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	connectivity prometheus.Gauge
}

// NewPrometheusRecorder constructs a recorder and registers its collectors
// with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "euclidcore",
			Name:      "commits_total",
			Help:      "Committed construction elements by kind.",
		}, []string{"kind"}),
		remotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "euclidcore",
			Name:      "remote_calls_total",
			Help:      "Remote mirror/unlock/probe call outcomes.",
		}, []string{"op", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "euclidcore",
			Name:      "remote_call_duration_seconds",
			Help:      "Remote call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		connectivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "euclidcore",
			Name:      "gateway_online",
			Help:      "1 when the sync gateway is connected, 0 when offline.",
		}),
	}
	for _, c := range []prometheus.Collector{r.commits, r.remotes, r.durations, r.connectivity} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveCommit implements MetricsRecorder.
func (r *PrometheusRecorder) ObserveCommit(kind string, _ time.Duration) {
	if kind == "" {
		return
	}
	r.commits.WithLabelValues(kind).Inc()
}

// ObserveRemote implements MetricsRecorder.
func (r *PrometheusRecorder) ObserveRemote(op string, success bool, duration time.Duration) {
	if op == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.remotes.WithLabelValues(op, status).Inc()
	r.durations.WithLabelValues(op).Observe(duration.Seconds())
}

// SetConnectivity implements MetricsRecorder.
func (r *PrometheusRecorder) SetConnectivity(online bool) {
	if online {
		r.connectivity.Set(1)
	} else {
		r.connectivity.Set(0)
	}
}
