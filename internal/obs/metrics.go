// Package obs carries the gateway's ambient observability: Prometheus
// metrics, a logr.Logger constructor, and an optional operational HTTP
// server, following the shape the teacher's sidecar package uses for its
// own metrics and `/__/` status endpoint.
package obs

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "panzer"
)

// Metrics registers and updates every gauge/counter the gateway exposes.
// It implements quota.Metrics structurally, so it can be passed directly
// to quota.New without either package importing the other.
type Metrics struct {
	WindowUsage      *prometheus.GaugeVec
	Admissions       *prometheus.CounterVec
	Reconciliations  *prometheus.CounterVec
	ClockOffset      prometheus.Gauge
	ExchangeRequests *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
	ExchangeInFlight prometheus.Gauge
}

// NewMetrics constructs a Metrics with unregistered collectors. Register
// attaches them all to reg.
func NewMetrics() *Metrics {
	return &Metrics{
		WindowUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "quota", "window_usage"),
			Help: "Current usage of a rate-limit window's bucket, by window name.",
		}, []string{"window"}),
		Admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "", "admission_total"),
			Help: "Total admission decisions, by window and outcome.",
		}, []string{"window", "outcome"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "", "reconciliations_total"),
			Help: "Total rate-limit window reconciliations from response headers, by window.",
		}, []string{"header"}),
		ClockOffset: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "", "clock_offset_milliseconds"),
			Help: "Signed offset between the local clock and the exchange's clock.",
		}),
		ExchangeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "exchange", "requests_total"),
			Help: "Total requests to the exchange, by HTTP method and status code.",
		}, []string{"code", "method"}),
		ExchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: prometheus.BuildFQName(namespace, "exchange", "request_duration_seconds"),
			Help: "A histogram of request latencies to the exchange.",
		}, []string{"method"}),
		ExchangeInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "exchange", "in_flight_requests"),
			Help: "Number of requests to the exchange currently in-flight.",
		}),
	}
}

// Register attaches every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.WindowUsage, m.Admissions, m.Reconciliations, m.ClockOffset,
		m.ExchangeRequests, m.ExchangeDuration, m.ExchangeInFlight,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// SetWindowUsage implements quota.Metrics.
func (m *Metrics) SetWindowUsage(window string, used, limit int) {
	_ = limit
	m.WindowUsage.WithLabelValues(window).Set(float64(used))
}

// IncAdmission implements quota.Metrics.
func (m *Metrics) IncAdmission(window, outcome string) {
	m.Admissions.WithLabelValues(window, outcome).Inc()
}

// IncReconciliation implements quota.Metrics.
func (m *Metrics) IncReconciliation(header string) {
	m.Reconciliations.WithLabelValues(header).Inc()
}

// SetClockOffset records the latest clock offset in milliseconds.
func (m *Metrics) SetClockOffset(offsetMs int64) {
	m.ClockOffset.Set(float64(offsetMs))
}
