// Package metrics exposes Prometheus collectors for checks, notifications
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

const namespace = "cdtguard"

// Metrics holds the collectors registered on one registry. It implements
// tracker.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	accountsChecked *prometheus.CounterVec
	usagePercent    *prometheus.GaugeVec
	ruleTransitions *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

var _ tracker.Recorder = (*Metrics)(nil)

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		accountsChecked: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_accounts_total",
				Help:      "Accounts processed by the check loop",
			},
			[]string{"result"},
		),
		usagePercent: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "usage_percent",
				Help:      "Last observed CDT traffic usage percentage",
			},
			[]string{"account"},
		),
		ruleTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_transitions_total",
				Help:      "Ingress rule decisions by action",
			},
			[]string{"action"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification attempts by channel and result",
			},
			[]string{"channel", "result"},
		),
		jobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of check and digest passes",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"job"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) AccountChecked(_ string, failed bool) {
	m.accountsChecked.WithLabelValues(result(!failed)).Inc()
}

func (m *Metrics) Usage(account string, pct float64) {
	m.usagePercent.WithLabelValues(account).Set(pct)
}

func (m *Metrics) RuleTransition(_ string, action tracker.Action) {
	m.ruleTransitions.WithLabelValues(string(action)).Inc()
}

func (m *Metrics) Notification(channel string, ok bool) {
	m.notifications.WithLabelValues(channel, result(ok)).Inc()
}

// ObserveJob records how long a job took.
func (m *Metrics) ObserveJob(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests by method, matched route pattern and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unknown"
		}
		m.httpRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(wrapped.statusCode)).Inc()
	})
}
