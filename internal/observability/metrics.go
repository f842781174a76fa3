package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted  *prometheus.CounterVec
	SessionItems     *prometheus.CounterVec
	DegradedSessions *prometheus.CounterVec
	Grades           *prometheus.CounterVec
	StoreErrors      *prometheus.CounterVec
	RemindersSent    prometheus.Counter
}

// NewMetrics registers the instruments with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Review sessions assembled by presentation mode.",
		}, []string{"mode"}),
		SessionItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_items_total",
			Help:      "Ayahs placed into sessions by status.",
		}, []string{"status"}),
		DegradedSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_sessions_total",
			Help:      "Sessions assembled in degraded mode by reason.",
		}, []string{"reason"}),
		Grades: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grades_total",
			Help:      "Gradings applied by quality.",
		}, []string{"quality"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Review item and daily log store failures by operation.",
		}, []string{"op"}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Due-review reminders delivered.",
		}),
	}
}

func (m *Metrics) SessionStarted(mode string, due, unseen int) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(mode).Inc()
	m.SessionItems.WithLabelValues("due").Add(float64(due))
	m.SessionItems.WithLabelValues("unseen").Add(float64(unseen))
}

func (m *Metrics) SessionDegraded(reason string) {
	if m == nil {
		return
	}
	m.DegradedSessions.WithLabelValues(reason).Inc()
}

func (m *Metrics) Graded(quality string) {
	if m == nil {
		return
	}
	m.Grades.WithLabelValues(quality).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

// MetricsHandler serves the metrics gathered by g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
