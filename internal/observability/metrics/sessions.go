package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SessionMetrics struct {
	registry *prometheus.Registry

	sessionsTotal    *prometheus.CounterVec
	sessionDuration  *prometheus.HistogramVec
	sessionsInFlight prometheus.Gauge
	turnsPerSession  *prometheus.HistogramVec
	queueLag         *prometheus.HistogramVec
}

func NewSessionMetrics(service string) *SessionMetrics {
	registry := prometheus.NewRegistry()

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "interrogator",
			Subsystem: "sessions",
			Name:      "processed_total",
			Help:      "Total processed interrogation sessions by status.",
		},
		[]string{"service", "status"},
	)
	sessionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "interrogator",
			Subsystem: "sessions",
			Name:      "duration_seconds",
			Help:      "Interrogation session duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	sessionsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "interrogator",
			Subsystem: "sessions",
			Name:      "in_flight",
			Help:      "Number of interrogation sessions currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsPerSession := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "interrogator",
			Subsystem: "sessions",
			Name:      "turns_used",
			Help:      "Question/answer turns used per completed session.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "interrogator",
			Subsystem: "sessions",
			Name:      "queue_lag_seconds",
			Help:      "Delay between session submission and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(sessionsTotal, sessionDuration, sessionsInFlight, turnsPerSession, queueLag)

	return &SessionMetrics{
		registry:         registry,
		sessionsTotal:    sessionsTotal,
		sessionDuration:  sessionDuration,
		sessionsInFlight: sessionsInFlight,
		turnsPerSession:  turnsPerSession,
		queueLag:         queueLag,
	}
}

func (m *SessionMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SessionMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *SessionMetrics) StartSession() {
	m.sessionsInFlight.Inc()
}

func (m *SessionMetrics) FinishSession(service string, duration time.Duration, turnsUsed int, err error) {
	m.sessionsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.sessionsTotal.WithLabelValues(service, status).Inc()
	m.sessionDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil && turnsUsed > 0 {
		m.turnsPerSession.WithLabelValues(service).Observe(float64(turnsUsed))
	}
}

func (m *SessionMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
