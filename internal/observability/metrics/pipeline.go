package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks per-question pipeline behavior. All observer methods
// are safe on a nil receiver so metrics stay optional at wiring time.
type PipelineMetrics struct {
	registry *prometheus.Registry

	questionsTotal   *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	retrievedChunks  prometheus.Histogram
	escalationsTotal prometheus.Counter
	fallbacksTotal   *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	questionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ulrag",
			Subsystem: "pipeline",
			Name:      "questions_total",
			Help:      "Questions handled, by routed intent.",
		},
		[]string{"service", "intent"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ulrag",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	retrievedChunks := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ulrag",
			Subsystem: "pipeline",
			Name:      "retrieved_chunks",
			Help:      "Chunks returned per retrieval call.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 12, 16, 24, 32},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	escalationsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ulrag",
			Subsystem: "pipeline",
			Name:      "safety_escalations_total",
			Help:      "Questions short-circuited by the safety gate.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ulrag",
			Subsystem: "pipeline",
			Name:      "model_fallbacks_total",
			Help:      "Model-service fallbacks taken, by component.",
		},
		[]string{"service", "component"},
	)

	registry.MustRegister(questionsTotal, stageDuration, retrievedChunks, escalationsTotal, fallbacksTotal)

	return &PipelineMetrics{
		registry:         registry,
		questionsTotal:   questionsTotal,
		stageDuration:    stageDuration,
		retrievedChunks:  retrievedChunks,
		escalationsTotal: escalationsTotal,
		fallbacksTotal:   fallbacksTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) QuestionHandled(service, intent string) {
	if m == nil {
		return
	}
	m.questionsTotal.WithLabelValues(service, intent).Inc()
}

func (m *PipelineMetrics) ObserveStage(service, stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveRetrieved(count int) {
	if m == nil {
		return
	}
	m.retrievedChunks.Observe(float64(count))
}

func (m *PipelineMetrics) Escalation() {
	if m == nil {
		return
	}
	m.escalationsTotal.Inc()
}

func (m *PipelineMetrics) ModelFallback(service, component string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(service, component).Inc()
}
