// filename: internal/router/metrics.go
package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты для меток events_total и builds_total
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDropped = "dropped"
)

// Metrics метрики маршрутизатора:
//   - <ns>_<sub>_events_total{result}
//   - <ns>_<sub>_evaluation_duration_seconds
//   - <ns>_<sub>_builds_total{result}
//   - <ns>_<sub>_environment_assets
//   - <ns>_<sub>_queue_depth
type Metrics struct {
	eventsTotal        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	buildsTotal        *prometheus.CounterVec
	environmentAssets  prometheus.Gauge
	queueDepth         prometheus.Gauge
}

// NewMetrics создает и регистрирует метрики в реестре // v1.0
func NewMetrics(namespace, subsystem string, registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Total number of processed events by result",
			},
			[]string{"result"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of environment evaluation per event",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
			},
		),
		buildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "builds_total",
				Help:      "Total number of environment builds by result",
			},
			[]string{"result"},
		),
		environmentAssets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "environment_assets",
				Help:      "Number of assets in the active environment",
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "queue_depth",
				Help:      "Number of events waiting in the worker queue",
			},
		),
	}

	registry.MustRegister(
		m.eventsTotal,
		m.evaluationDuration,
		m.buildsTotal,
		m.environmentAssets,
		m.queueDepth,
	)
	return m
}

// RecordEvaluation учитывает оценку события
func (m *Metrics) RecordEvaluation(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	m.eventsTotal.WithLabelValues(result).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordDropped учитывает событие, отброшенное при полной очереди
func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(ResultDropped).Inc()
}

// RecordBuild учитывает сборку окружения
func (m *Metrics) RecordBuild(err error, assets int) {
	if m == nil {
		return
	}
	if err != nil {
		m.buildsTotal.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.buildsTotal.WithLabelValues(ResultSuccess).Inc()
	m.environmentAssets.Set(float64(assets))
}

// SetQueueDepth обновляет глубину очереди
func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
