// Package metrics содержит prometheus-коллекторы планировщика и исполнителя кампаний.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outreach"

// Исходы запуска кампании.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics объединяет коллекторы исполнителя и планировщика.
type Metrics struct {
	runs        *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	runDuration prometheus.Histogram
	registered  prometheus.Gauge
	firings     prometheus.Counter
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaign_runs_total",
			Help:      "Campaign runs by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_requests_total",
			Help:      "Committed connection request attempts by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "campaign_run_duration_seconds",
			Help:      "Duration of campaign runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_registered_campaigns",
			Help:      "Campaigns currently registered in the scheduler.",
		}),
		firings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_firings_total",
			Help:      "Trigger firings dispatched by the scheduler.",
		}),
	}
	reg.MustRegister(m.runs, m.attempts, m.runDuration, m.registered, m.firings)
	return m
}

// ObserveRun фиксирует исход и длительность запуска.
func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}

// AddAttempts учитывает записанные попытки с указанным статусом.
func (m *Metrics) AddAttempts(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.attempts.WithLabelValues(status).Add(float64(n))
}

// SetRegistered выставляет число зарегистрированных кампаний.
func (m *Metrics) SetRegistered(n int) {
	if m == nil {
		return
	}
	m.registered.Set(float64(n))
}

// IncFirings учитывает одно срабатывание триггера.
func (m *Metrics) IncFirings() {
	if m == nil {
		return
	}
	m.firings.Inc()
}
