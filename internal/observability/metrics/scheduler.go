package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SchedulerMetrics tracks background job executions.
type SchedulerMetrics struct {
	runs     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	timeouts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	schedulerOnce sync.Once
	schedulerInst *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler metrics.
func Scheduler() *SchedulerMetrics {
	schedulerOnce.Do(func() {
		schedulerInst = &SchedulerMetrics{
			runs: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "condominio",
				Subsystem: "scheduler",
				Name:      "job_runs_total",
				Help:      "Scheduler job executions.",
			}, []string{"job"}),
			errors: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "condominio",
				Subsystem: "scheduler",
				Name:      "job_errors_total",
				Help:      "Scheduler job failures.",
			}, []string{"job"}),
			timeouts: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "condominio",
				Subsystem: "scheduler",
				Name:      "job_timeouts_total",
				Help:      "Scheduler jobs cut off by their deadline.",
			}, []string{"job"}),
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "condominio",
				Subsystem: "scheduler",
				Name:      "job_duration_seconds",
				Help:      "Scheduler job durations.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			}, []string{"job"}),
		}
	})
	return schedulerInst
}

func (m *SchedulerMetrics) IncJobRun(job string)     { m.runs.WithLabelValues(job).Inc() }
func (m *SchedulerMetrics) IncJobError(job string)   { m.errors.WithLabelValues(job).Inc() }
func (m *SchedulerMetrics) IncJobTimeout(job string) { m.timeouts.WithLabelValues(job).Inc() }

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}
