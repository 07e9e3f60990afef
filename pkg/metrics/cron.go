package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const cronNamespace = "saastools_cron"

// Job outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// CronJobMetrics records outcomes of scheduled maintenance jobs. The zero
// value and a nil pointer both discard everything.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	affected    *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	skipped     prometheus.Counter
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cronNamespace,
			Name:      "job_runs_total",
			Help:      "Cron job executions by job and outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cronNamespace,
			Name:      "job_duration_seconds",
			Help:      "Cron job wall time in seconds.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 30, 120, 600},
		}, []string{"job"}),
		affected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cronNamespace,
			Name:      "job_rows_affected_total",
			Help:      "Rows changed by cron jobs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cronNamespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per job.",
		}, []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cronNamespace,
			Name:      "cycles_skipped_total",
			Help:      "Cycles skipped because another worker held the leader lock.",
		}),
	}
	reg.MustRegister(m.runs, m.duration, m.affected, m.lastSuccess, m.skipped)
	return m
}

// ObserveRun records one finished job. Deadline errors count as timeouts.
func (c *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, err error, finished time.Time) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())

	switch {
	case err == nil:
		c.runs.WithLabelValues(job, OutcomeSuccess).Inc()
		c.lastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
	case errors.Is(err, context.DeadlineExceeded):
		c.runs.WithLabelValues(job, OutcomeTimeout).Inc()
	default:
		c.runs.WithLabelValues(job, OutcomeFailure).Inc()
	}
}

func (c *CronJobMetrics) CycleSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

// AddAffected records how many rows a job changed.
func (c *CronJobMetrics) AddAffected(job string, rows int64) {
	if c == nil || c.affected == nil || rows <= 0 {
		return
	}
	c.affected.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
