package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
)

const defaultInterval = time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     *Jobs
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run. Zero means the job inherits the cycle context.
	JobTimeout time.Duration
}

// Service runs the subscription maintenance jobs on a fixed interval.
type Service struct {
	logg       *logger.Logger
	jobs       *Jobs
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

// JobResult is the outcome of one job within a cycle.
type JobResult struct {
	Job      string
	Duration time.Duration
	Err      error
}

// CycleReport summarizes one pass over the registered jobs.
type CycleReport struct {
	StartedAt time.Time
	Skipped   bool
	Results   []JobResult
}

// Failed counts the jobs that returned an error.
func (r CycleReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	jobs := params.Jobs
	if jobs == nil {
		jobs, _ = NewJobs()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:       params.Logger,
		jobs:       jobs,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}, nil
}

// Run executes a cycle immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	report, err := s.RunOnce(ctx)
	s.logCycle(ctx, report, err)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report, err := s.RunOnce(ctx)
			s.logCycle(ctx, report, err)
		}
	}
}

// RunOnce takes the leader lock and runs every job. A failing job does not
// stop the ones after it. The cycle is skipped when another worker holds the lock.
func (s *Service) RunOnce(ctx context.Context) (CycleReport, error) {
	report := CycleReport{StartedAt: s.now().UTC()}

	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("cron lock: %w", err)
	}
	if !held {
		report.Skipped = true
		s.metrics.CycleSkipped()
		return report, nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cron.lock_release_failed")
		}
	}()

	for _, job := range s.jobs.List() {
		report.Results = append(report.Results, s.runJob(ctx, job))
	}
	return report, nil
}

func (s *Service) runJob(ctx context.Context, job Job) JobResult {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, s.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(jobCtx)
	res := JobResult{Job: job.Name(), Duration: time.Since(start), Err: err}

	s.metrics.ObserveRun(res.Job, res.Duration, err, s.now())
	doneCtx := s.logg.WithField(jobCtx, "duration_ms", res.Duration.Milliseconds())
	if err != nil {
		s.logg.Error(doneCtx, "cron.job_failed", err)
		return res
	}
	s.logg.Info(doneCtx, "cron.job_completed")
	return res
}

func (s *Service) logCycle(ctx context.Context, report CycleReport, err error) {
	if err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
		return
	}
	if report.Skipped {
		s.logg.Info(ctx, "cron.cycle_skipped_lock_held")
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":   len(report.Results),
		"failed": report.Failed(),
	}), "cron.cycle_completed")
}
