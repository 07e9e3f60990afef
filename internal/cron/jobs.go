package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Job is one unit of maintenance work run on every cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function into a Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f JobFunc) Name() string { return f.JobName }

func (f JobFunc) Run(ctx context.Context) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(ctx)
}

// Jobs is an ordered set of uniquely named jobs.
type Jobs struct {
	order []Job
	names map[string]struct{}
}

// NewJobs validates and orders the provided jobs. Nil entries are skipped.
func NewJobs(jobs ...Job) (*Jobs, error) {
	set := &Jobs{names: map[string]struct{}{}}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := set.Add(job); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add appends a job, rejecting blank and duplicate names.
func (j *Jobs) Add(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, dup := j.names[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	j.names[name] = struct{}{}
	j.order = append(j.order, job)
	return nil
}

// List returns the jobs in registration order.
func (j *Jobs) List() []Job {
	out := make([]Job, len(j.order))
	copy(out, j.order)
	return out
}

// Names returns the registered job names sorted alphabetically.
func (j *Jobs) Names() []string {
	out := make([]string, 0, len(j.names))
	for name := range j.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len reports how many jobs are registered.
func (j *Jobs) Len() int { return len(j.order) }
