package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

func newTestService(t *testing.T, lock Lock, timeout time.Duration, jobs ...Job) *Service {
	t.Helper()
	set, err := NewJobs(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Jobs:       set,
		Lock:       lock,
		JobTimeout: timeout,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsEveryJobDespiteFailures(t *testing.T) {
	var order []string
	record := func(name string, err error) Job {
		return JobFunc{JobName: name, Fn: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}
	lock := &fakeLock{}
	svc := newTestService(t, lock, 0, record("first", errors.New("boom")), record("second", nil))

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	ran := false
	svc := newTestService(t, &fakeLock{held: true}, 0, JobFunc{JobName: "job", Fn: func(context.Context) error {
		ran = true
		return nil
	}})

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.False(t, ran)
}

func TestRunOnceSurfacesLockErrors(t *testing.T) {
	svc := newTestService(t, &fakeLock{acquireErr: errors.New("redis down")}, 0)
	_, err := svc.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunOnceAppliesJobTimeout(t *testing.T) {
	svc := newTestService(t, &fakeLock{}, 10*time.Millisecond, JobFunc{JobName: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.ErrorIs(t, report.Results[0].Err, context.DeadlineExceeded)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	svc := newTestService(t, &fakeLock{}, 0, JobFunc{JobName: "job", Fn: func(context.Context) error {
		runs++
		cancel()
		return nil
	}})

	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runs)
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.New(logger.Options{Output: io.Discard})})
	assert.Error(t, err)
}
