package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobsKeepsOrderAndCopies(t *testing.T) {
	a := JobFunc{JobName: "b-job"}
	b := JobFunc{JobName: "a-job"}
	jobs, err := NewJobs(a, nil, b)
	require.NoError(t, err)

	list := jobs.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b-job", list[0].Name())
	assert.Equal(t, []string{"a-job", "b-job"}, jobs.Names())

	list[0] = nil
	assert.NotNil(t, jobs.List()[0])
}

func TestJobsRejectsDuplicateAndBlankNames(t *testing.T) {
	_, err := NewJobs(JobFunc{JobName: "expiry"}, JobFunc{JobName: "expiry"})
	require.Error(t, err)

	jobs, err := NewJobs()
	require.NoError(t, err)
	assert.Error(t, jobs.Add(JobFunc{JobName: "  "}))
	assert.Error(t, jobs.Add(nil))
	assert.Equal(t, 0, jobs.Len())
}

func TestJobFuncRun(t *testing.T) {
	boom := errors.New("boom")
	assert.ErrorIs(t, JobFunc{JobName: "x", Fn: func(context.Context) error { return boom }}.Run(context.Background()), boom)
	assert.NoError(t, JobFunc{JobName: "noop"}.Run(context.Background()))
}
