package api

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func TestScheduler_AddJobRejectsBadSpec(t *testing.T) {
	sched := NewScheduler(zerolog.Nop())

	assert.Error(t, sched.AddJob("every now and then", &countingJob{}))
	assert.NoError(t, sched.AddJob("@every 1h", &countingJob{}))
	assert.NoError(t, sched.AddJob("0 30 * * * *", &countingJob{}))
}

func TestScheduler_RunNow(t *testing.T) {
	sched := NewScheduler(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	err := sched.RunNow(job)

	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, job.runs)
}

func TestScheduler_StartStop(t *testing.T) {
	sched := NewScheduler(zerolog.Nop())
	require.NoError(t, sched.AddJob("@every 1h", &countingJob{}))

	sched.Start()
	sched.Stop()
}

func TestSnapshotJob_ArchivesReport(t *testing.T) {
	// GIVEN: a loaded scenario
	s := newTestServer(t)
	loadKoica(t, s)
	job := NewSnapshotJob(s.handler)

	// WHEN: the job runs outside its schedule
	require.NoError(t, NewScheduler(zerolog.Nop()).RunNow(job))

	// THEN: a snapshot with the current counts exists
	latest, err := s.handler.Store.LatestSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "report-snapshot", job.Name())
	assert.Equal(t, 1, latest.Report.TotalMembers)
}
