package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comet-hpc/comet/runner"
	"github.com/comet-hpc/comet/slurm"
	"github.com/comet-hpc/comet/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "comet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleJob(id string) *runner.Job {
	return &runner.Job{
		JobID:       id,
		Name:        "job_20250101T000000_deadbeef",
		Queue:       "gp",
		Account:     "alice",
		RemoteDir:   "/scratch/comet/gp_alice_" + id,
		OutFile:     "/scratch/comet/gp_alice_" + id + "/job.out",
		ErrFile:     "/scratch/comet/gp_alice_" + id + "/job.err",
		Status:      slurm.Pending,
		SubmittedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Outputs:     []string{"model.pt", "metrics.json"},
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := openStore(t)
	job := sampleJob("482193")
	require.NoError(t, s.Save(job))

	got, err := s.Get("482193")
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestSaveOverwrites(t *testing.T) {
	s := openStore(t)
	job := sampleJob("482193")
	require.NoError(t, s.Save(job))

	job.Status = slurm.Completed
	job.CleanupDone = true
	require.NoError(t, s.Save(job))

	got, err := s.Get("482193")
	require.NoError(t, err)
	assert.Equal(t, slurm.Completed, got.Status)
	assert.True(t, got.CleanupDone)
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.Get("nope")
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)
	older := sampleJob("1")
	older.SubmittedAt = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	newer := sampleJob("2")
	newer.SubmittedAt = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(older))
	require.NoError(t, s.Save(newer))

	jobs, err := s.List()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "2", jobs[0].JobID)
	assert.Equal(t, "1", jobs[1].JobID)
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Save(sampleJob("482193")))
	require.NoError(t, s.Delete("482193"))

	_, err := s.Get("482193")
	assert.Error(t, err)

	// Deleting an unknown id is not an error.
	assert.NoError(t, s.Delete("482193"))
}

func TestReopenKeepsJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comet.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(sampleJob("482193")))
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("482193")
	require.NoError(t, err)
	assert.Equal(t, "482193", got.JobID)
}
