// Package store is the local job registry: submitted descriptors are the
// only handle to their remote jobs, so the CLI persists them in an embedded
// SQLite database and addresses them by job id across process restarts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/comet-hpc/comet/runner"
	"github.com/comet-hpc/comet/slurm"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id       TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	queue        TEXT NOT NULL,
	account      TEXT NOT NULL,
	remote_dir   TEXT NOT NULL,
	out_file     TEXT NOT NULL,
	err_file     TEXT NOT NULL,
	status       TEXT NOT NULL,
	submitted_at TEXT NOT NULL,
	cleanup_done INTEGER NOT NULL DEFAULT 0
);
`

// Older databases are migrated in place; duplicate-column errors mean the
// migration already ran.
var migrations = []string{
	`ALTER TABLE jobs ADD COLUMN outputs TEXT`,
}

type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.comet/comet.db, creating the directory if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".comet")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "comet.db"), nil
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "init %s", path)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil && !strings.Contains(err.Error(), "duplicate column") {
			db.Close()
			return nil, errors.Wrapf(err, "migrate %s", path)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a descriptor keyed by job id.
func (s *Store) Save(job *runner.Job) error {
	_, err := s.db.Exec(`
INSERT OR REPLACE INTO jobs
	(job_id, name, queue, account, remote_dir, out_file, err_file, status, submitted_at, cleanup_done, outputs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID,
		job.Name,
		job.Queue,
		job.Account,
		job.RemoteDir,
		job.OutFile,
		job.ErrFile,
		job.Status.String(),
		job.SubmittedAt.UTC().Format(time.RFC3339),
		boolToInt(job.CleanupDone),
		strings.Join(job.Outputs, "\n"),
	)
	return errors.Wrapf(err, "save job %s", job.JobID)
}

// Get loads one descriptor by job id.
func (s *Store) Get(jobID string) (*runner.Job, error) {
	row := s.db.QueryRow(`
SELECT job_id, name, queue, account, remote_dir, out_file, err_file, status, submitted_at, cleanup_done, outputs
FROM jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s is not in the local registry", jobID)
	}
	return job, err
}

// List returns every stored descriptor, most recent first.
func (s *Store) List() ([]*runner.Job, error) {
	rows, err := s.db.Query(`
SELECT job_id, name, queue, account, remote_dir, out_file, err_file, status, submitted_at, cleanup_done, outputs
FROM jobs ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	defer rows.Close()

	var jobs []*runner.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Delete removes a descriptor from the registry. The remote job, if any, is
// untouched.
func (s *Store) Delete(jobID string) error {
	_, err := s.db.Exec(`DELETE FROM jobs WHERE job_id = ?`, jobID)
	return errors.Wrapf(err, "delete job %s", jobID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*runner.Job, error) {
	var job runner.Job
	var status, submittedAt string
	var cleanupDone int
	var outputs sql.NullString

	err := row.Scan(
		&job.JobID, &job.Name, &job.Queue, &job.Account,
		&job.RemoteDir, &job.OutFile, &job.ErrFile,
		&status, &submittedAt, &cleanupDone, &outputs,
	)
	if err != nil {
		return nil, err
	}

	job.Status = slurm.ParseStatus(status)
	job.CleanupDone = cleanupDone != 0
	if t, err := time.Parse(time.RFC3339, submittedAt); err == nil {
		job.SubmittedAt = t
	}
	if outputs.Valid && outputs.String != "" {
		job.Outputs = strings.Split(outputs.String, "\n")
	}
	return &job, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
