package runner

import (
	"time"

	"github.com/comet-hpc/comet/slurm"
)

// Job is the descriptor returned by Run: the caller's only handle to the
// remote job. RemoteDir is unique per submission and never reused.
type Job struct {
	JobID       string       `json:"job_id"`
	Name        string       `json:"name"`
	Queue       string       `json:"queue"`
	Account     string       `json:"account"`
	RemoteDir   string       `json:"remote_dir"`
	OutFile     string       `json:"out_file"`
	ErrFile     string       `json:"err_file"`
	Status      slurm.Status `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	// CleanupDone records that the remote directory was already removed, so
	// cleanup fires at most once per job.
	CleanupDone bool `json:"cleanup_done"`
	// Outputs are remote paths (relative to RemoteDir) the caller wants
	// copied back after execution.
	Outputs []string `json:"outputs,omitempty"`
}
