// Package slurm drives the SLURM command line surface: sbatch submission,
// squeue/sacct status queries and scancel cancellation, plus rendering of
// the submission script itself.
package slurm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

var submitResponseRe = regexp.MustCompile(`Submitted batch job (?P<jid>\d+)`)

type Slurm struct {
	executor Executor
}

func NewSlurm(executor Executor) *Slurm {
	return &Slurm{executor: executor}
}

// Submit hands a previously uploaded script to sbatch and parses the job
// identifier out of its response. A nonzero sbatch exit is an execution
// failure; a zero exit whose output does not match "Submitted batch job <n>"
// is a protocol mismatch. Both are SubmissionErrors, distinguished by the
// Mismatch flag.
func (s *Slurm) Submit(ctx context.Context, req *SubmitRequest) (string, error) {
	cmd := fmt.Sprintf("cd %q && sbatch %q", req.WorkDir, req.ScriptPath)
	res, err := s.executor.Exec(ctx, cmd)
	if err != nil {
		log.Errorf("submit failed: %s", err)
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &SubmissionError{
			Err:    fmt.Sprintf("sbatch exited with code %d", res.ExitCode),
			Stderr: strings.TrimSpace(res.Stderr),
		}
	}

	m := submitResponseRe.FindStringSubmatch(res.Stdout)
	if m == nil {
		return "", &SubmissionError{
			Err:      fmt.Sprintf("unexpected sbatch response %q", strings.TrimSpace(res.Stdout)),
			Stderr:   strings.TrimSpace(res.Stderr),
			Mismatch: true,
		}
	}
	return m[1], nil
}

// QueueState looks the job up in the live queue. An empty string means
// squeue no longer knows the job.
func (s *Slurm) QueueState(ctx context.Context, jobID string) (string, error) {
	cmd := fmt.Sprintf("squeue --job=%s -o '%%T' --noheader", jobID)
	res, err := s.executor.Exec(ctx, cmd)
	if err != nil {
		log.Errorf("squeue failed: %s", err)
		return "", err
	}
	// squeue exits nonzero for purged job ids; that is the same "not in the
	// live queue" answer as empty output.
	return strings.TrimSpace(res.Stdout), nil
}

// AccountingState looks the job up in the accounting database, the fallback
// once the live queue has forgotten it. An empty string means no record.
func (s *Slurm) AccountingState(ctx context.Context, jobID string) (string, error) {
	cmd := fmt.Sprintf("sacct -n -X -j %s -o State", jobID)
	res, err := s.executor.Exec(ctx, cmd)
	if err != nil {
		log.Errorf("sacct failed: %s", err)
		return "", err
	}
	if res.ExitCode != 0 {
		log.Warnf("sacct exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		return "", nil
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if state := strings.TrimSpace(line); state != "" {
			return state, nil
		}
	}
	return "", nil
}

// Status resolves a job identifier to a normalized Status: live queue first,
// then accounting, then Unknown.
func (s *Slurm) Status(ctx context.Context, jobID string) (Status, error) {
	raw, err := s.QueueState(ctx, jobID)
	if err != nil {
		return Unknown, err
	}
	if raw == "" {
		raw, err = s.AccountingState(ctx, jobID)
		if err != nil {
			return Unknown, err
		}
	}
	if raw == "" {
		return Unknown, nil
	}
	return MapState(raw), nil
}

// Cancel kills a job using the scancel command. scancel reporting the job as
// unknown or already finished is a success: the desired end state holds.
func (s *Slurm) Cancel(ctx context.Context, jobID string) error {
	cmd := fmt.Sprintf("scancel %s", jobID)
	res, err := s.executor.Exec(ctx, cmd)
	if err != nil {
		log.Errorf("cancel failed: %s", err)
		return err
	}
	if res.ExitCode != 0 && !isAlreadyGone(res.Stderr) {
		return &SubmissionError{
			Err:    fmt.Sprintf("scancel exited with code %d", res.ExitCode),
			Stderr: strings.TrimSpace(res.Stderr),
		}
	}
	return nil
}

func isAlreadyGone(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "invalid job id") ||
		strings.Contains(s, "already completing or completed")
}

// HealthCheck runs squeue to check that the scheduler answers at all.
func (s *Slurm) HealthCheck(ctx context.Context) error {
	res, err := s.executor.Exec(ctx, "squeue --noheader")
	if err != nil {
		log.Errorf("healthcheck failed: %s", err)
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("squeue exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}
