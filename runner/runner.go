// Package runner composes the remote session, the script renderer and the
// scheduler client into the job lifecycle: submit, poll, fetch logs, cancel,
// clean up. Every call that touches remote state opens a fresh, short-lived
// session scoped to that call.
package runner

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/comet-hpc/comet/config"
	"github.com/comet-hpc/comet/payload"
	"github.com/comet-hpc/comet/remote"
	"github.com/comet-hpc/comet/slurm"
)

// Session is the slice of remote.Session the runner needs. Tests substitute
// a fake; production code always gets the real one from remote.Dial.
type Session interface {
	Exec(ctx context.Context, cmd string) (remote.Result, error)
	Upload(data []byte, remotePath string) error
	Download(remotePath string) ([]byte, error)
	ReadFrom(remotePath string, offset int64) ([]byte, int64, error)
	MkdirAll(remotePath string) error
	RemoveAll(ctx context.Context, remotePath string) error
	Ping(ctx context.Context) error
	Close() error
}

type Client struct {
	cfg  *config.Config
	dial func(ctx context.Context) (Session, error)
}

func New(cfg *config.Config) *Client {
	return NewWithDial(cfg, func(ctx context.Context) (Session, error) {
		return remote.Dial(ctx, cfg)
	})
}

// NewWithDial substitutes the session factory, for tests and for callers
// with their own transport.
func NewWithDial(cfg *config.Config, dial func(ctx context.Context) (Session, error)) *Client {
	return &Client{cfg: cfg, dial: dial}
}

// Verify opens a session, round-trips a command and makes sure the remote
// base path exists. Called once after configuration is loaded.
func (c *Client) Verify(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	sess, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Ping(ctx); err != nil {
		return err
	}
	return sess.MkdirAll(c.cfg.RemoteBasePath)
}

// Request describes one procedure invocation to delegate to the cluster.
type Request struct {
	ModulePath string
	Function   string
	Args       []any
	Kwargs     map[string]any

	Queue   string
	Account string

	Partition string
	Nodes     int
	CPUs      int
	GPUs      int
	Exclusive bool
	Modules   []string
	VenvPath  string

	// LocalModuleDir, when set, is archived and extracted into the remote
	// job directory so the module is importable there.
	LocalModuleDir string
	// Outputs are remote paths (relative to the job directory) to copy back
	// with FetchOutputs after the job finishes.
	Outputs []string
}

func (r *Request) applyDefaults(cfg *config.Config) {
	if r.Partition == "" {
		r.Partition = cfg.DefaultPartition
	}
	if r.Nodes == 0 {
		r.Nodes = 1
	}
	if r.CPUs == 0 {
		r.CPUs = 1
	}
}

// jobToken returns the submission-local unique suffix: a UTC timestamp for
// the human plus a random component against collisions within one instant.
func jobToken(now time.Time) string {
	return fmt.Sprintf("%s_%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// Run delegates one call to the cluster: derive a fresh remote job
// directory, render the submission script into it, package and upload the
// payload, submit, and parse the job identifier. No partial Job ever
// escapes: any failure after the directory exists removes it best-effort
// and returns only the error.
func (c *Client) Run(ctx context.Context, req *Request) (*Job, error) {
	if req.Queue == "" {
		return nil, &slurm.TemplateError{Key: "queue"}
	}
	if req.Account == "" {
		return nil, &slurm.TemplateError{Key: "account"}
	}
	req.applyDefaults(c.cfg)

	// Serialization problems are caught before anything remote happens.
	manifest, err := payload.NewManifest(req.ModulePath, req.Function, req.Args, req.Kwargs)
	if err != nil {
		return nil, err
	}
	manifestJSON, err := manifest.EncodeJSON()
	if err != nil {
		return nil, err
	}

	var archive []byte
	if req.LocalModuleDir != "" {
		archive, err = payload.ArchiveDir(req.LocalModuleDir)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	token := jobToken(now)
	jobName := "job_" + token
	remoteDir := path.Join(c.cfg.RemoteBasePath,
		fmt.Sprintf("%s_%s_%s", req.Queue, req.Account, token))

	sess, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := sess.MkdirAll(remoteDir); err != nil {
		return nil, err
	}

	job, err := c.submitInto(ctx, sess, req, manifestJSON, archive, jobName, remoteDir, now)
	if err != nil {
		// Best-effort: never leave a half-built job directory behind.
		if rmErr := sess.RemoveAll(ctx, remoteDir); rmErr != nil {
			log.Warnf("could not remove %s after failed submission: %s", remoteDir, rmErr)
		}
		return nil, err
	}
	return job, nil
}

func (c *Client) submitInto(
	ctx context.Context,
	sess Session,
	req *Request,
	manifestJSON, archive []byte,
	jobName, remoteDir string,
	now time.Time,
) (*Job, error) {
	entryPath := path.Join(remoteDir, "entry_script.py")
	manifestPath := path.Join(remoteDir, "manifest.json")
	scriptPath := path.Join(remoteDir, jobName+".slurm")
	outFile := path.Join(remoteDir, jobName+".out")
	errFile := path.Join(remoteDir, jobName+".err")

	script, err := slurm.RenderScript(&slurm.ScriptParams{
		Account:    req.Account,
		Queue:      req.Queue,
		JobName:    jobName,
		OutputPath: outFile,
		ErrorPath:  errFile,
		Nodes:      req.Nodes,
		CPUs:       req.CPUs,
		Partition:  req.Partition,
		ExecLine:   payload.ExecLine(c.cfg.PythonBin, entryPath, manifestPath),
		GPUs:       req.GPUs,
		Exclusive:  req.Exclusive,
		Modules:    req.Modules,
		VenvPath:   req.VenvPath,
	})
	if err != nil {
		return nil, err
	}

	if err := sess.Upload(payload.Bootstrap(), entryPath); err != nil {
		return nil, err
	}
	if err := sess.Upload(manifestJSON, manifestPath); err != nil {
		return nil, err
	}
	if err := sess.Upload([]byte(script), scriptPath); err != nil {
		return nil, err
	}

	if archive != nil {
		tarPath := path.Join(remoteDir, "project.tar.gz")
		if err := sess.Upload(archive, tarPath); err != nil {
			return nil, err
		}
		res, err := sess.Exec(ctx, fmt.Sprintf("cd %q && tar -xzf project.tar.gz", remoteDir))
		if err != nil {
			return nil, err
		}
		if res.ExitCode != 0 {
			return nil, &slurm.SubmissionError{
				Err:    "could not extract module archive",
				Stderr: strings.TrimSpace(res.Stderr),
			}
		}
		// Module-system banners on stderr are expected login chatter.
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" && !c.cfg.IsNoise(stderr) {
			log.Warnf("archive extraction: %s", stderr)
		}
	}

	jobID, err := slurm.NewSlurm(sess).Submit(ctx, &slurm.SubmitRequest{
		WorkDir:    remoteDir,
		ScriptPath: scriptPath,
	})
	if err != nil {
		return nil, err
	}

	log.Infof("job %s (id %s) submitted, logs under %s", jobName, jobID, remoteDir)
	return &Job{
		JobID:       jobID,
		Name:        jobName,
		Queue:       req.Queue,
		Account:     req.Account,
		RemoteDir:   remoteDir,
		OutFile:     outFile,
		ErrFile:     errFile,
		Status:      slurm.Pending,
		SubmittedAt: now,
		Outputs:     req.Outputs,
	}, nil
}

// CheckStatus polls the scheduler and updates job.Status. On the first
// observation of a terminal status with deleteFiles set, the remote job
// directory is removed; a cleanup failure is logged, never returned, since
// the terminal result is already known and must not be lost.
func (c *Client) CheckStatus(ctx context.Context, job *Job, deleteFiles bool) (slurm.Status, error) {
	sess, err := c.dial(ctx)
	if err != nil {
		return slurm.Unknown, err
	}
	defer sess.Close()

	status, err := slurm.NewSlurm(sess).Status(ctx, job.JobID)
	if err != nil {
		return slurm.Unknown, err
	}
	job.Status = status

	if status.IsTerminal() && deleteFiles && !job.CleanupDone {
		if err := sess.RemoveAll(ctx, job.RemoteDir); err != nil {
			log.Warnf("cleanup of %s failed: %s", job.RemoteDir, err)
		} else {
			job.CleanupDone = true
		}
	}
	return status, nil
}

// FetchLogs downloads both output streams of a job. A log file that does
// not exist yet is a remote.NotFoundError, expected while the job is still
// pending.
func (c *Client) FetchLogs(ctx context.Context, job *Job) (stdout, stderr []byte, err error) {
	sess, err := c.dial(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()

	stdout, err = sess.Download(job.OutFile)
	if err != nil {
		return nil, nil, err
	}
	stderr, err = sess.Download(job.ErrFile)
	if err != nil {
		return stdout, nil, err
	}
	return stdout, stderr, nil
}

// PrintLogs writes both log streams, labeled by origin.
func (c *Client) PrintLogs(ctx context.Context, job *Job, out, errOut io.Writer) error {
	stdout, stderr, err := c.FetchLogs(ctx, job)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "=== %s ===\n", job.OutFile)
	out.Write(stdout)
	fmt.Fprintf(errOut, "=== %s ===\n", job.ErrFile)
	errOut.Write(stderr)
	return nil
}

// Cancel issues scancel for the job. Cancelling a job that already reached
// a terminal state is a no-op success.
func (c *Client) Cancel(ctx context.Context, job *Job) error {
	sess, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	return slurm.NewSlurm(sess).Cancel(ctx, job.JobID)
}
