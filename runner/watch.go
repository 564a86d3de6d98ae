package runner

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/comet-hpc/comet/payload"
	"github.com/comet-hpc/comet/slurm"
)

type WatchOptions struct {
	// Interval between polls; defaults to 5s.
	Interval time.Duration
	// DeleteFiles removes the remote job directory once a terminal status
	// is observed.
	DeleteFiles bool
	// Output and ErrOutput receive the tailed log streams between polls;
	// nil disables tailing.
	Output    io.Writer
	ErrOutput io.Writer
}

// Watch polls until the job reaches a terminal status, tailing both log
// files in between. Cancelling ctx stops the loop without touching the
// remote job: cancellation of the job itself is only ever explicit.
func (c *Client) Watch(ctx context.Context, job *Job, opts WatchOptions) (slurm.Status, error) {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}

	sess, err := c.dial(ctx)
	if err != nil {
		return slurm.Unknown, err
	}
	defer sess.Close()

	scheduler := slurm.NewSlurm(sess)
	var outPos, errPos int64

	ticker := backoff.NewTicker(backoff.NewConstantBackOff(opts.Interval))
	defer ticker.Stop()

	for {
		status, err := scheduler.Status(ctx, job.JobID)
		if err != nil {
			return slurm.Unknown, err
		}
		job.Status = status

		if opts.Output != nil {
			outPos = c.tail(sess, job.OutFile, outPos, opts.Output)
		}
		if opts.ErrOutput != nil {
			errPos = c.tail(sess, job.ErrFile, errPos, opts.ErrOutput)
		}

		if status.IsTerminal() {
			if opts.DeleteFiles && !job.CleanupDone {
				if err := sess.RemoveAll(ctx, job.RemoteDir); err != nil {
					log.Warnf("cleanup of %s failed: %s", job.RemoteDir, err)
				} else {
					job.CleanupDone = true
				}
			}
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) tail(sess Session, remotePath string, pos int64, w io.Writer) int64 {
	data, next, err := sess.ReadFrom(remotePath, pos)
	if err != nil {
		log.Debugf("tail %s: %s", remotePath, err)
		return pos
	}
	if len(data) > 0 {
		w.Write(data)
	}
	return next
}

// FetchOutputs copies the job's requested output paths back to localDir:
// the remote side packs them into a tar.gz, which is downloaded and
// extracted locally. Nothing to fetch is not an error.
func (c *Client) FetchOutputs(ctx context.Context, job *Job, localDir string) error {
	if len(job.Outputs) == 0 {
		return nil
	}

	sess, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	quoted := make([]string, 0, len(job.Outputs))
	for _, o := range job.Outputs {
		quoted = append(quoted, fmt.Sprintf("%q", o))
	}
	tarPath := path.Join(job.RemoteDir, "outputs.tar.gz")
	cmd := fmt.Sprintf("cd %q && tar -czf %q %s", job.RemoteDir, tarPath, strings.Join(quoted, " "))
	res, err := sess.Exec(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("packing outputs of job %s: %s", job.JobID, strings.TrimSpace(res.Stderr))
	}

	data, err := sess.Download(tarPath)
	if err != nil {
		return err
	}
	return payload.ExtractDir(data, localDir)
}
