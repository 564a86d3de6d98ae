package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/comet-hpc/comet/runner"
)

type watchCmd struct {
	interval   time.Duration
	keep       bool
	outputsDir string
}

func (c *watchCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "poll a job until it finishes, tailing its logs",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().DurationVar(&c.interval, "interval", 5*time.Second, "poll interval")
	cmd.Flags().BoolVar(&c.keep, "keep", false, "keep the remote job directory after the job finishes")
	cmd.Flags().StringVar(&c.outputsDir, "outputs-dir", "", "local directory to copy the job's outputs into")
	return cmd
}

func (c *watchCmd) run(a *app, cmd *cobra.Command, args []string) error {
	job, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}

	// Outputs are fetched between the terminal observation and cleanup, so
	// cleanup is deferred to a second pass when copy-back is requested.
	deleteNow := !c.keep && c.outputsDir == ""

	status, err := a.client.Watch(cmd.Context(), job, runner.WatchOptions{
		Interval:    c.interval,
		DeleteFiles: deleteNow,
		Output:      os.Stdout,
		ErrOutput:   os.Stderr,
	})
	if err != nil {
		return err
	}

	if c.outputsDir != "" {
		if err := a.client.FetchOutputs(cmd.Context(), job, c.outputsDir); err != nil {
			return errors.Wrap(err, "fetch outputs")
		}
		if !c.keep {
			if _, err := a.client.CheckStatus(cmd.Context(), job, true); err != nil {
				return err
			}
		}
	}

	if err := a.registry.Save(job); err != nil {
		return errors.Wrap(err, "update registry")
	}
	fmt.Printf("job %s finished: %s\n", job.JobID, status)
	return nil
}
