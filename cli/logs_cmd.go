package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comet-hpc/comet/remote"
)

type logsCmd struct{}

func (c *logsCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-id>",
		Short: "print a job's stdout and stderr logs",
		Args:  cobra.ExactArgs(1),
	}
}

func (c *logsCmd) run(a *app, cmd *cobra.Command, args []string) error {
	job, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}

	err = a.client.PrintLogs(cmd.Context(), job, os.Stdout, os.Stderr)
	if remote.IsNotFoundError(err) {
		// Expected for a job that has not started writing yet.
		fmt.Fprintf(os.Stderr, "%s (job may still be pending)\n", err)
		return nil
	}
	return err
}
