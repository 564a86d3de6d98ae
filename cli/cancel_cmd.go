package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type cancelCmd struct{}

func (c *cancelCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "cancel a job",
		Args:  cobra.ExactArgs(1),
	}
}

func (c *cancelCmd) run(a *app, cmd *cobra.Command, args []string) error {
	job, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}
	if err := a.client.Cancel(cmd.Context(), job); err != nil {
		return err
	}
	fmt.Printf("job %s cancelled\n", job.JobID)
	return nil
}
