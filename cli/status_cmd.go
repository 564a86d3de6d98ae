package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type statusCmd struct {
	keep bool
}

func (c *statusCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "poll a job's status",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&c.keep, "keep", false, "keep the remote job directory on terminal states")
	return cmd
}

func (c *statusCmd) run(a *app, cmd *cobra.Command, args []string) error {
	job, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}

	status, err := a.client.CheckStatus(cmd.Context(), job, !c.keep)
	if err != nil {
		return err
	}
	if err := a.registry.Save(job); err != nil {
		return errors.Wrap(err, "update registry")
	}

	fmt.Printf("%s\t%s\n", job.JobID, status)
	return nil
}
