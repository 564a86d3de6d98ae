package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type listCmd struct{}

func (c *listCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list jobs known to the local registry",
	}
}

func (c *listCmd) run(a *app, cmd *cobra.Command, args []string) error {
	jobs, err := a.registry.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tNAME\tQUEUE\tSTATUS\tSUBMITTED")
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.JobID, job.Name, job.Queue, job.Status,
			humanize.Time(job.SubmittedAt))
	}
	return w.Flush()
}
