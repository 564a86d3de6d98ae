package slurm

import (
	"context"

	"github.com/comet-hpc/comet/remote"
)

// Executor runs a command line on the cluster and reports its full outcome.
// remote.Session satisfies it; tests substitute a mock.
type Executor interface {
	Exec(ctx context.Context, cmd string) (remote.Result, error)
}

type SubmitRequest struct {
	// WorkDir is the remote job directory; sbatch runs from inside it.
	WorkDir string
	// ScriptPath is the remote path of the rendered submission script.
	ScriptPath string
}
