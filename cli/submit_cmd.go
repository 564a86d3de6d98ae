package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/comet-hpc/comet/runner"
)

type submitCmd struct {
	modulePath string
	function   string
	args       []string
	kwargs     []string

	queue   string
	account string

	partition string
	nodes     int
	cpus      int
	gpus      int
	exclusive bool
	modules   []string
	venvPath  string

	moduleDir string
	outputs   []string
}

func (c *submitCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "submit a procedure call as a SLURM job",
	}
	cmd.Flags().StringVar(&c.modulePath, "module", "", "importable module path of the procedure")
	cmd.Flags().StringVar(&c.function, "function", "", "procedure name inside the module")
	cmd.Flags().StringArrayVar(&c.args, "arg", nil, "positional argument (repeatable, JSON or literal)")
	cmd.Flags().StringArrayVar(&c.kwargs, "kwarg", nil, "keyword argument key=value (repeatable)")
	cmd.Flags().StringVar(&c.queue, "queue", "", "scheduler queue (qos)")
	cmd.Flags().StringVar(&c.account, "account", "", "scheduler account")
	cmd.Flags().StringVar(&c.partition, "partition", "", "partition, defaults from config")
	cmd.Flags().IntVar(&c.nodes, "nodes", 1, "node count")
	cmd.Flags().IntVar(&c.cpus, "cpus", 1, "cpus per task")
	cmd.Flags().IntVar(&c.gpus, "gpus", 0, "gpus per node, 0 omits the GPU line")
	cmd.Flags().BoolVar(&c.exclusive, "exclusive", false, "request exclusive node allocation")
	cmd.Flags().StringArrayVar(&c.modules, "load", nil, "environment module to load (repeatable)")
	cmd.Flags().StringVar(&c.venvPath, "venv", "", "remote virtualenv to activate")
	cmd.Flags().StringVar(&c.moduleDir, "module-dir", "", "local module directory to upload alongside the job")
	cmd.Flags().StringArrayVar(&c.outputs, "output", nil, "remote path to copy back after the job (repeatable)")

	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("function")
	cmd.MarkFlagRequired("queue")
	cmd.MarkFlagRequired("account")
	return cmd
}

func (c *submitCmd) run(a *app, cmd *cobra.Command, args []string) error {
	req := &runner.Request{
		ModulePath: c.modulePath,
		Function:   c.function,
		Kwargs:     map[string]any{},
		Queue:      c.queue,
		Account:    c.account,
		Partition:  c.partition,
		Nodes:      c.nodes,
		CPUs:       c.cpus,
		GPUs:       c.gpus,
		Exclusive:  c.exclusive,
		Modules:    c.modules,
		VenvPath:   c.venvPath,

		LocalModuleDir: c.moduleDir,
		Outputs:        c.outputs,
	}
	for _, raw := range c.args {
		req.Args = append(req.Args, parseTyped(raw))
	}
	for _, raw := range c.kwargs {
		key, val, err := parseKwarg(raw)
		if err != nil {
			return err
		}
		req.Kwargs[key] = val
	}

	job, err := a.client.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := a.registry.Save(job); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}
