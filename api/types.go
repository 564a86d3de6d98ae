package api

import "github.com/comet-hpc/comet/runner"

type Error struct {
	Error string `json:"error"`
	Data  string `json:"data,omitempty"`
}

type OK struct {
	Data string `json:"data"`
}

// SubmitBody is the JSON body of POST /api/jobs. Args and Kwargs carry
// plain JSON values; the payload schema validates them during submission.
type SubmitBody struct {
	ModulePath string         `json:"module_path"`
	Function   string         `json:"function"`
	Args       []any          `json:"args,omitempty"`
	Kwargs     map[string]any `json:"kwargs,omitempty"`

	Queue   string `json:"queue"`
	Account string `json:"account"`

	Partition string   `json:"partition,omitempty"`
	Nodes     int      `json:"nodes,omitempty"`
	CPUs      int      `json:"cpus,omitempty"`
	GPUs      int      `json:"gpus,omitempty"`
	Exclusive bool     `json:"exclusive,omitempty"`
	Modules   []string `json:"modules,omitempty"`
	VenvPath  string   `json:"venv_path,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
}

func (b *SubmitBody) toRequest() *runner.Request {
	return &runner.Request{
		ModulePath: b.ModulePath,
		Function:   b.Function,
		Args:       b.Args,
		Kwargs:     b.Kwargs,
		Queue:      b.Queue,
		Account:    b.Account,
		Partition:  b.Partition,
		Nodes:      b.Nodes,
		CPUs:       b.CPUs,
		GPUs:       b.GPUs,
		Exclusive:  b.Exclusive,
		Modules:    b.Modules,
		VenvPath:   b.VenvPath,
		Outputs:    b.Outputs,
	}
}

// LogsResponse labels both downloaded streams by origin.
type LogsResponse struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// StatusResponse is the poll answer for one job.
type StatusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
