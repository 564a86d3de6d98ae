package slurm

import (
	"bytes"
	"text/template"

	_ "embed"
)

//go:embed templates/job.slurm.tmpl
var scriptTemplate string

var scriptTmpl = template.Must(template.New("jobScript").Parse(scriptTemplate))

// ScriptParams fills the submission script template. Account through
// Partition are required; the remaining fields render as empty blocks when
// unset, never as leftover tokens.
type ScriptParams struct {
	Account    string
	Queue      string
	JobName    string
	OutputPath string
	ErrorPath  string
	Nodes      int
	CPUs       int
	Partition  string
	ExecLine   string

	GPUs      int
	Exclusive bool
	Modules   []string
	VenvPath  string
}

// Validate reports the first missing required parameter as a TemplateError.
func (p *ScriptParams) Validate() error {
	switch {
	case p.Account == "":
		return &TemplateError{Key: "account"}
	case p.Queue == "":
		return &TemplateError{Key: "queue"}
	case p.JobName == "":
		return &TemplateError{Key: "job_name"}
	case p.OutputPath == "":
		return &TemplateError{Key: "output_path"}
	case p.ErrorPath == "":
		return &TemplateError{Key: "error_path"}
	case p.Nodes <= 0:
		return &TemplateError{Key: "nodes"}
	case p.CPUs <= 0:
		return &TemplateError{Key: "cpus"}
	case p.Partition == "":
		return &TemplateError{Key: "partition"}
	case p.ExecLine == "":
		return &TemplateError{Key: "exec_line"}
	}
	return nil
}

// RenderScript renders the submission script. Identical parameters always
// yield byte-identical output; uniqueness of job names is the caller's
// responsibility.
func RenderScript(p *ScriptParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, p); err != nil {
		return "", &SubmissionError{Err: err.Error()}
	}
	return buf.String(), nil
}
