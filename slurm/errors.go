package slurm

import "fmt"

// SubmissionError reports a failed submission. Mismatch distinguishes a
// submit command that ran but answered in an unexpected format from a
// command that failed outright; Stderr carries the captured remote output
// so the failure can be diagnosed without reconnecting.
type SubmissionError struct {
	Err      string
	Stderr   string
	Mismatch bool
}

func (e *SubmissionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("submission failed: %s: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("submission failed: %s", e.Err)
}

// Returns true if an error is of type SubmissionError.
func IsSubmissionError(err error) bool {
	if _, ok := err.(*SubmissionError); ok {
		return true
	}
	return false
}

// TemplateError reports a submission script parameter that is missing or
// invalid, named by key.
type TemplateError struct {
	Key string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("script template: required parameter %q is missing", e.Key)
}

// Returns true if an error is of type TemplateError.
func IsTemplateError(err error) bool {
	if _, ok := err.(*TemplateError); ok {
		return true
	}
	return false
}
