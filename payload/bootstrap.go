package payload

import (
	"fmt"

	_ "embed"
)

//go:embed templates/entry_script.py
var entryScript string

// Bootstrap returns the remote entry point source. It is uploaded next to
// the manifest and invoked by the submission script's exec line.
func Bootstrap() []byte {
	return []byte(entryScript)
}

// ExecLine builds the command the submission script runs: the interpreter,
// the uploaded entry point, and the manifest it should load.
func ExecLine(pythonBin, entryPath, manifestPath string) string {
	return fmt.Sprintf("%s %s %s", pythonBin, entryPath, manifestPath)
}
