// Package external wraps the two binaries the pipeline shells out to:
// fastANI for exact average nucleotide identity and mash for approximate
// sketch distances.
package external

import (
	"errors"
	"fmt"
	"os/exec"
)

var ErrMissingDependency = errors.New("required program not found on PATH")

// CheckDependencies resolves each program on PATH. The first missing one
// fails the run, before any work has started.
func CheckDependencies(programs ...string) error {
	for _, program := range programs {
		if _, err := exec.LookPath(program); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingDependency, program)
		}
	}
	return nil
}
