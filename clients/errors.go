package clients

import (
	"errors"
	"fmt"
)

// CommandError represents a subprocess that could not be started or exited non-zero
type CommandError struct {
	Command string // command line, never includes stdin
	Err     error  // the original exec error
	Output  string // captured stderr
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\nOutput: %s", e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsCommandError checks if an error is a subprocess failure
func IsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}
