package core

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the phase of a repository initialization that failed
type ErrorKind int

const (
	ConfigurationError ErrorKind = iota + 1
	SSHInitializationError
	GitConfigurationError
	CacheHandlingError
	CleanupWarning
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration failed"
	case SSHInitializationError:
		return "SSH initialization failed"
	case GitConfigurationError:
		return "git configuration failed"
	case CacheHandlingError:
		return "cache handling failed"
	case CleanupWarning:
		return "SSH cleanup failed"
	default:
		return "unknown failure"
	}
}

// Error is a phase failure. Op names the step inside the phase and Err keeps the
// original cause so callers can unwrap down to the subprocess error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a failure of the given kind. Op may be empty.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether any error in err's chain is a *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *Error
	if !errors.As(err, &coreErr) {
		return false
	}
	if coreErr.Kind == kind {
		return true
	}
	return IsKind(coreErr.Err, kind)
}
