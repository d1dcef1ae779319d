package clients

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"repoinit/core/log"
)

// Command describes one subprocess invocation
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string // appended to the current process environment
	Stdin io.Reader
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandRunner runs a subprocess to completion and returns its stdout
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	log.Debug("🔧 Running command", "command", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{
			Command: c.String(),
			Err:     err,
			Output:  strings.TrimSpace(stderr.String()),
		}
	}

	return stdout.String(), nil
}
