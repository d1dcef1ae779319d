package clients

import (
	"context"
	"io"
	"sync"
)

// RecordedCommand is a command seen by MockCommandRunner, with stdin drained
type RecordedCommand struct {
	Command
	StdinData string
}

// MockCommandRunner implements CommandRunner for testing. Every call is recorded
// in order; RunFunc decides the result and defaults to success with no output.
type MockCommandRunner struct {
	RunFunc func(cmd Command) (string, error)

	mu    sync.Mutex
	calls []RecordedCommand
}

func (m *MockCommandRunner) Run(_ context.Context, cmd Command) (string, error) {
	recorded := RecordedCommand{Command: cmd}
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return "", err
		}
		recorded.StdinData = string(data)
	}

	m.mu.Lock()
	m.calls = append(m.calls, recorded)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(cmd)
	}
	return "", nil
}

func (m *MockCommandRunner) Calls() []RecordedCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedCommand(nil), m.calls...)
}

// CommandLines returns the recorded calls rendered as command lines
func (m *MockCommandRunner) CommandLines() []string {
	calls := m.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, c.String())
	}
	return lines
}
