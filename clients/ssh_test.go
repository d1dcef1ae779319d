package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSHClient_StartAgent(t *testing.T) {
	tests := []struct {
		name          string
		output        string
		runErr        error
		expectedPID   string
		expectedError string
	}{
		{
			name:        "parses agent pid",
			output:      "SSH_AUTH_SOCK=/tmp/sock; export SSH_AUTH_SOCK;\nSSH_AGENT_PID=4242; export SSH_AGENT_PID;\necho Agent pid 4242;\n",
			expectedPID: "4242",
		},
		{
			name:        "unparseable output leaves pid empty",
			output:      "something unexpected",
			expectedPID: "",
		},
		{
			name:          "command failure",
			runErr:        errors.New("exit status 1"),
			expectedError: "ssh-agent failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockCommandRunner{RunFunc: func(Command) (string, error) { return tt.output, tt.runErr }}
			client := NewSSHClient(runner)

			pid, err := client.StartAgent(context.Background(), "/tmp/sock")
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPID, pid)
			assert.Equal(t, []string{"ssh-agent -a /tmp/sock"}, runner.CommandLines())
		})
	}
}

func TestSSHClient_ScanHostKeys(t *testing.T) {
	runner := &MockCommandRunner{RunFunc: func(Command) (string, error) { return "|1|abc|def ssh-ed25519 AAAA\n", nil }}
	client := NewSSHClient(runner)

	out, err := client.ScanHostKeys(context.Background(), "github.com")
	require.NoError(t, err)
	assert.Equal(t, "|1|abc|def ssh-ed25519 AAAA\n", out)
	assert.Equal(t, []string{"ssh-keyscan -H github.com"}, runner.CommandLines())
}

func TestSSHClient_AddKey(t *testing.T) {
	runner := &MockCommandRunner{}
	client := NewSSHClient(runner)

	err := client.AddKey(context.Background(), "/tmp/sock", "-----BEGIN KEY-----\nbody\n-----END KEY-----")
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ssh-add -", calls[0].String())
	assert.Equal(t, []string{"SSH_AUTH_SOCK=/tmp/sock"}, calls[0].Env)
	assert.Equal(t, "-----BEGIN KEY-----\nbody\n-----END KEY-----\n", calls[0].StdinData)
	assert.NotContains(t, calls[0].String(), "BEGIN KEY", "key must not appear on the command line")
}

func TestSSHClient_AddKeyFailure(t *testing.T) {
	runner := &MockCommandRunner{RunFunc: func(Command) (string, error) {
		return "", &CommandError{Command: "ssh-add -", Err: errors.New("exit status 1"), Output: "Error loading key"}
	}}
	client := NewSSHClient(runner)

	err := client.AddKey(context.Background(), "/tmp/sock", "key\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ssh-add failed")
	assert.Contains(t, err.Error(), "Error loading key")
}

func TestSSHClient_RemoveAllKeysAndKill(t *testing.T) {
	runner := &MockCommandRunner{}
	client := NewSSHClient(runner)
	ctx := context.Background()

	require.NoError(t, client.RemoveAllKeys(ctx, "/tmp/sock"))
	require.NoError(t, client.KillAgent(ctx, "/tmp/sock", "4242"))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "ssh-add -D", calls[0].String())
	assert.Equal(t, []string{"SSH_AUTH_SOCK=/tmp/sock"}, calls[0].Env)
	assert.Equal(t, "ssh-agent -k", calls[1].String())
	assert.Equal(t, []string{"SSH_AUTH_SOCK=/tmp/sock", "SSH_AGENT_PID=4242"}, calls[1].Env)
}
