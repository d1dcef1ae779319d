package clients

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"repoinit/core/log"
)

var agentPIDPattern = regexp.MustCompile(`SSH_AGENT_PID=(\d+)`)

// SSHClient drives the OpenSSH agent tooling
type SSHClient struct {
	runner CommandRunner
}

func NewSSHClient(runner CommandRunner) *SSHClient {
	return &SSHClient{runner: runner}
}

// StartAgent launches ssh-agent bound to socketPath. ssh-agent daemonizes, so this
// returns as soon as the socket is ready. The returned pid is empty when the
// agent output could not be parsed.
func (s *SSHClient) StartAgent(ctx context.Context, socketPath string) (string, error) {
	log.Info("📋 Starting SSH agent", "socket", socketPath)

	output, err := s.runner.Run(ctx, Command{
		Name: "ssh-agent",
		Args: []string{"-a", socketPath},
	})
	if err != nil {
		log.Error("❌ Failed to start SSH agent", "error", err)
		return "", fmt.Errorf("ssh-agent failed: %w", err)
	}

	pid := ""
	if match := agentPIDPattern.FindStringSubmatch(output); match != nil {
		pid = match[1]
	}

	log.Info("✅ SSH agent started", "socket", socketPath, "pid", pid)
	return pid, nil
}

// ScanHostKeys returns the hashed known_hosts lines for host
func (s *SSHClient) ScanHostKeys(ctx context.Context, host string) (string, error) {
	log.Info("📋 Scanning host keys", "host", host)

	output, err := s.runner.Run(ctx, Command{
		Name: "ssh-keyscan",
		Args: []string{"-H", host},
	})
	if err != nil {
		log.Error("❌ Failed to scan host keys", "host", host, "error", err)
		return "", fmt.Errorf("ssh-keyscan failed: %w", err)
	}

	log.Info("✅ Scanned host keys", "host", host)
	return output, nil
}

// AddKey loads privateKey into the agent at socketPath. The key travels over
// stdin only.
func (s *SSHClient) AddKey(ctx context.Context, socketPath, privateKey string) error {
	log.Info("📋 Adding SSH key to agent", "socket", socketPath)

	key := privateKey
	if !strings.HasSuffix(key, "\n") {
		// ssh-add rejects PEM bodies without a trailing newline
		key += "\n"
	}

	_, err := s.runner.Run(ctx, Command{
		Name:  "ssh-add",
		Args:  []string{"-"},
		Env:   []string{"SSH_AUTH_SOCK=" + socketPath},
		Stdin: strings.NewReader(key),
	})
	if err != nil {
		log.Error("❌ Failed to add SSH key", "error", err)
		return fmt.Errorf("ssh-add failed: %w", err)
	}

	log.Info("✅ SSH key added to agent")
	return nil
}

// RemoveAllKeys revokes every identity held by the agent at socketPath
func (s *SSHClient) RemoveAllKeys(ctx context.Context, socketPath string) error {
	log.Info("📋 Removing all identities from SSH agent", "socket", socketPath)

	_, err := s.runner.Run(ctx, Command{
		Name: "ssh-add",
		Args: []string{"-D"},
		Env:  []string{"SSH_AUTH_SOCK=" + socketPath},
	})
	if err != nil {
		return fmt.Errorf("ssh-add -D failed: %w", err)
	}

	log.Info("✅ Removed all identities from SSH agent")
	return nil
}

// KillAgent stops the agent process identified by pid
func (s *SSHClient) KillAgent(ctx context.Context, socketPath, pid string) error {
	log.Info("📋 Stopping SSH agent", "pid", pid)

	_, err := s.runner.Run(ctx, Command{
		Name: "ssh-agent",
		Args: []string{"-k"},
		Env: []string{
			"SSH_AUTH_SOCK=" + socketPath,
			"SSH_AGENT_PID=" + pid,
		},
	})
	if err != nil {
		return fmt.Errorf("ssh-agent -k failed: %w", err)
	}

	log.Info("✅ SSH agent stopped", "pid", pid)
	return nil
}
