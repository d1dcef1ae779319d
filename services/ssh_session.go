package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"repoinit/core"
	"repoinit/core/log"
	"repoinit/models"
	"repoinit/utils"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

const (
	sshDirPerm         os.FileMode = 0o700
	knownHostsFilePerm os.FileMode = 0o600
	socketNamePrefix               = "ssh-auth-sock-"
)

// SSHAgentClient is the subset of clients.SSHClient the session needs
type SSHAgentClient interface {
	StartAgent(ctx context.Context, socketPath string) (string, error)
	ScanHostKeys(ctx context.Context, host string) (string, error)
	AddKey(ctx context.Context, socketPath, privateKey string) error
	RemoveAllKeys(ctx context.Context, socketPath string) error
	KillAgent(ctx context.Context, socketPath, pid string) error
}

type SSHSessionConfig struct {
	SocketPath     string // generated when empty
	SSHDir         string
	KnownHostsFile string
	KnownHost      string
	PrivateKey     string
}

// DefaultSSHSessionConfig resolves the per-user SSH paths for privateKey
func DefaultSSHSessionConfig(privateKey string) (SSHSessionConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return SSHSessionConfig{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	sshDir := filepath.Join(homeDir, ".ssh")
	return SSHSessionConfig{
		SSHDir:         sshDir,
		KnownHostsFile: filepath.Join(sshDir, "known_hosts"),
		KnownHost:      models.RemoteHost,
		PrivateKey:     privateKey,
	}, nil
}

// NewSocketPath returns a fresh agent socket path under the temp dir
func NewSocketPath() string {
	return filepath.Join(os.TempDir(), socketNamePrefix+core.NewID("s"))
}

// SSHSessionService owns one ssh-agent for the lifetime of a job
type SSHSessionService struct {
	config    SSHSessionConfig
	sshClient SSHAgentClient
	fs        afero.Fs
	agentPID  string
}

func NewSSHSessionService(config SSHSessionConfig, sshClient SSHAgentClient, fs afero.Fs) *SSHSessionService {
	if config.SocketPath == "" {
		config.SocketPath = NewSocketPath()
	}
	if config.KnownHost == "" {
		config.KnownHost = models.RemoteHost
	}

	return &SSHSessionService{
		config:    config,
		sshClient: sshClient,
		fs:        fs,
	}
}

// Initialize prepares the SSH directory, starts the agent, trusts the remote
// host and loads the identity, in that order. It returns the agent socket path.
func (s *SSHSessionService) Initialize(ctx context.Context) (string, error) {
	log.Info("📋 Starting to initialize SSH session", "socket", s.config.SocketPath)

	if strings.TrimSpace(s.config.PrivateKey) == "" {
		return "", core.NewError(core.SSHInitializationError, "SSH_PRIVATE_KEY secret is not set", nil)
	}

	steps := []struct {
		op  string
		run func(context.Context) error
	}{
		{"failed to setup SSH directory", s.setupSSHDir},
		{"failed to start SSH agent", s.startAgent},
		{"failed to configure known hosts", s.configureKnownHosts},
		{"failed to add SSH key", s.addKey},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			log.Error("❌ SSH initialization step failed", "step", step.op, "error", err)
			return "", core.NewError(core.SSHInitializationError, step.op, err)
		}
	}

	log.Info("✅ SSH session initialized", "socket", s.config.SocketPath)
	log.Info("📋 Completed successfully - initialized SSH session")
	return s.config.SocketPath, nil
}

func (s *SSHSessionService) setupSSHDir(_ context.Context) error {
	log.Info("📁 Creating SSH directory", "dir", s.config.SSHDir)

	if err := s.fs.MkdirAll(s.config.SSHDir, sshDirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.config.SSHDir, err)
	}
	// MkdirAll leaves an existing directory's mode untouched
	if err := s.fs.Chmod(s.config.SSHDir, sshDirPerm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", s.config.SSHDir, err)
	}
	return nil
}

func (s *SSHSessionService) startAgent(ctx context.Context) error {
	utils.AssertInvariant(s.config.SocketPath != "", "socket path must be generated before the agent starts")

	pid, err := s.sshClient.StartAgent(ctx, s.config.SocketPath)
	if err != nil {
		return err
	}
	s.agentPID = pid
	return nil
}

func (s *SSHSessionService) configureKnownHosts(ctx context.Context) error {
	scanned, err := s.sshClient.ScanHostKeys(ctx, s.config.KnownHost)
	if err != nil {
		return err
	}

	count, err := countHostKeys(scanned)
	if err != nil {
		return fmt.Errorf("invalid host keys for %s: %w", s.config.KnownHost, err)
	}
	if count == 0 {
		return fmt.Errorf("no host keys returned for %s", s.config.KnownHost)
	}

	f, err := s.fs.OpenFile(s.config.KnownHostsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, knownHostsFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.config.KnownHostsFile, err)
	}
	defer f.Close()

	if !strings.HasSuffix(scanned, "\n") {
		scanned += "\n"
	}
	if _, err := f.WriteString(scanned); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.config.KnownHostsFile, err)
	}

	if err := s.fs.Chmod(s.config.KnownHostsFile, knownHostsFilePerm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", s.config.KnownHostsFile, err)
	}

	log.Info("✅ Trusted host keys", "host", s.config.KnownHost, "keys", count)
	return nil
}

// countHostKeys parses known_hosts formatted text and returns how many keys it holds
func countHostKeys(data string) (int, error) {
	rest := []byte(data)
	count := 0
	for {
		_, _, _, _, remaining, err := ssh.ParseKnownHosts(rest)
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		count++
		rest = remaining
	}
}

func (s *SSHSessionService) addKey(ctx context.Context) error {
	if _, err := ssh.ParseRawPrivateKey([]byte(s.config.PrivateKey)); err != nil {
		var passphraseErr *ssh.PassphraseMissingError
		if errors.As(err, &passphraseErr) {
			return errors.New("SSH_PRIVATE_KEY is passphrase protected")
		}
		// ssh-add understands more formats than x/crypto; let it decide
		log.Warn("⚠️ Could not parse SSH_PRIVATE_KEY locally, deferring to ssh-add", "error", err)
	}

	return s.sshClient.AddKey(ctx, s.config.SocketPath, s.config.PrivateKey)
}

// Cleanup revokes all identities and stops the agent. Failures are logged as
// warnings and never returned: cleanup runs on error paths and must not replace
// the original failure.
func (s *SSHSessionService) Cleanup(ctx context.Context) {
	log.Info("📋 Starting to clean up SSH session", "socket", s.config.SocketPath)

	if err := s.sshClient.RemoveAllKeys(ctx, s.config.SocketPath); err != nil {
		warnCleanup(core.NewError(core.CleanupWarning, "failed to remove identities", err))
	}

	if s.agentPID != "" {
		if err := s.sshClient.KillAgent(ctx, s.config.SocketPath, s.agentPID); err != nil {
			warnCleanup(core.NewError(core.CleanupWarning, "failed to stop SSH agent", err))
		} else {
			s.agentPID = ""
		}
	}

	log.Info("📋 Completed - SSH session cleanup finished")
}

func warnCleanup(warning *core.Error) {
	log.Warn("⚠️ SSH cleanup warning", "warning", warning.Error())
}

// GetGitEnv projects the current socket path into the environment git needs
func (s *SSHSessionService) GetGitEnv() models.GitEnvironment {
	return models.NewGitEnvironment(s.config.SocketPath)
}

func (s *SSHSessionService) SocketPath() string {
	return s.config.SocketPath
}
