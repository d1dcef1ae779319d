package models

// StrictHostKeyCheckingCommand is the ssh invocation git uses for every network
// operation. Known hosts are populated by a keyscan right before, so unknown
// hosts must be rejected.
const StrictHostKeyCheckingCommand = "ssh -o StrictHostKeyChecking=yes"

// GitEnvironment holds the variables a git subprocess needs to reach the job's
// SSH agent. It is passed explicitly to each network git command and never
// exported to the process environment.
type GitEnvironment struct {
	SSHAuthSock   string
	GitSSHCommand string
}

func NewGitEnvironment(socketPath string) GitEnvironment {
	return GitEnvironment{
		SSHAuthSock:   socketPath,
		GitSSHCommand: StrictHostKeyCheckingCommand,
	}
}

// Environ renders the environment as KEY=value pairs for exec.Cmd.Env
func (e GitEnvironment) Environ() []string {
	return []string{
		"SSH_AUTH_SOCK=" + e.SSHAuthSock,
		"GIT_SSH_COMMAND=" + e.GitSSHCommand,
	}
}

