package clients

import (
	"fmt"
	"os"
	"strings"

	"repoinit/core/log"

	"github.com/spf13/afero"
)

// ActionsClient publishes job outputs through the files the CI runner names
// in GITHUB_OUTPUT and GITHUB_ENV. An empty path disables that channel.
type ActionsClient struct {
	fs         afero.Fs
	outputFile string
	envFile    string
}

func NewActionsClient(fs afero.Fs, outputFile, envFile string) *ActionsClient {
	return &ActionsClient{
		fs:         fs,
		outputFile: outputFile,
		envFile:    envFile,
	}
}

// SetOutput publishes a step output
func (a *ActionsClient) SetOutput(name, value string) error {
	return a.appendPair(a.outputFile, "output", name, value)
}

// ExportVariable makes name=value visible to later steps of the job
func (a *ActionsClient) ExportVariable(name, value string) error {
	return a.appendPair(a.envFile, "environment", name, value)
}

func (a *ActionsClient) appendPair(path, channel, name, value string) error {
	if path == "" {
		log.Debug("ℹ️ Job file not configured, skipping", "channel", channel, "name", name)
		return nil
	}
	if strings.ContainsAny(name, "=\n") || strings.Contains(value, "\n") {
		return fmt.Errorf("invalid %s pair %q", channel, name)
	}

	f, err := a.fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s file %s: %w", channel, path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(name + "=" + value + "\n"); err != nil {
		return fmt.Errorf("failed to write %s file %s: %w", channel, path, err)
	}

	log.Info("📤 Published job value", "channel", channel, "name", name, "value", value)
	return nil
}
