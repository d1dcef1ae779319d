package usecases

import (
	"fmt"

	"repoinit/core/log"
)

const (
	workingDirectoryEnvVar = "WORKING_DIRECTORY"
	workingDirectoryOutput = "working-directory"
)

type DirectoryCreator interface {
	CreateWorkingDirectory() (string, error)
}

// JobOutputs publishes values to later steps of the CI job
type JobOutputs interface {
	SetOutput(name, value string) error
	ExportVariable(name, value string) error
}

type WorkingDirectoryUseCase struct {
	directory DirectoryCreator
	outputs   JobOutputs
}

func NewWorkingDirectoryUseCase(directory DirectoryCreator, outputs JobOutputs) *WorkingDirectoryUseCase {
	return &WorkingDirectoryUseCase{directory: directory, outputs: outputs}
}

// Run creates the job's working directory and publishes its path as the
// WORKING_DIRECTORY variable and the working-directory output
func (u *WorkingDirectoryUseCase) Run() (string, error) {
	log.Info("📋 Starting to set up working directory")

	path, err := u.directory.CreateWorkingDirectory()
	if err != nil {
		return "", err
	}

	if err := u.outputs.ExportVariable(workingDirectoryEnvVar, path); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", workingDirectoryEnvVar, err)
	}
	if err := u.outputs.SetOutput(workingDirectoryOutput, path); err != nil {
		return "", fmt.Errorf("failed to set %s output: %w", workingDirectoryOutput, err)
	}

	log.Info("📋 Completed successfully - set up working directory", "path", path)
	return path, nil
}
