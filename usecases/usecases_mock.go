package usecases

import (
	"context"

	"github.com/stretchr/testify/mock"

	"repoinit/models"
)

// MockSSHSession is a mock implementation of SSHSession
type MockSSHSession struct {
	mock.Mock
}

func (m *MockSSHSession) Initialize(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSSHSession) Cleanup(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSSHSession) GetGitEnv() models.GitEnvironment {
	args := m.Called()
	return args.Get(0).(models.GitEnvironment)
}

// MockRepositorySynchronizer is a mock implementation of RepositorySynchronizer
type MockRepositorySynchronizer struct {
	mock.Mock
}

func (m *MockRepositorySynchronizer) ConfigureGit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepositorySynchronizer) HandleCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepositorySynchronizer) HandlePullRequestMerge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDirectoryCreator is a mock implementation of DirectoryCreator
type MockDirectoryCreator struct {
	mock.Mock
}

func (m *MockDirectoryCreator) CreateWorkingDirectory() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// MockJobOutputs is a mock implementation of JobOutputs
type MockJobOutputs struct {
	mock.Mock
}

func (m *MockJobOutputs) SetOutput(name, value string) error {
	args := m.Called(name, value)
	return args.Error(0)
}

func (m *MockJobOutputs) ExportVariable(name, value string) error {
	args := m.Called(name, value)
	return args.Error(0)
}
