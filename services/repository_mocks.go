package services

import (
	"context"
	"strings"
	"sync"

	"repoinit/models"
)

// MockRepositoryGitClient implements RepositoryGitClient for testing. Every call
// is recorded as "<method> <args...>".
type MockRepositoryGitClient struct {
	SetGlobalConfigFunc func(key, value string) error
	SetConfigFunc       func(dir, key, value string) error
	CloneFunc           func(dir, remoteURL, ref string, depth int, env models.GitEnvironment) error
	FetchTagsFunc       func(dir string, env models.GitEnvironment) error
	ResetHardFunc       func(dir, sha string, env models.GitEnvironment) error
	HasRemoteFunc       func(dir, name string) (bool, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockRepositoryGitClient) record(parts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, strings.Join(parts, " "))
}

func (m *MockRepositoryGitClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockRepositoryGitClient) SetGlobalConfig(_ context.Context, key, value string) error {
	m.record("SetGlobalConfig", key, value)
	if m.SetGlobalConfigFunc != nil {
		return m.SetGlobalConfigFunc(key, value)
	}
	return nil
}

func (m *MockRepositoryGitClient) SetConfig(_ context.Context, dir, key, value string) error {
	m.record("SetConfig", key, value)
	if m.SetConfigFunc != nil {
		return m.SetConfigFunc(dir, key, value)
	}
	return nil
}

func (m *MockRepositoryGitClient) Clone(_ context.Context, dir, remoteURL, ref string, depth int, env models.GitEnvironment) error {
	m.record("Clone", remoteURL, ref)
	if m.CloneFunc != nil {
		return m.CloneFunc(dir, remoteURL, ref, depth, env)
	}
	return nil
}

func (m *MockRepositoryGitClient) FetchTags(_ context.Context, dir string, env models.GitEnvironment) error {
	m.record("FetchTags")
	if m.FetchTagsFunc != nil {
		return m.FetchTagsFunc(dir, env)
	}
	return nil
}

func (m *MockRepositoryGitClient) ResetHard(_ context.Context, dir, sha string, env models.GitEnvironment) error {
	m.record("ResetHard", sha)
	if m.ResetHardFunc != nil {
		return m.ResetHardFunc(dir, sha, env)
	}
	return nil
}

func (m *MockRepositoryGitClient) HasRemote(dir, name string) (bool, error) {
	m.record("HasRemote", name)
	if m.HasRemoteFunc != nil {
		return m.HasRemoteFunc(dir, name)
	}
	return false, nil
}
