package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, fs afero.Fs, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, fs)
	return code, stdout.String(), stderr.String()
}

func setInitEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_SHA", "0123456789abcdef0123456789abcdef01234567")
	t.Setenv("GITHUB_ACTOR", "octocat")
	t.Setenv("GITHUB_REF", "refs/heads/main")
	t.Setenv("GITHUB_BASE_REF", "")
	t.Setenv("GITHUB_RUN_ID", "4242")
	t.Setenv("INIT_REPOSITORY_PIPELINE_ID_ENV_FILE", ".init-repository.env")
	t.Setenv("HOME", t.TempDir())
}

func TestRun_Help(t *testing.T) {
	code, stdout, _ := runCLI(t, afero.NewMemMapFs(), "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "init")
	assert.Contains(t, stdout, "workdir")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{name: "no command", args: nil, expectedError: "Error:"},
		{name: "unknown command", args: []string{"deploy"}, expectedError: "Error:"},
		{name: "init without working directory", args: []string{"init"}, expectedError: "working-directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, afero.NewMemMapFs(), tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.expectedError)
		})
	}
}

func TestRun_InitMissingConfiguration(t *testing.T) {
	setInitEnv(t)
	t.Setenv("GITHUB_SHA", "")

	code, _, stderr := runCLI(t, afero.NewMemMapFs(), "init", "--working-directory", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Action failed: configuration failed")
	assert.Contains(t, stderr, "GITHUB_SHA")
}

func TestRun_InitMissingPrivateKey(t *testing.T) {
	setInitEnv(t)
	t.Setenv("SSH_PRIVATE_KEY", "")

	code, _, stderr := runCLI(t, afero.NewMemMapFs(), "init", "--working-directory", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Action failed: SSH initialization failed")
	assert.Contains(t, stderr, "SSH_PRIVATE_KEY")
}

func TestRun_Workdir(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_REF", "main")
	t.Setenv("WORKING_DIRECTORY_PREFIX", "/runner/work")
	t.Setenv("GITHUB_OUTPUT", "/runner/_temp/output")
	t.Setenv("GITHUB_ENV", "/runner/_temp/env")

	fs := afero.NewMemMapFs()
	code, stdout, stderr := runCLI(t, fs, "workdir")
	require.Equal(t, 0, code, stderr)

	expected := "/runner/work/acme/widgets/branches/main"
	assert.Equal(t, expected, strings.TrimSpace(stdout))

	exists, err := afero.DirExists(fs, expected)
	require.NoError(t, err)
	assert.True(t, exists)

	envFile, err := afero.ReadFile(fs, "/runner/_temp/env")
	require.NoError(t, err)
	assert.Equal(t, "WORKING_DIRECTORY="+expected+"\n", string(envFile))

	outputFile, err := afero.ReadFile(fs, "/runner/_temp/output")
	require.NoError(t, err)
	assert.Equal(t, "working-directory="+expected+"\n", string(outputFile))
}

func TestRun_WorkdirPathOverridesPrefix(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_REF", "feature")
	t.Setenv("WORKING_DIRECTORY_PREFIX", "/ignored")
	t.Setenv("GITHUB_OUTPUT", "")
	t.Setenv("GITHUB_ENV", "")

	code, stdout, stderr := runCLI(t, afero.NewMemMapFs(), "--quiet", "workdir", "--path", "../../builds")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "builds/acme/widgets/branches/feature", strings.TrimSpace(stdout))
}
