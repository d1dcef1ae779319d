package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"repoinit/core"
	"repoinit/models"
	"repoinit/utils"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testGitEnv = models.NewGitEnvironment("/tmp/ssh-auth-sock-test")

// recordingSession wires a MockSSHSession that appends every call to order
func recordingSession(order *[]string, initErr error) *MockSSHSession {
	session := &MockSSHSession{}
	session.On("Initialize", mock.Anything).
		Run(func(mock.Arguments) { *order = append(*order, "Initialize") }).
		Return("/tmp/ssh-auth-sock-test", initErr)
	session.On("GetGitEnv").
		Run(func(mock.Arguments) { *order = append(*order, "GetGitEnv") }).
		Return(testGitEnv).Maybe()
	session.On("Cleanup", mock.Anything).
		Run(func(mock.Arguments) { *order = append(*order, "Cleanup") }).
		Return()
	return session
}

func recordingSynchronizer(order *[]string, errs map[string]error) *MockRepositorySynchronizer {
	synchronizer := &MockRepositorySynchronizer{}
	for _, method := range []string{"ConfigureGit", "HandleCache", "HandlePullRequestMerge"} {
		method := method
		synchronizer.On(method, mock.Anything).
			Run(func(mock.Arguments) { *order = append(*order, method) }).
			Return(errs[method]).Maybe()
	}
	return synchronizer
}

func TestWithSSHSession(t *testing.T) {
	t.Run("runs fn between initialize and cleanup", func(t *testing.T) {
		var order []string
		session := recordingSession(&order, nil)

		var gotEnv models.GitEnvironment
		err := WithSSHSession(context.Background(), session, func(_ context.Context, gitEnv models.GitEnvironment) error {
			order = append(order, "fn")
			gotEnv = gitEnv
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"Initialize", "GetGitEnv", "fn", "Cleanup"}, order)
		assert.Equal(t, testGitEnv, gotEnv)
		session.AssertNumberOfCalls(t, "Cleanup", 1)
	})

	t.Run("cleans up after initialize failure", func(t *testing.T) {
		var order []string
		initErr := core.NewError(core.SSHInitializationError, "failed to start SSH agent", errors.New("boom"))
		session := recordingSession(&order, initErr)

		fnCalled := false
		err := WithSSHSession(context.Background(), session, func(context.Context, models.GitEnvironment) error {
			fnCalled = true
			return nil
		})

		assert.Equal(t, error(initErr), err)
		assert.False(t, fnCalled)
		assert.Equal(t, []string{"Initialize", "Cleanup"}, order)
	})

	t.Run("cleans up after fn failure and returns its error", func(t *testing.T) {
		var order []string
		session := recordingSession(&order, nil)
		fnErr := errors.New("sync failed")

		err := WithSSHSession(context.Background(), session, func(context.Context, models.GitEnvironment) error {
			return fnErr
		})

		assert.Equal(t, fnErr, err)
		assert.Equal(t, "Cleanup", order[len(order)-1])
	})

	t.Run("cleans up when fn panics", func(t *testing.T) {
		var order []string
		session := recordingSession(&order, nil)

		assert.Panics(t, func() {
			_ = WithSSHSession(context.Background(), session, func(context.Context, models.GitEnvironment) error {
				panic("unexpected")
			})
		})
		session.AssertCalled(t, "Cleanup", mock.Anything)
	})

	t.Run("cleanup context survives cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		session := &MockSSHSession{}
		session.On("Initialize", mock.Anything).Return("/tmp/sock", nil)
		session.On("GetGitEnv").Return(testGitEnv)
		session.On("Cleanup", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })).Return()

		err := WithSSHSession(ctx, session, func(context.Context, models.GitEnvironment) error {
			cancel()
			return context.Canceled
		})

		assert.ErrorIs(t, err, context.Canceled)
		session.AssertExpectations(t)
	})
}

func TestInitRepositoryUseCase_Run(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "acme", "widgets", "branches", "main")
	fs := afero.NewMemMapFs()

	var order []string
	session := recordingSession(&order, nil)
	synchronizer := recordingSynchronizer(&order, nil)

	var factoryEnv models.GitEnvironment
	factory := func(gitEnv models.GitEnvironment) RepositorySynchronizer {
		factoryEnv = gitEnv
		return synchronizer
	}

	useCase := NewInitRepositoryUseCase(workDir, session, factory, fs)
	require.NoError(t, useCase.Run(context.Background()))

	assert.Equal(t, []string{
		"Initialize",
		"GetGitEnv",
		"ConfigureGit",
		"HandleCache",
		"HandlePullRequestMerge",
		"Cleanup",
	}, order)
	assert.Equal(t, testGitEnv, factoryEnv)

	exists, err := afero.DirExists(fs, workDir)
	require.NoError(t, err)
	assert.True(t, exists)

	lock, err := utils.NewDirLock(workDir)
	require.NoError(t, err)
	require.NoError(t, lock.TryLock(), "lock must be released after Run")
	require.NoError(t, lock.Unlock())
}

func TestInitRepositoryUseCase_RunFailures(t *testing.T) {
	cacheErr := core.NewError(core.CacheHandlingError, "", errors.New("git clone failed"))
	gitErr := core.NewError(core.GitConfigurationError, "failed to set user.email", errors.New("locked"))
	initErr := core.NewError(core.SSHInitializationError, "SSH_PRIVATE_KEY secret is not set", nil)

	tests := []struct {
		name          string
		initErr       error
		syncErrs      map[string]error
		expectedKind  core.ErrorKind
		expectedOrder []string
	}{
		{
			name:          "initialize fails",
			initErr:       initErr,
			expectedKind:  core.SSHInitializationError,
			expectedOrder: []string{"Initialize", "Cleanup"},
		},
		{
			name:          "configure git fails",
			syncErrs:      map[string]error{"ConfigureGit": gitErr},
			expectedKind:  core.GitConfigurationError,
			expectedOrder: []string{"Initialize", "GetGitEnv", "ConfigureGit", "Cleanup"},
		},
		{
			name:          "cache handling fails",
			syncErrs:      map[string]error{"HandleCache": cacheErr},
			expectedKind:  core.CacheHandlingError,
			expectedOrder: []string{"Initialize", "GetGitEnv", "ConfigureGit", "HandleCache", "Cleanup"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workDir := filepath.Join(t.TempDir(), "work")
			var order []string
			session := recordingSession(&order, tt.initErr)
			synchronizer := recordingSynchronizer(&order, tt.syncErrs)

			useCase := NewInitRepositoryUseCase(workDir, session, func(models.GitEnvironment) RepositorySynchronizer {
				return synchronizer
			}, afero.NewMemMapFs())

			err := useCase.Run(context.Background())
			require.Error(t, err)
			assert.True(t, core.IsKind(err, tt.expectedKind))
			assert.Equal(t, tt.expectedOrder, order)
		})
	}
}

func TestInitRepositoryUseCase_RunLockedDirectory(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "work")

	held, err := utils.NewDirLock(workDir)
	require.NoError(t, err)
	require.NoError(t, held.TryLock())
	defer held.Unlock()

	session := &MockSSHSession{}
	useCase := NewInitRepositoryUseCase(workDir, session, func(models.GitEnvironment) RepositorySynchronizer {
		t.Fatal("synchronizer must not be built")
		return nil
	}, afero.NewMemMapFs())

	err = useCase.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to lock working directory")
	assert.Contains(t, err.Error(), "another repoinit instance")
	session.AssertNotCalled(t, "Initialize", mock.Anything)
}

func TestInitRepositoryUseCase_RunCannotCreateDirectory(t *testing.T) {
	session := &MockSSHSession{}
	useCase := NewInitRepositoryUseCase("/work/acme", session, nil, afero.NewReadOnlyFs(afero.NewMemMapFs()))

	err := useCase.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create working directory")
	session.AssertNotCalled(t, "Initialize", mock.Anything)
}
