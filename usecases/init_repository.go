package usecases

import (
	"context"
	"fmt"
	"os"

	"repoinit/core"
	"repoinit/core/log"
	"repoinit/models"
	"repoinit/utils"

	"github.com/spf13/afero"
)

const workingDirPerm os.FileMode = 0o755

// SSHSession is a per-job SSH agent holding one identity
type SSHSession interface {
	Initialize(ctx context.Context) (string, error)
	Cleanup(ctx context.Context)
	GetGitEnv() models.GitEnvironment
}

// RepositorySynchronizer brings the working directory to the target commit
type RepositorySynchronizer interface {
	ConfigureGit(ctx context.Context) error
	HandleCache(ctx context.Context) error
	HandlePullRequestMerge(ctx context.Context) error
}

// SynchronizerFactory builds a synchronizer bound to an initialized session's git environment
type SynchronizerFactory func(gitEnv models.GitEnvironment) RepositorySynchronizer

// WithSSHSession initializes session, runs fn with its git environment and always
// cleans the session up afterwards, including when Initialize fails. The error of
// Initialize or fn is returned unchanged; cleanup problems are only logged.
func WithSSHSession(
	ctx context.Context,
	session SSHSession,
	fn func(ctx context.Context, gitEnv models.GitEnvironment) error,
) error {
	// cleanup must still reach the agent after an interrupt cancelled ctx
	defer session.Cleanup(context.WithoutCancel(ctx))

	if _, err := session.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, session.GetGitEnv())
}

type InitRepositoryUseCase struct {
	workingDirectory string
	session          SSHSession
	newSynchronizer  SynchronizerFactory
	fs               afero.Fs
}

func NewInitRepositoryUseCase(
	workingDirectory string,
	session SSHSession,
	newSynchronizer SynchronizerFactory,
	fs afero.Fs,
) *InitRepositoryUseCase {
	return &InitRepositoryUseCase{
		workingDirectory: workingDirectory,
		session:          session,
		newSynchronizer:  newSynchronizer,
		fs:               fs,
	}
}

// Run prepares and locks the working directory, then synchronizes it inside an
// SSH session
func (u *InitRepositoryUseCase) Run(ctx context.Context) error {
	log.Info("📋 Starting to initialize repository", "dir", u.workingDirectory)

	if err := u.fs.MkdirAll(u.workingDirectory, workingDirPerm); err != nil {
		return core.NewError(core.CacheHandlingError, "failed to create working directory", err)
	}

	dirLock, err := utils.NewDirLock(u.workingDirectory)
	if err != nil {
		return core.NewError(core.CacheHandlingError, "failed to create working directory lock", err)
	}
	if err := dirLock.TryLock(); err != nil {
		return core.NewError(core.CacheHandlingError, "failed to lock working directory", err)
	}
	defer func() {
		if err := dirLock.Unlock(); err != nil {
			log.Warn("⚠️ Failed to release working directory lock", "path", dirLock.GetLockPath(), "error", err)
		}
	}()

	err = WithSSHSession(ctx, u.session, func(ctx context.Context, gitEnv models.GitEnvironment) error {
		return u.synchronize(ctx, u.newSynchronizer(gitEnv))
	})
	if err != nil {
		log.Error("❌ Repository initialization failed", "error", err)
		return err
	}

	log.Info("📋 Completed successfully - initialized repository", "dir", u.workingDirectory)
	return nil
}

func (u *InitRepositoryUseCase) synchronize(ctx context.Context, synchronizer RepositorySynchronizer) error {
	if err := synchronizer.ConfigureGit(ctx); err != nil {
		return err
	}
	if err := synchronizer.HandleCache(ctx); err != nil {
		return err
	}
	if err := synchronizer.HandlePullRequestMerge(ctx); err != nil {
		return fmt.Errorf("pull request merge failed: %w", err)
	}
	return nil
}
