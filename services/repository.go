package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"repoinit/core"
	"repoinit/core/log"
	"repoinit/models"
	"repoinit/utils"

	"github.com/samber/mo"
	"github.com/spf13/afero"
)

const (
	originRemote   = "origin"
	cloneDepth     = 1
	noReplyDomain  = "users.noreply.github.com"
	workingDirPerm = 0o755
)

// RepositoryGitClient is the subset of clients.GitClient the synchronizer needs
type RepositoryGitClient interface {
	SetGlobalConfig(ctx context.Context, key, value string) error
	SetConfig(ctx context.Context, dir, key, value string) error
	Clone(ctx context.Context, dir, remoteURL, ref string, depth int, env models.GitEnvironment) error
	FetchTags(ctx context.Context, dir string, env models.GitEnvironment) error
	ResetHard(ctx context.Context, dir, sha string, env models.GitEnvironment) error
	HasRemote(dir, name string) (bool, error)
}

type RepositoryConfig struct {
	WorkingDirectory string
	MarkerFile       string // relative to WorkingDirectory
	Target           models.RepositoryTarget
	Actor            string
	BaseRef          mo.Option[string]
	RunID            string
}

// RepositoryService brings a working directory to the target commit, cloning
// or updating depending on what a previous run left behind
type RepositoryService struct {
	config    RepositoryConfig
	gitEnv    models.GitEnvironment
	gitClient RepositoryGitClient
	fs        afero.Fs
	setenv    func(key, value string) error
}

func NewRepositoryService(
	config RepositoryConfig,
	gitEnv models.GitEnvironment,
	gitClient RepositoryGitClient,
	fs afero.Fs,
) *RepositoryService {
	return &RepositoryService{
		config:    config,
		gitEnv:    gitEnv,
		gitClient: gitClient,
		fs:        fs,
		setenv:    os.Setenv,
	}
}

// ConfigureGit sets the commit identity for the actor and allows git to discover
// repositories across filesystem boundaries for the rest of the process tree
func (r *RepositoryService) ConfigureGit(ctx context.Context) error {
	log.Info("📋 Starting to configure git")

	email := fmt.Sprintf("%s@%s", r.config.Actor, noReplyDomain)
	if err := r.gitClient.SetGlobalConfig(ctx, "user.email", email); err != nil {
		return core.NewError(core.GitConfigurationError, "failed to set user.email", err)
	}
	if err := r.gitClient.SetGlobalConfig(ctx, "user.name", r.config.Actor); err != nil {
		return core.NewError(core.GitConfigurationError, "failed to set user.name", err)
	}
	if err := r.setenv("GIT_DISCOVERY_ACROSS_FILESYSTEM", "true"); err != nil {
		return core.NewError(core.GitConfigurationError, "failed to enable discovery across filesystems", err)
	}

	log.Info("📋 Completed successfully - configured git", "actor", r.config.Actor)
	return nil
}

// HandleCache synchronizes the working directory with the target commit.
//
//	marker == current run id  -> purge directory, then continue as below
//	no origin remote          -> shallow clone, disable rename detection, fetch tags
//	origin remote             -> fetch tags, hard reset
//
// The marker is rewritten only when every step succeeded, so a failed run leaves
// the previous marker for the next invocation to judge.
func (r *RepositoryService) HandleCache(ctx context.Context) error {
	log.Info("📋 Starting to handle repository cache", "dir", r.config.WorkingDirectory)

	if err := r.handleCache(ctx); err != nil {
		log.Error("❌ Cache handling failed", "error", err)
		return core.NewError(core.CacheHandlingError, "", err)
	}

	log.Info("📋 Completed successfully - handled repository cache")
	return nil
}

func (r *RepositoryService) handleCache(ctx context.Context) error {
	previous, found := r.readMarker()
	if found && previous.RunID == r.config.RunID {
		log.Info("🔁 Job has been manually re-run, removing repository cache", "runID", r.config.RunID)
		if err := r.purgeWorkingDirectory(); err != nil {
			return err
		}
	}

	hasOrigin, err := r.gitClient.HasRemote(r.config.WorkingDirectory, originRemote)
	if err != nil {
		return fmt.Errorf("failed to check for %s remote: %w", originRemote, err)
	}

	if hasOrigin {
		if err := r.updateRepository(ctx); err != nil {
			return fmt.Errorf("repository update failed: %w", err)
		}
	} else {
		if err := r.cloneRepository(ctx); err != nil {
			return fmt.Errorf("repository clone failed: %w", err)
		}
	}

	if err := r.writeMarker(); err != nil {
		return fmt.Errorf("failed to write cache marker: %w", err)
	}
	return nil
}

func (r *RepositoryService) markerPath() string {
	return filepath.Join(r.config.WorkingDirectory, r.config.MarkerFile)
}

// readMarker treats any read or parse failure as an absent marker
func (r *RepositoryService) readMarker() (models.CacheMarker, bool) {
	data, err := afero.ReadFile(r.fs, r.markerPath())
	if err != nil {
		log.Debug("ℹ️ No previous run ID found", "error", err)
		return models.CacheMarker{}, false
	}

	marker, err := models.ParseCacheMarker(string(data))
	if err != nil {
		log.Warn("⚠️ Ignoring unreadable cache marker", "path", r.markerPath(), "error", err)
		return models.CacheMarker{}, false
	}

	log.Debug("ℹ️ Previous run ID", "runID", marker.RunID)
	return marker, true
}

func (r *RepositoryService) writeMarker() error {
	marker := models.CacheMarker{RunID: r.config.RunID}
	return utils.WriteFileAtomic(r.fs, r.markerPath(), []byte(marker.String()))
}

// purgeWorkingDirectory deletes the whole tree before recreating it empty. An
// interruption between the two leaves the directory missing, never half-deleted
// and reused.
func (r *RepositoryService) purgeWorkingDirectory() error {
	dir := r.config.WorkingDirectory
	if err := r.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := r.fs.MkdirAll(dir, workingDirPerm); err != nil {
		return fmt.Errorf("failed to recreate %s: %w", dir, err)
	}
	return nil
}

func (r *RepositoryService) cloneRepository(ctx context.Context) error {
	dir := r.config.WorkingDirectory
	target := r.config.Target

	if err := r.gitClient.Clone(ctx, dir, target.RemoteURL(), target.SHA, cloneDepth, r.gitEnv); err != nil {
		return err
	}
	if err := r.gitClient.SetConfig(ctx, dir, "merge.directoryRenames", "false"); err != nil {
		return err
	}
	return r.gitClient.FetchTags(ctx, dir, r.gitEnv)
}

func (r *RepositoryService) updateRepository(ctx context.Context) error {
	dir := r.config.WorkingDirectory

	if err := r.gitClient.FetchTags(ctx, dir, r.gitEnv); err != nil {
		return err
	}
	return r.gitClient.ResetHard(ctx, dir, r.config.Target.SHA, r.gitEnv)
}

// HandlePullRequestMerge is a pass-through: nothing runs for non pull request
// jobs, and merge-result checkouts for pull requests are not defined yet.
func (r *RepositoryService) HandlePullRequestMerge(_ context.Context) error {
	baseRef, ok := r.config.BaseRef.Get()
	if !ok {
		log.Debug("ℹ️ Not a pull request, skipping merge handling")
		return nil
	}

	// TODO: merge-result checkout against baseRef once its behavior is agreed on
	log.Info("ℹ️ Pull request run, merge handling not yet specified", "baseRef", baseRef)
	return nil
}
