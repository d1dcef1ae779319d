package clients

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"repoinit/core/log"
	"repoinit/models"

	"github.com/go-git/go-git/v5"
)

// GitClient runs git commands against a working directory. Commands that talk
// to the remote receive the GitEnvironment explicitly.
type GitClient struct {
	runner CommandRunner
}

func NewGitClient(runner CommandRunner) *GitClient {
	return &GitClient{runner: runner}
}

func (g *GitClient) run(ctx context.Context, dir string, env []string, args ...string) error {
	_, err := g.runner.Run(ctx, Command{
		Name: "git",
		Args: args,
		Dir:  dir,
		Env:  env,
	})
	return err
}

// SetGlobalConfig writes key=value into the user's global git config
func (g *GitClient) SetGlobalConfig(ctx context.Context, key, value string) error {
	log.Info("📋 Setting global git config", "key", key)

	if err := g.run(ctx, "", nil, "config", "--global", key, value); err != nil {
		log.Error("❌ Git config failed", "key", key, "error", err)
		return fmt.Errorf("git config --global %s failed: %w", key, err)
	}

	log.Info("✅ Set global git config", "key", key)
	return nil
}

// SetConfig writes key=value into the repository config at dir
func (g *GitClient) SetConfig(ctx context.Context, dir, key, value string) error {
	log.Info("📋 Setting repository git config", "key", key)

	if err := g.run(ctx, dir, nil, "config", key, value); err != nil {
		log.Error("❌ Git config failed", "key", key, "error", err)
		return fmt.Errorf("git config %s failed: %w", key, err)
	}

	log.Info("✅ Set repository git config", "key", key)
	return nil
}

// Clone shallow-clones ref from remoteURL into dir. The remote must accept ref
// as a fetchable name; GitHub does for advertised commit SHAs.
func (g *GitClient) Clone(ctx context.Context, dir, remoteURL, ref string, depth int, env models.GitEnvironment) error {
	log.Info("📋 Starting to clone repository", "remote", remoteURL, "ref", ref, "depth", depth)

	args := []string{"clone", "--depth", strconv.Itoa(depth), "--branch", ref, remoteURL, "."}
	if err := g.run(ctx, dir, env.Environ(), args...); err != nil {
		log.Error("❌ Git clone failed", "remote", remoteURL, "error", err)
		return fmt.Errorf("git clone failed: %w", err)
	}

	log.Info("✅ Successfully cloned repository", "remote", remoteURL)
	return nil
}

// FetchTags force-fetches every tag from origin
func (g *GitClient) FetchTags(ctx context.Context, dir string, env models.GitEnvironment) error {
	log.Info("📋 Starting to fetch tags")

	if err := g.run(ctx, dir, env.Environ(), "fetch", "--tags", "--force"); err != nil {
		log.Error("❌ Git fetch failed", "error", err)
		return fmt.Errorf("git fetch failed: %w", err)
	}

	log.Info("✅ Successfully fetched tags")
	return nil
}

// ResetHard moves the current branch and working tree to sha
func (g *GitClient) ResetHard(ctx context.Context, dir, sha string, env models.GitEnvironment) error {
	log.Info("📋 Starting to reset hard", "sha", sha)

	if err := g.run(ctx, dir, env.Environ(), "reset", "--hard", sha); err != nil {
		log.Error("❌ Git reset hard failed", "sha", sha, "error", err)
		return fmt.Errorf("git reset hard failed: %w", err)
	}

	log.Info("✅ Successfully reset hard", "sha", sha)
	return nil
}

// HasRemote reports whether the repository rooted exactly at dir has a remote
// called name. A directory that is not a repository has no remotes; parent
// directories are not searched.
func (g *GitClient) HasRemote(dir, name string) (bool, error) {
	log.Info("📋 Checking for remote", "remote", name, "dir", dir)

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		log.Info("ℹ️ Directory is not a git repository", "dir", dir)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	if _, err := repo.Remote(name); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			log.Info("ℹ️ Remote not configured", "remote", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to read remote %s: %w", name, err)
	}

	log.Info("✅ Remote found", "remote", name)
	return true, nil
}
