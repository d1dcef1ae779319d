package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"repoinit/core"
	"repoinit/core/log"
	"repoinit/models"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/joho/godotenv"
	"github.com/samber/mo"
	"github.com/sethvargo/go-envconfig"
)

// initEnv mirrors the job environment read by `repoinit init`
type initEnv struct {
	Repository string `env:"GITHUB_REPOSITORY,required"`
	SHA        string `env:"GITHUB_SHA,required"`
	Actor      string `env:"GITHUB_ACTOR,required"`
	Ref        string `env:"GITHUB_REF,required"`
	BaseRef    string `env:"GITHUB_BASE_REF"`
	RunID      string `env:"GITHUB_RUN_ID,required"`
	MarkerFile string `env:"INIT_REPOSITORY_PIPELINE_ID_ENV_FILE,required"`
	// Checked by the SSH session so a missing key is reported as an SSH failure
	PrivateKey string `env:"SSH_PRIVATE_KEY"`
}

type workdirEnv struct {
	Repository string `env:"GITHUB_REPOSITORY,required"`
	Ref        string `env:"GITHUB_REF,required"`
	Prefix     string `env:"WORKING_DIRECTORY_PREFIX"`
	OutputFile string `env:"GITHUB_OUTPUT"`
	EnvFile    string `env:"GITHUB_ENV"`
}

// InitConfig is everything `repoinit init` needs, gathered once at startup
type InitConfig struct {
	Target     models.RepositoryTarget
	Actor      string
	Ref        string
	BaseRef    mo.Option[string] // present for pull request runs
	RunID      string
	MarkerFile string
	PrivateKey string
}

type WorkdirConfig struct {
	Repository string
	Ref        string
	Prefix     string
	OutputFile string
	EnvFile    string
}

// LoadDotEnv loads a .env file from the current directory when one exists
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("ℹ️ Could not load .env file, continuing with system env vars")
	}
}

// LoadInitConfig reads and validates the init configuration. A nil lookuper
// reads the process environment.
func LoadInitConfig(ctx context.Context, lookuper envconfig.Lookuper) (InitConfig, error) {
	var env initEnv
	if err := process(ctx, &env, lookuper); err != nil {
		return InitConfig{}, err
	}

	required := map[string]string{
		"GITHUB_REPOSITORY":                    env.Repository,
		"GITHUB_SHA":                           env.SHA,
		"GITHUB_ACTOR":                         env.Actor,
		"GITHUB_REF":                           env.Ref,
		"GITHUB_RUN_ID":                        env.RunID,
		"INIT_REPOSITORY_PIPELINE_ID_ENV_FILE": env.MarkerFile,
	}
	if err := checkNotBlank(required); err != nil {
		return InitConfig{}, err
	}

	if err := models.ValidateRepositoryName(env.Repository); err != nil {
		return InitConfig{}, core.NewError(core.ConfigurationError, "invalid GITHUB_REPOSITORY", err)
	}
	if !plumbing.IsHash(env.SHA) {
		return InitConfig{}, core.NewError(core.ConfigurationError, "invalid GITHUB_SHA",
			fmt.Errorf("%q is not a full commit hash", env.SHA))
	}
	if !filepath.IsLocal(env.MarkerFile) {
		return InitConfig{}, core.NewError(core.ConfigurationError, "invalid INIT_REPOSITORY_PIPELINE_ID_ENV_FILE",
			fmt.Errorf("%q must be a relative path inside the working directory", env.MarkerFile))
	}

	baseRef := mo.None[string]()
	if strings.TrimSpace(env.BaseRef) != "" {
		baseRef = mo.Some(env.BaseRef)
	}

	return InitConfig{
		Target:     models.RepositoryTarget{Repository: env.Repository, SHA: strings.ToLower(env.SHA)},
		Actor:      env.Actor,
		Ref:        env.Ref,
		BaseRef:    baseRef,
		RunID:      env.RunID,
		MarkerFile: env.MarkerFile,
		PrivateKey: env.PrivateKey,
	}, nil
}

// LoadWorkdirConfig reads the configuration of `repoinit workdir`
func LoadWorkdirConfig(ctx context.Context, lookuper envconfig.Lookuper) (WorkdirConfig, error) {
	var env workdirEnv
	if err := process(ctx, &env, lookuper); err != nil {
		return WorkdirConfig{}, err
	}

	if err := checkNotBlank(map[string]string{
		"GITHUB_REPOSITORY": env.Repository,
		"GITHUB_REF":        env.Ref,
	}); err != nil {
		return WorkdirConfig{}, err
	}

	return WorkdirConfig(env), nil
}

func process(ctx context.Context, target any, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   target,
		Lookuper: lookuper,
	})
	if err != nil {
		return core.NewError(core.ConfigurationError, "failed to process environment", err)
	}
	return nil
}

// checkNotBlank rejects required variables that are set but empty
func checkNotBlank(values map[string]string) error {
	var blank []string
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			blank = append(blank, name)
		}
	}
	if len(blank) == 0 {
		return nil
	}

	slices.Sort(blank)
	return core.NewError(core.ConfigurationError, "missing required value", errors.New(strings.Join(blank, ", ")))
}
