package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"repoinit/clients"
	"repoinit/config"
	"repoinit/core/log"
	"repoinit/models"
	"repoinit/services"
	"repoinit/usecases"

	"github.com/jessevdk/go-flags"
	"github.com/spf13/afero"
)

type Options struct {
	Verbose bool `short:"v" long:"verbose" description:"Enable debug logging"`
	Quiet   bool `short:"q" long:"quiet" description:"Only log warnings and errors"`

	Init    InitCommand    `command:"init" description:"Start an SSH agent, sync the working directory to GITHUB_SHA and revoke the key"`
	Workdir WorkdirCommand `command:"workdir" description:"Create the job working directory and publish its path"`
}

// runtime is shared by every command; go-flags skips unexported fields
type runtime struct {
	ctx    context.Context
	opts   *Options
	stdout io.Writer
	fs     afero.Fs
}

func (r *runtime) configureLogging() {
	switch {
	case r.opts.Verbose:
		log.SetLevel(slog.LevelDebug)
	case r.opts.Quiet:
		log.SetLevel(slog.LevelWarn)
	default:
		log.SetLevel(slog.LevelInfo)
	}
}

type InitCommand struct {
	WorkingDirectory string `long:"working-directory" required:"true" description:"Directory holding the repository checkout"`

	rt *runtime
}

func (c *InitCommand) Execute(_ []string) error {
	c.rt.configureLogging()
	ctx := c.rt.ctx

	cfg, err := config.LoadInitConfig(ctx, nil)
	if err != nil {
		return err
	}
	log.Info("📋 Loaded configuration",
		"repository", cfg.Target.Repository,
		"sha", cfg.Target.SHA,
		"ref", cfg.Ref,
		"runID", cfg.RunID,
	)

	sessionConfig, err := services.DefaultSSHSessionConfig(cfg.PrivateKey)
	if err != nil {
		return err
	}

	runner := clients.NewExecRunner()
	session := services.NewSSHSessionService(sessionConfig, clients.NewSSHClient(runner), c.rt.fs)
	gitClient := clients.NewGitClient(runner)

	newSynchronizer := func(gitEnv models.GitEnvironment) usecases.RepositorySynchronizer {
		return services.NewRepositoryService(services.RepositoryConfig{
			WorkingDirectory: c.WorkingDirectory,
			MarkerFile:       cfg.MarkerFile,
			Target:           cfg.Target,
			Actor:            cfg.Actor,
			BaseRef:          cfg.BaseRef,
			RunID:            cfg.RunID,
		}, gitEnv, gitClient, c.rt.fs)
	}

	return usecases.NewInitRepositoryUseCase(c.WorkingDirectory, session, newSynchronizer, c.rt.fs).Run(ctx)
}

type WorkdirCommand struct {
	Path string `long:"path" description:"Base directory, defaults to WORKING_DIRECTORY_PREFIX"`

	rt *runtime
}

func (c *WorkdirCommand) Execute(_ []string) error {
	c.rt.configureLogging()

	cfg, err := config.LoadWorkdirConfig(c.rt.ctx, nil)
	if err != nil {
		return err
	}

	basePath := c.Path
	if basePath == "" {
		basePath = cfg.Prefix
	}

	directory := services.NewDirectoryService(services.DirectoryConfig{
		BasePath:   basePath,
		Repository: cfg.Repository,
		Ref:        cfg.Ref,
	}, c.rt.fs)
	outputs := clients.NewActionsClient(c.rt.fs, cfg.OutputFile, cfg.EnvFile)

	path, err := usecases.NewWorkingDirectoryUseCase(directory, outputs).Run()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.rt.stdout, path)
	return nil
}

// run parses args and executes the selected command, returning the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer, fs afero.Fs) int {
	// stdout carries command results, so logs go to stderr
	log.SetWriter(stderr)
	config.LoadDotEnv()

	var opts Options
	rt := &runtime{ctx: ctx, opts: &opts, stdout: stdout, fs: fs}
	opts.Init.rt = rt
	opts.Workdir.rt = rt

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "repoinit"

	_, err := parser.ParseArgs(args)
	if err == nil {
		return 0
	}

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stderr, "Action failed: %v\n", err)
	return 1
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, afero.NewOsFs())
	cancel()
	os.Exit(code)
}
