// Package main provides ghclone, a CLI that clones a GitHub repository over
// HTTPS, authenticating with a personal access token when one is available.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/NicabarNimble/go-ghclone/internal/cloner"
	"github.com/NicabarNimble/go-ghclone/internal/config"
	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
	"github.com/NicabarNimble/go-ghclone/internal/git"
	"github.com/NicabarNimble/go-ghclone/internal/logging"
	"github.com/NicabarNimble/go-ghclone/internal/progress"
)

// cloneOptions holds the command line flags
type cloneOptions struct {
	targetDir     string
	token         string
	envFile       string
	envFileSet    bool
	noAccessCheck bool
	quiet         bool
	verbose       bool
}

// cloneFunc allows for mocking in tests
var cloneFunc = func(ctx context.Context, c *cloner.Cloner, req cloner.Request) (*cloner.Result, error) {
	return c.Clone(ctx, req)
}

var (
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cloneOptions{}
	v := config.New()

	runE := func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		opts.envFileSet = cmd.Flag("env-file").Changed
		return runClone(cmd.Context(), v, opts, args[0], stdout, stderr)
	}

	cmd := &cobra.Command{
		Use:   "ghclone [source-url]",
		Short: "Clone a GitHub repository over HTTPS",
		Long: `Clone a public or private GitHub repository over HTTPS.

A personal access token is taken from --token, then from GITHUB_TOKEN in the
environment, then from GITHUB_TOKEN in a .env file. Without a token the
repository is assumed to be public.

Example usage:
  ghclone https://github.com/owner/repo
  ghclone clone https://github.com/owner/repo.git --target-dir ./src/repo
  GITHUB_TOKEN=ghp_... ghclone clone https://github.com/owner/private-repo`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.targetDir, "target-dir", "", "Directory to clone into (default ./<repo>)")
	flags.StringVar(&opts.token, "token", "", "GitHub personal access token (overrides GITHUB_TOKEN)")
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "Path of the .env file to read settings from")
	flags.String("backend", config.BackendGit, "Clone backend: git or go-git")
	flags.String("git-binary", "git", "git executable used by the git backend")
	flags.Duration("timeout", 10*time.Minute, "Maximum duration of the clone")
	flags.BoolVar(&opts.noAccessCheck, "no-access-check", false, "Skip the GitHub API access check before cloning")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print errors")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print debug output")
	cmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	bindFlag(v, config.KeyBackend, cmd, "backend")
	bindFlag(v, config.KeyGitBinary, cmd, "git-binary")
	bindFlag(v, config.KeyTimeout, cmd, "timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "clone <source-url>",
		Short: "Clone a GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE:  runE,
	})

	return cmd
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

func runClone(ctx context.Context, v *viper.Viper, opts *cloneOptions, sourceURL string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level := logging.LevelNormal
	switch {
	case opts.quiet:
		level = logging.LevelQuiet
	case opts.verbose:
		level = logging.LevelVerbose
	}
	log := logging.New(stderr, level)
	defer func() { _ = log.Sync() }()

	load := config.Load
	if opts.envFileSet {
		load = config.LoadFile
	}
	cfg, err := load(v, opts.envFile)
	if err != nil {
		return err
	}
	if cfg.EnvFileLoaded {
		log.Debugw("loaded settings", "file", cfg.EnvFile)
	}

	c, err := newCloner(cfg, opts, log, stderr)
	if err != nil {
		return ghcerrors.New("setup", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	result, err := cloneFunc(ctx, c, cloner.Request{
		SourceURL: sourceURL,
		TargetDir: opts.targetDir,
		Token:     opts.token,
	})
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintln(stderr, style(stderr, successStyle, "Cloned "+result.Summary()))
	}
	fmt.Fprintln(stdout, result.Path)
	return nil
}

func newCloner(cfg *config.Config, opts *cloneOptions, log *zap.SugaredLogger, stderr io.Writer) (*cloner.Cloner, error) {
	var backend git.Backend
	switch cfg.Backend {
	case config.BackendGoGit:
		backend = git.NewGoGitBackend()
	default:
		backend = git.NewExecBackend(cfg.GitBinary)
	}

	var tracker progress.Tracker = &progress.DefaultTracker{}
	if !opts.quiet && isTerminal(stderr) {
		tracker = progress.NewConsoleTracker(stderr)
	}

	clonerOpts := cloner.Options{
		Backend:         backend,
		Logger:          log,
		Tracker:         tracker,
		EnterpriseHosts: cfg.EnterpriseHosts,
		EnvFile:         cfg.EnvFile,
		FileToken:       cfg.FileToken,
	}
	if !opts.noAccessCheck {
		clonerOpts.NewChecker = cloner.GitHubChecker(cfg.APIURL)
	}

	return cloner.New(clonerOpts)
}

// reportError prints err as a single line tagged with its Kind
func reportError(w io.Writer, err error) {
	kind := ghcerrors.KindOf(err)
	fmt.Fprintln(w, style(w, errorStyle, fmt.Sprintf("Error [%s]: %v", kind, err)))
}

func style(w io.Writer, s lipgloss.Style, text string) string {
	if !isTerminal(w) {
		return text
	}
	return s.Render(text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
