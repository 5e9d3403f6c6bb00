// Package cloner turns a clone request into a delegated clone.
//
// A request is validated before anything touches the network: the URL must
// be an HTTPS GitHub repository URL. The token is then resolved (flag, then
// GITHUB_TOKEN from the environment, then GITHUB_TOKEN from the .env file),
// embedded into the clone URL, optionally checked against the GitHub API, and
// handed to a git.Backend together with the target directory.
//
// Every failure is an *errors.OperationError carrying one of the five Kinds.
// The token never appears in a log line or an error message.
package cloner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
	"github.com/NicabarNimble/go-ghclone/internal/git"
	"github.com/NicabarNimble/go-ghclone/internal/github"
	"github.com/NicabarNimble/go-ghclone/internal/progress"
	"github.com/NicabarNimble/go-ghclone/internal/token"
	"github.com/NicabarNimble/go-ghclone/internal/urlutils"
)

// Request contains the inputs of one clone
type Request struct {
	SourceURL string
	TargetDir string // Optional: defaults to ./<repo>
	Token     string // Optional: overrides GITHUB_TOKEN
}

// Result describes a completed clone
type Result struct {
	Path        string // absolute target directory
	Repository  string // owner/repo
	TokenSource token.Source
	Backend     string
	Duration    time.Duration
	Size        int64 // bytes on disk
}

// Summary renders the result for humans, e.g. "foo/bar (1.2 MB in 3s)"
func (r *Result) Summary() string {
	return fmt.Sprintf("%s (%s in %s)", r.Repository, humanize.Bytes(uint64(r.Size)), r.Duration.Round(time.Millisecond))
}

// AccessChecker looks a repository up before it is cloned
type AccessChecker interface {
	CheckAccess(ctx context.Context, owner, repo string) (*github.Repository, error)
}

// CheckerFactory builds an AccessChecker for a token and repository host
type CheckerFactory func(ctx context.Context, tokenValue, host string) (AccessChecker, error)

// GitHubChecker returns a CheckerFactory backed by the GitHub REST API.
// apiURL overrides the endpoint derived from the repository host.
func GitHubChecker(apiURL string) CheckerFactory {
	return func(ctx context.Context, tokenValue, host string) (AccessChecker, error) {
		checker, err := github.NewAccessChecker(ctx, tokenValue, host, apiURL)
		if err != nil {
			return nil, err
		}
		return checker, nil
	}
}

// Options configures a Cloner
type Options struct {
	// Backend performs the clone. Required.
	Backend git.Backend

	Logger  *zap.SugaredLogger
	Tracker progress.Tracker

	// EnterpriseHosts lists GitHub Enterprise Server hosts accepted besides
	// github.com and *.github.com
	EnterpriseHosts []string

	// EnvFile and FileToken identify GITHUB_TOKEN as read from the .env file
	EnvFile   string
	FileToken string

	// NewChecker enables the pre-clone access check when a token is set
	NewChecker CheckerFactory
}

// Cloner validates requests and delegates clones to its backend
type Cloner struct {
	backend    git.Backend
	log        *zap.SugaredLogger
	tracker    progress.Tracker
	hosts      []string
	envFile    string
	fileToken  string
	newChecker CheckerFactory
}

// New creates a Cloner
func New(opts Options) (*Cloner, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("clone backend must be specified")
	}

	c := &Cloner{
		backend:    opts.Backend,
		log:        opts.Logger,
		tracker:    opts.Tracker,
		hosts:      opts.EnterpriseHosts,
		envFile:    opts.EnvFile,
		fileToken:  opts.FileToken,
		newChecker: opts.NewChecker,
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	if c.tracker == nil {
		c.tracker = &progress.DefaultTracker{}
	}
	return c, nil
}

// Clone validates req and clones the repository it names
func (c *Cloner) Clone(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	repo, err := urlutils.ParseRepository(req.SourceURL, c.hosts...)
	if err != nil {
		return nil, ghcerrors.NewKind("validate", ghcerrors.KindInvalidURL, err)
	}

	tok, err := c.resolveToken(req.Token)
	if err != nil {
		return nil, ghcerrors.NewKind("resolve-token", ghcerrors.KindAuthFailed, err)
	}

	cloneURL := repo.URL
	if tok.Present() {
		switch token.DetectProvider(tok.Value) {
		case token.ProviderGitHub:
		case token.ProviderGitLab:
			c.log.Warnw("token looks like a GitLab token, using it anyway", "token", tok.String())
		default:
			c.log.Warnw("token does not have a known GitHub prefix, using it anyway", "token", tok.String())
		}
		if cloneURL, err = urlutils.FormatTokenURL(repo.URL, tok.Value); err != nil {
			return nil, ghcerrors.NewKind("resolve-token", ghcerrors.KindAuthFailed, err)
		}
		if err := c.checkAccess(ctx, repo, tok); err != nil {
			return nil, err
		}
	} else {
		c.log.Debug("no token found, assuming a public repository")
	}

	targetDir := req.TargetDir
	if targetDir == "" {
		targetDir = "./" + repo.Name
	}
	path, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, ghcerrors.NewKind("prepare-target", ghcerrors.KindUnknown, fmt.Errorf("resolve target directory: %w", err))
	}

	existed, err := prepareTarget(path)
	if err != nil {
		return nil, err
	}

	c.log.Infow("cloning repository",
		"repository", repo.FullName(),
		"url", urlutils.Redact(cloneURL),
		"target", path,
		"backend", c.backend.Name(),
		"token", tok.String(),
	)

	out := progress.NewGitOutputWriter(c.tracker)
	out.Passthrough = func(line string) {
		c.log.Debug(urlutils.RedactToken(line, tok.Value))
	}

	err = c.backend.Clone(ctx, git.Request{URL: cloneURL, Dir: path, Progress: out})
	if err != nil {
		out.Abort(err)
		if !existed {
			if rmErr := os.RemoveAll(path); rmErr != nil {
				c.log.Warnw("failed to remove partial clone", "target", path, "error", rmErr)
			}
		}
		var opErr *ghcerrors.OperationError
		if !stderrors.As(err, &opErr) {
			err = ghcerrors.New("clone", err)
		}
		return nil, err
	}
	_ = out.Close()

	size, err := dirSize(path)
	if err != nil {
		c.log.Debugw("could not measure clone size", "error", err)
	}

	result := &Result{
		Path:        path,
		Repository:  repo.FullName(),
		TokenSource: tok.Source,
		Backend:     c.backend.Name(),
		Duration:    time.Since(start),
		Size:        size,
	}
	c.log.Infow("clone complete", "path", path, "size", humanize.Bytes(uint64(size)), "took", result.Duration.Round(time.Millisecond))
	return result, nil
}

func (c *Cloner) resolveToken(flagValue string) (token.Token, error) {
	r := token.NewResolver().
		WithFlag(flagValue).
		WithEnv(token.EnvVar)
	if c.fileToken != "" {
		r = r.WithFile(c.envFile, c.fileToken)
	}
	return r.Resolve()
}

// checkAccess asks the GitHub API whether tok can see repo. A rate-limited
// API is not a reason to refuse the clone.
func (c *Cloner) checkAccess(ctx context.Context, repo *urlutils.Repository, tok token.Token) error {
	if c.newChecker == nil {
		return nil
	}

	checker, err := c.newChecker(ctx, tok.Value, repo.URL.Host)
	if err != nil {
		return ghcerrors.New("access-check", err)
	}

	info, err := checker.CheckAccess(ctx, repo.Owner, repo.Name)
	if err != nil {
		if ghcerrors.IsRateLimitExceeded(err) {
			c.log.Warnw("GitHub API rate limit exceeded, skipping access check", "repository", repo.FullName())
			return nil
		}
		c.log.Debugw("access check failed", "repository", repo.FullName(), "error", urlutils.RedactToken(fmt.Sprint(stderrors.Unwrap(err)), tok.Value))
		return ghcerrors.New("access-check", err)
	}

	c.log.Debugw("repository accessible",
		"repository", info.FullName,
		"private", info.Private,
		"default_branch", info.DefaultBranch,
		"size", humanize.Bytes(uint64(info.SizeKB)*1024),
		"scopes", info.Scopes,
	)
	return nil
}

// prepareTarget refuses a path holding anything but an empty directory,
// creates its parent and reports whether path itself already existed.
func prepareTarget(path string) (bool, error) {
	if err := git.CheckTarget(path); err != nil {
		return false, err
	}
	_, err := os.Lstat(path)
	existed := !stderrors.Is(err, fs.ErrNotExist)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		kind := ghcerrors.KindUnknown
		if stderrors.Is(err, fs.ErrPermission) {
			kind = ghcerrors.KindPermissionDenied
		}
		return false, ghcerrors.NewKind("prepare-target", kind, err)
	}
	return existed, nil
}

func dirSize(root string) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
