package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
)

// BackendGoGit is the name of the in-process backend
const BackendGoGit = "go-git"

// tokenUsername is sent with the token as password. GitHub ignores it but
// basic auth requires it to be non-empty.
const tokenUsername = "x-access-token"

// GoGitBackend clones in-process with go-git
type GoGitBackend struct{}

// NewGoGitBackend creates a go-git backend
func NewGoGitBackend() *GoGitBackend {
	return &GoGitBackend{}
}

// Name implements Backend
func (b *GoGitBackend) Name() string {
	return BackendGoGit
}

// Clone implements Backend
func (b *GoGitBackend) Clone(ctx context.Context, req Request) error {
	if req.URL == nil || req.Dir == "" {
		return ghcerrors.NewKind("git-clone", ghcerrors.KindUnknown, fmt.Errorf("clone URL and target directory must be specified"))
	}

	// go-git checks out over existing files without complaint
	if err := CheckTarget(req.Dir); err != nil {
		return err
	}

	// go-git takes credentials as an AuthMethod, so the token moves out of
	// the URL and into basic auth.
	plain := *req.URL
	plain.User = nil

	opts := &gogit.CloneOptions{
		URL:      plain.String(),
		Progress: req.Progress,
	}
	if token := req.token(); token != "" {
		opts.Auth = &githttp.BasicAuth{
			Username: tokenUsername,
			Password: token,
		}
	}

	_, err := gogit.PlainCloneContext(ctx, req.Dir, false, opts)
	if err == nil {
		return nil
	}

	cloneErr := newCloneError(BackendGoGit, -1, err.Error(), req.token(), err)

	if kind, done := classifyContext(ctx); done {
		return ghcerrors.NewKind("git-clone", kind, fmt.Errorf("clone interrupted: %w: %w", ctx.Err(), cloneErr))
	}

	return ghcerrors.NewKind("git-clone", classifyGoGit(err, cloneErr.Diagnostic), cloneErr)
}

// classifyGoGit prefers go-git's typed errors and falls back to the message
func classifyGoGit(err error, diagnostic string) ghcerrors.Kind {
	switch {
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrInvalidAuthMethod),
		stderrors.Is(err, transport.ErrRepositoryNotFound):
		return ghcerrors.KindAuthFailed
	case stderrors.Is(err, transport.ErrAuthorizationFailed),
		stderrors.Is(err, fs.ErrPermission):
		return ghcerrors.KindPermissionDenied
	case stderrors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return ghcerrors.KindUnknown
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return ghcerrors.KindNetwork
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return ghcerrors.KindNetwork
	}

	return classifyText(diagnostic)
}
