package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
	"github.com/NicabarNimble/go-ghclone/internal/urlutils"
)

// ErrTargetNotEmpty is returned for a clone destination that already holds files
var ErrTargetNotEmpty = stderrors.New("already exists and is not an empty directory")

// Backend performs the delegated clone
type Backend interface {
	// Name identifies the backend in logs, e.g. "git" or "go-git"
	Name() string

	// Clone clones req.URL into req.Dir. The directory must not exist or
	// must be empty.
	Clone(ctx context.Context, req Request) error
}

// Request is what a backend needs for one clone
type Request struct {
	// URL is the clone URL, with the token as user info when one is set
	URL *url.URL

	// Dir is the target directory
	Dir string

	// Progress receives the raw progress stream; nil discards it
	Progress io.Writer
}

// token returns the credential embedded in the request URL
func (r Request) token() string {
	if r.URL == nil || r.URL.User == nil {
		return ""
	}
	return r.URL.User.Username()
}

// CloneError carries the redacted diagnostic output of a failed clone
type CloneError struct {
	Backend    string
	ExitCode   int    // -1 when the backend has no exit status
	Diagnostic string // redacted output from the backend
	err        error
}

func (e *CloneError) Error() string {
	msg := summarize(e.Diagnostic)
	if e.ExitCode > 0 {
		if msg == "" {
			return fmt.Sprintf("%s clone exited with status %d", e.Backend, e.ExitCode)
		}
		return fmt.Sprintf("%s clone exited with status %d: %s", e.Backend, e.ExitCode, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s clone failed", e.Backend)
	}
	return fmt.Sprintf("%s clone failed: %s", e.Backend, msg)
}

// Unwrap returns the underlying error. Its message is not redacted, so
// callers must print the CloneError rather than the cause.
func (e *CloneError) Unwrap() error {
	return e.err
}

func newCloneError(backend string, exitCode int, diagnostic, token string, err error) *CloneError {
	return &CloneError{
		Backend:    backend,
		ExitCode:   exitCode,
		Diagnostic: urlutils.RedactToken(diagnostic, token),
		err:        err,
	}
}

// CheckTarget returns an error unless dir is missing or an empty directory
func CheckTarget(dir string) error {
	info, err := os.Stat(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return ghcerrors.NewKind("check-target", fsKind(err), err)
	}
	if !info.IsDir() {
		return ghcerrors.NewKind("check-target", ghcerrors.KindUnknown,
			fmt.Errorf("destination path %s exists and is not a directory", dir))
	}

	f, err := os.Open(dir)
	if err != nil {
		return ghcerrors.NewKind("check-target", fsKind(err), err)
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return ghcerrors.NewKind("check-target", fsKind(err), err)
	}
	if len(names) > 0 {
		return ghcerrors.NewKind("check-target", ghcerrors.KindUnknown,
			fmt.Errorf("destination path %s %w", dir, ErrTargetNotEmpty))
	}
	return nil
}

func fsKind(err error) ghcerrors.Kind {
	if stderrors.Is(err, fs.ErrPermission) {
		return ghcerrors.KindPermissionDenied
	}
	return ghcerrors.KindUnknown
}

// summarize picks the most useful line of a diagnostic: the last "fatal:" or
// "error:" line if there is one, otherwise the last non-empty line.
func summarize(diagnostic string) string {
	var last, fatal string
	for _, line := range strings.FieldsFunc(diagnostic, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "fatal:") || strings.HasPrefix(lower, "error:") {
			fatal = line
		}
	}
	if fatal != "" {
		return fatal
	}
	return last
}
