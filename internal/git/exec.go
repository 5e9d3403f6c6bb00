package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
)

// BackendExec is the name of the git executable backend
const BackendExec = "git"

// maxDiagnostic bounds how much stderr is kept for classification
const maxDiagnostic = 64 << 10

// ExecBackend clones by running the git executable
type ExecBackend struct {
	// GitPath is the git executable, either a path or a name looked up in PATH
	GitPath string

	// Env is appended to the child environment after the prompt-disabling
	// variables, so it can override them in tests
	Env []string
}

// NewExecBackend creates a backend running gitPath ("git" when empty)
func NewExecBackend(gitPath string) *ExecBackend {
	if gitPath == "" {
		gitPath = "git"
	}
	return &ExecBackend{GitPath: gitPath}
}

// Name implements Backend
func (b *ExecBackend) Name() string {
	return BackendExec
}

// Clone implements Backend
func (b *ExecBackend) Clone(ctx context.Context, req Request) error {
	if req.URL == nil || req.Dir == "" {
		return ghcerrors.NewKind("git-clone", ghcerrors.KindUnknown, fmt.Errorf("clone URL and target directory must be specified"))
	}

	gitPath, err := exec.LookPath(b.GitPath)
	if err != nil {
		return ghcerrors.NewKind("git-clone", ghcerrors.KindUnknown,
			fmt.Errorf("git executable %q not found: %w", b.GitPath, err))
	}

	// Any configured credential helper is cleared so that the embedded token
	// is the only credential offered.
	args := []string{
		"-c", "credential.helper=",
		"clone", "--progress",
		req.URL.String(), req.Dir,
	}

	cmd := exec.CommandContext(ctx, gitPath, args...)

	stderr := &limitedBuffer{max: maxDiagnostic}
	var out io.Writer = stderr
	if req.Progress != nil {
		out = io.MultiWriter(stderr, req.Progress)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = out

	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_ASKPASS=",
		"SSH_ASKPASS=",
		"GCM_INTERACTIVE=never",
		"LC_ALL=C",
	)
	cmd.Env = append(cmd.Env, b.Env...)

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	cloneErr := newCloneError(BackendExec, exitCode, stderr.String(), req.token(), runErr)

	if kind, done := classifyContext(ctx); done {
		return ghcerrors.NewKind("git-clone", kind, fmt.Errorf("clone interrupted: %w: %w", ctx.Err(), cloneErr))
	}

	return ghcerrors.NewKind("git-clone", Classify(cloneErr.Diagnostic), cloneErr)
}

// limitedBuffer keeps the last max bytes written to it
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	l.buf.Write(p)
	if over := l.buf.Len() - l.max; over > 0 {
		l.buf.Next(over)
	}
	return n, nil
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}
