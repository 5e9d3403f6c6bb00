// Package git delegates a repository clone to an external implementation.
//
// Two backends satisfy the Backend interface:
//
// ExecBackend runs the system `git` executable
// (`git clone --progress <url> <dir>`) with terminal prompts disabled, so an
// authentication failure fails fast instead of waiting for input. It is the
// default.
//
// GoGitBackend performs the same clone in-process with go-git, for hosts
// where no git executable is installed.
//
// Both backends receive the clone URL with the token (if any) already
// embedded as user info, and both return failures as
// *errors.OperationError values whose Kind is derived from the diagnostic
// output. Any diagnostic text is stripped of the token before it is stored in
// an error.
//
// Example Usage:
//
//	backend := git.NewExecBackend("git")
//	err := backend.Clone(ctx, git.Request{
//	    URL:      tokenURL,
//	    Dir:      "/path/to/bar",
//	    Progress: progressWriter,
//	})
//	if errors.Is(err, ghcerrors.KindAuthFailed) {
//	    ...
//	}
package git
