package git

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
)

// Diagnostic fragments, lower-cased, checked in table order
var classifiers = []struct {
	kind      ghcerrors.Kind
	fragments []string
}{
	{
		kind: ghcerrors.KindAuthFailed,
		fragments: []string{
			"authentication failed",
			"authentication required",
			"could not read username",
			"could not read password",
			"terminal prompts disabled",
			"invalid username or password",
			"invalid credentials",
			"repository not found",
			"returned error: 401",
		},
	},
	{
		kind: ghcerrors.KindPermissionDenied,
		fragments: []string{
			"permission denied",
			"could not create work tree dir",
			"could not create leading directories",
			"read-only file system",
			"operation not permitted",
			"returned error: 403",
		},
	},
	{
		kind: ghcerrors.KindNetwork,
		fragments: []string{
			"could not resolve host",
			"failed to connect",
			"connection refused",
			"connection reset",
			"connection timed out",
			"operation timed out",
			"network is unreachable",
			"no route to host",
			"early eof",
			"rpc failed",
			"ssl certificate",
			"ssl connect",
			"ssl_connect",
			"ssl_error",
			"ssl routines",
			"gnutls",
			"schannel",
			"tls handshake",
			"i/o timeout",
			"returned error: 5",
		},
	},
}

var (
	// Quoted paths and URLs are echoed by git and may contain any text
	quotedRegex = regexp.MustCompile(`(^|[\s(:])'[^'\n]*'`)
	urlRegex    = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://\S+`)
)

// Classify maps the diagnostic output of a failed git clone onto the failure
// taxonomy. Only fatal:, error: and remote: lines are considered. The first
// matching rule wins; unmatched text is KindUnknown.
func Classify(diagnostic string) ghcerrors.Kind {
	var b strings.Builder
	for _, line := range strings.FieldsFunc(diagnostic, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(line, "fatal:") || strings.HasPrefix(line, "error:") || strings.HasPrefix(line, "remote:") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return classifyText(b.String())
}

// classifyText matches fragments anywhere in text once quoted paths and URLs
// are removed
func classifyText(text string) ghcerrors.Kind {
	text = quotedRegex.ReplaceAllString(strings.ToLower(text), "$1''")
	text = urlRegex.ReplaceAllString(text, "")
	for _, c := range classifiers {
		for _, fragment := range c.fragments {
			if strings.Contains(text, fragment) {
				return c.kind
			}
		}
	}
	return ghcerrors.KindUnknown
}

// classifyContext reports the Kind for a clone cut short by its context, and
// false when the context is still live.
func classifyContext(ctx context.Context) (ghcerrors.Kind, bool) {
	switch err := ctx.Err(); {
	case err == nil:
		return ghcerrors.KindUnknown, false
	case stderrors.Is(err, context.DeadlineExceeded):
		return ghcerrors.KindNetwork, true
	default:
		return ghcerrors.KindUnknown, true
	}
}
