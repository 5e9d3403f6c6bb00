// Package token resolves the GitHub personal access token used to clone
// private repositories.
//
// Resolution Order
//
// Tokens are looked up from an ordered list of sources and the first
// non-empty value wins:
//
//  1. The --token command line flag
//  2. GITHUB_TOKEN in the process environment
//  3. GITHUB_TOKEN in the local .env configuration file
//
// Finding no token is not an error: the repository is then assumed to be
// public and is cloned anonymously.
//
// A token value must never reach a log line or an error message. Code that
// needs to describe a token refers to its Source instead.
package token

import "errors"

// EnvVar is the environment variable (and .env key) holding the token
const EnvVar = "GITHUB_TOKEN"

// ErrTokenInvalid is returned for a token that cannot be used at all
var ErrTokenInvalid = errors.New("token is invalid")

// Source indicates where a token was found
type Source string

const (
	SourceFlag Source = "flag"
	SourceEnv  Source = "env"
	SourceFile Source = "file"
	SourceNone Source = "none"
)

// Token is a resolved token and where it came from
type Token struct {
	// Value is the actual token string
	Value string

	// Source is the kind of source that provided Value
	Source Source

	// Origin names the concrete source, e.g. "GITHUB_TOKEN" or ".env"
	Origin string
}

// Present reports whether a token was found
func (t Token) Present() bool {
	return t.Value != ""
}

// String never includes the token value, so a Token is safe to format.
func (t Token) String() string {
	if !t.Present() {
		return "token(none)"
	}
	return "token(" + string(t.Source) + ":" + t.Origin + ")"
}

// Validate performs basic sanity checks on a token value. It only rejects
// values git would choke on; an unfamiliar prefix is reported separately by
// DetectProvider.
func Validate(value string) error {
	for _, r := range value {
		if r <= ' ' || r == 0x7f {
			return ErrTokenInvalid
		}
	}
	return nil
}
