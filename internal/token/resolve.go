package token

import (
	"fmt"
	"os"
	"strings"
)

// providerFunc returns the token a source knows about, or "" when it has none.
// An error is only returned for unexpected failures, never for a missing token.
type providerFunc func() (value string, origin string, err error)

type provider struct {
	source Source
	fn     providerFunc
}

// Resolver resolves a token from multiple sources in priority order
type Resolver struct {
	providers []provider
	lookupEnv func(string) (string, bool)
}

// NewResolver creates an empty resolver. Sources are consulted in the order
// they are added.
func NewResolver() *Resolver {
	return &Resolver{lookupEnv: os.LookupEnv}
}

// WithFlag adds a flag-provided token as a source
func (r *Resolver) WithFlag(value string) *Resolver {
	return r.withValue(SourceFlag, "--token", value)
}

// WithEnv adds an environment variable as a token source
func (r *Resolver) WithEnv(envVar string) *Resolver {
	r.providers = append(r.providers, provider{
		source: SourceEnv,
		fn: func() (string, string, error) {
			value, _ := r.lookupEnv(envVar)
			return value, envVar, nil
		},
	})
	return r
}

// WithFile adds a value read from a configuration file as a token source
func (r *Resolver) WithFile(path, value string) *Resolver {
	return r.withValue(SourceFile, path, value)
}

func (r *Resolver) withValue(source Source, origin, value string) *Resolver {
	r.providers = append(r.providers, provider{
		source: source,
		fn: func() (string, string, error) {
			return value, origin, nil
		},
	})
	return r
}

// Resolve returns the first non-empty token. When no source has one, the
// returned Token has SourceNone and an empty Value.
func (r *Resolver) Resolve() (Token, error) {
	for _, p := range r.providers {
		value, origin, err := p.fn()
		if err != nil {
			return Token{}, fmt.Errorf("token source %s: %w", p.source, err)
		}

		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if err := Validate(value); err != nil {
			return Token{}, fmt.Errorf("token from %s (%s): %w", p.source, origin, err)
		}

		return Token{Value: value, Source: p.source, Origin: origin}, nil
	}

	return Token{Source: SourceNone}, nil
}
