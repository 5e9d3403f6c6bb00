package token

import (
	"strings"
)

// Provider represents a Git provider type
type Provider string

const (
	ProviderGitHub Provider = "GITHUB"
	ProviderGitLab Provider = "GITLAB"
)

// githubPrefixes are the documented GitHub token prefixes: classic and
// fine-grained personal access tokens, OAuth, user-to-server,
// server-to-server and refresh tokens.
var githubPrefixes = []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_", "ghr_"}

// DetectProvider attempts to determine the token provider from the token format
func DetectProvider(tokenValue string) Provider {
	for _, prefix := range githubPrefixes {
		if strings.HasPrefix(tokenValue, prefix) {
			return ProviderGitHub
		}
	}
	if strings.HasPrefix(tokenValue, "glpat-") {
		return ProviderGitLab
	}
	return ""
}
