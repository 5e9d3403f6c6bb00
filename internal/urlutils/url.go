// Package urlutils provides utilities for handling GitHub repository URLs.
// It supports parsing and validation of HTTPS URLs for both public GitHub
// and GitHub Enterprise instances, embedding a token into a clone URL, and
// redacting credentials before a URL or diagnostic text is shown to anyone.
package urlutils

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// redactedToken replaces credentials in anything that is printed or logged
const redactedToken = "*****"

var (
	// ErrInvalidURL indicates that the provided URL is not valid
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrInvalidHost indicates that the host is not a valid GitHub instance
	ErrInvalidHost = errors.New("invalid GitHub host")

	// ErrInvalidPath indicates that the URL path is not a valid repository path
	ErrInvalidPath = errors.New("invalid repository path")

	// ErrEmptyToken indicates that an empty token was provided
	ErrEmptyToken = errors.New("empty token provided")

	// ErrNotHTTPS indicates that the URL does not use HTTPS protocol
	ErrNotHTTPS = errors.New("URL must use HTTPS protocol")

	// ErrCredentialsInURL indicates that the URL already carries user info
	ErrCredentialsInURL = errors.New("URL must not contain credentials")

	// Regular expressions for validation
	ownerRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	repoRegex  = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,100}$`)
)

// Repository is a validated GitHub repository reference.
type Repository struct {
	// URL is the canonical clone URL: https://host/owner/name.git
	URL   *url.URL
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r *Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses and validates a GitHub HTTPS repository URL.
// It accepts URLs in the following formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - https://github.com/owner/repo/
//   - https://<enterprise host>/owner/repo, when the host is listed in enterpriseHosts
//
// The function validates the URL format, host, and repository path components.
func ParseRepository(rawURL string, enterpriseHosts ...string) (*Repository, error) {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "git@") || strings.HasPrefix(rawURL, "ssh://") {
		return nil, ErrNotHTTPS
	}
	if !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("%w: expected https://github.com/<owner>/<repo>", ErrInvalidURL)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		// url.Error echoes the input, which may hold a token
		return nil, fmt.Errorf("%w: unparseable URL", ErrInvalidURL)
	}

	if parsedURL.User != nil {
		return nil, ErrCredentialsInURL
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return nil, fmt.Errorf("%w: query and fragment are not allowed", ErrInvalidURL)
	}

	host := strings.ToLower(parsedURL.Host)
	if !isValidGitHubHost(host, enterpriseHosts) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHost, parsedURL.Host)
	}

	// Validate path components
	pathParts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(pathParts) != 2 {
		return nil, fmt.Errorf("%w: URL must include owner and repository", ErrInvalidPath)
	}

	owner := pathParts[0]
	name := strings.TrimSuffix(pathParts[1], ".git")

	if !ownerRegex.MatchString(owner) {
		return nil, fmt.Errorf("%w: invalid owner name format", ErrInvalidPath)
	}

	if !repoRegex.MatchString(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid repository name format", ErrInvalidPath)
	}

	return &Repository{
		URL: &url.URL{
			Scheme: "https",
			Host:   host,
			Path:   "/" + owner + "/" + name + ".git",
		},
		Owner: owner,
		Name:  name,
	}, nil
}

// FormatTokenURL formats a GitHub URL with the provided token.
// It creates a new URL with the token embedded as the user info component.
// The original URL is not modified.
func FormatTokenURL(parsedURL *url.URL, token string) (*url.URL, error) {
	if parsedURL == nil {
		return nil, fmt.Errorf("%w: nil URL provided", ErrInvalidURL)
	}

	if token == "" {
		return nil, ErrEmptyToken
	}

	tokenURL := *parsedURL
	tokenURL.User = url.User(token)

	return &tokenURL, nil
}

// ValidateURL checks if the provided URL is a valid GitHub repository URL.
// It performs comprehensive validation including:
//   - URL format and protocol
//   - GitHub host validation
//   - Owner and repository name format
//   - Path structure
func ValidateURL(rawURL string, enterpriseHosts ...string) error {
	_, err := ParseRepository(rawURL, enterpriseHosts...)
	return err
}

// Redact renders u with any user info replaced by a placeholder.
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.User == nil {
		return u.String()
	}

	return strings.Replace(u.String(), u.User.String()+"@", redactedToken+"@", 1)
}

// RedactToken removes every occurrence of token from s. Both the raw and the
// percent-encoded forms are replaced, since git echoes URLs either way.
func RedactToken(s, token string) string {
	if token == "" {
		return s
	}
	s = strings.ReplaceAll(s, token, redactedToken)
	if escaped := url.User(token).String(); escaped != token {
		s = strings.ReplaceAll(s, escaped, redactedToken)
	}
	return s
}

// isValidGitHubHost checks if the host is github.com or an allowed GitHub Enterprise host.
// It supports the following formats:
//   - github.com (Public GitHub)
//   - *.github.com (GitHub Enterprise Cloud)
//   - Explicitly allowed GitHub Enterprise Server domains
func isValidGitHubHost(host string, enterpriseHosts []string) bool {
	if host == "" {
		return false
	}

	// Public GitHub
	if host == "github.com" {
		return true
	}

	// GitHub Enterprise Cloud
	if strings.HasSuffix(host, ".github.com") {
		return true
	}

	// GitHub Enterprise Server - only allow explicitly configured domains
	for _, allowed := range enterpriseHosts {
		if strings.EqualFold(strings.TrimSpace(allowed), host) {
			return true
		}
	}
	return false
}
