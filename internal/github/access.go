// Package github checks, before cloning, that a token can see the repository.
package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
)

const (
	userAgent      = "go-ghclone/1.0"
	requestTimeout = 30 * time.Second
	opAccessCheck  = "access-check"
)

// Repository describes what the API reported for a repository
type Repository struct {
	FullName      string
	Private       bool
	DefaultBranch string
	SizeKB        int
	Scopes        string // X-OAuth-Scopes of a classic token, empty otherwise
}

// AccessChecker looks a repository up through the GitHub REST API
type AccessChecker struct {
	client *gh.Client
}

// NewAccessChecker creates a checker authenticated with token.
//
// The API endpoint is apiURL when set. Otherwise github.com hosts use the
// public API and any other host is treated as GitHub Enterprise Server, whose
// API lives under https://<host>/api/v3/.
func NewAccessChecker(ctx context.Context, token, host, apiURL string) (*AccessChecker, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = requestTimeout

	client := gh.NewClient(httpClient)
	client.UserAgent = userAgent

	switch {
	case apiURL != "":
		base, err := url.Parse(apiURL)
		if err != nil || base.Host == "" {
			return nil, ghcerrors.NewKind(opAccessCheck, ghcerrors.KindUnknown, fmt.Errorf("invalid API URL %q", apiURL))
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		client.BaseURL = base
	case host != "" && !isPublicHost(host):
		var err error
		client, err = client.WithEnterpriseURLs("https://"+host+"/", "https://"+host+"/")
		if err != nil {
			return nil, ghcerrors.NewKind(opAccessCheck, ghcerrors.KindUnknown, fmt.Errorf("enterprise API URL for %s: %w", host, err))
		}
	}

	return &AccessChecker{client: client}, nil
}

// BaseURL returns the API endpoint in use
func (c *AccessChecker) BaseURL() string {
	return c.client.BaseURL.String()
}

// CheckAccess fetches owner/repo. Failures are *errors.APIError values whose
// Kind follows the HTTP status.
func (c *AccessChecker) CheckAccess(ctx context.Context, owner, repo string) (*Repository, error) {
	r, resp, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, translate(err)
	}

	info := &Repository{
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		DefaultBranch: r.GetDefaultBranch(),
		SizeKB:        r.GetSize(),
	}
	if resp != nil {
		info.Scopes = resp.Header.Get("X-OAuth-Scopes")
	}
	return info, nil
}

func translate(err error) error {
	var rateErr *gh.RateLimitError
	if stderrors.As(err, &rateErr) {
		return ghcerrors.NewAPIHTTPError(opAccessCheck, http.StatusTooManyRequests, "API rate limit exceeded", err)
	}
	var abuseErr *gh.AbuseRateLimitError
	if stderrors.As(err, &abuseErr) {
		return ghcerrors.NewAPIHTTPError(opAccessCheck, http.StatusTooManyRequests, "secondary rate limit exceeded", err)
	}

	var respErr *gh.ErrorResponse
	if stderrors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		var msg string
		switch status {
		case http.StatusUnauthorized:
			msg = "token rejected by GitHub (bad credentials)"
		case http.StatusForbidden:
			msg = "token is not allowed to access the repository"
		case http.StatusNotFound:
			msg = "repository not found or token lacks access"
		default:
			msg = fmt.Sprintf("unexpected API response: %s", respErr.Message)
		}
		return ghcerrors.NewAPIHTTPError(opAccessCheck, status, msg, err)
	}

	return ghcerrors.NewAPIError(opAccessCheck, "GitHub API unreachable", err)
}

func isPublicHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || strings.HasSuffix(host, ".github.com")
}
