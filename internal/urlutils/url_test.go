package urlutils

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestParseRepository(t *testing.T) {
	tests := []struct {
		name      string
		rawURL    string
		hosts     []string
		wantErr   error
		wantOwner string
		wantName  string
		wantURL   string
	}{
		{
			name:      "valid GitHub URL",
			rawURL:    "https://github.com/owner/repo",
			wantOwner: "owner",
			wantName:  "repo",
			wantURL:   "https://github.com/owner/repo.git",
		},
		{
			name:      "valid GitHub URL with .git suffix",
			rawURL:    "https://github.com/foo/bar.git",
			wantOwner: "foo",
			wantName:  "bar",
			wantURL:   "https://github.com/foo/bar.git",
		},
		{
			name:      "valid GitHub Enterprise Server URL",
			rawURL:    "https://github.enterprise.com/owner/repo",
			hosts:     []string{"github.enterprise.com"},
			wantOwner: "owner",
			wantName:  "repo",
			wantURL:   "https://github.enterprise.com/owner/repo.git",
		},
		{
			name:      "valid GitHub Enterprise Cloud URL",
			rawURL:    "https://custom.github.com/owner/repo",
			wantOwner: "owner",
			wantName:  "repo",
			wantURL:   "https://custom.github.com/owner/repo.git",
		},
		{
			name:      "URL with trailing slash",
			rawURL:    "https://github.com/owner/repo/",
			wantOwner: "owner",
			wantName:  "repo",
			wantURL:   "https://github.com/owner/repo.git",
		},
		{
			name:      "dotted repository name",
			rawURL:    "https://github.com/owner/my.repo_v2.git",
			wantOwner: "owner",
			wantName:  "my.repo_v2",
			wantURL:   "https://github.com/owner/my.repo_v2.git",
		},
		{
			name:    "not a URL",
			rawURL:  "not-a-url",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "empty input",
			rawURL:  "",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "SSH URL not supported",
			rawURL:  "git@github.com:owner/repo",
			wantErr: ErrNotHTTPS,
		},
		{
			name:    "ssh scheme not supported",
			rawURL:  "ssh://git@github.com/owner/repo",
			wantErr: ErrNotHTTPS,
		},
		{
			name:    "invalid protocol",
			rawURL:  "http://github.com/owner/repo",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "credentials in URL",
			rawURL:  "https://ghp_secret@github.com/owner/repo",
			wantErr: ErrCredentialsInURL,
		},
		{
			name:    "query string",
			rawURL:  "https://github.com/owner/repo?tab=readme",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "invalid host",
			rawURL:  "https://gitlab.com/owner/repo",
			wantErr: ErrInvalidHost,
		},
		{
			name:    "unlisted enterprise host",
			rawURL:  "https://github.enterprise.com/owner/repo",
			wantErr: ErrInvalidHost,
		},
		{
			name:    "malformed URL",
			rawURL:  "https://github.com:invalid:port/repo",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "missing repository",
			rawURL:  "https://github.com/owner",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "too many path segments",
			rawURL:  "https://github.com/owner/repo/tree/main",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "invalid owner name",
			rawURL:  "https://github.com/-owner/repo",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "invalid repository name",
			rawURL:  "https://github.com/owner/repo!invalid",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "dot-dot repository name",
			rawURL:  "https://github.com/owner/..",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "owner name too long",
			rawURL:  "https://github.com/thisownernameiswaytoolongandshouldfailvalidation/repo",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepository(tt.rawURL, tt.hosts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseRepository() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if got == nil {
				t.Fatal("ParseRepository() returned nil repository for valid input")
			}
			if got.Owner != tt.wantOwner || got.Name != tt.wantName {
				t.Errorf("ParseRepository() = %s/%s, want %s/%s", got.Owner, got.Name, tt.wantOwner, tt.wantName)
			}
			if got.URL.String() != tt.wantURL {
				t.Errorf("ParseRepository() URL = %s, want %s", got.URL, tt.wantURL)
			}
		})
	}
}

func TestParseRepositoryDoesNotEchoCredentials(t *testing.T) {
	_, err := ParseRepository("http://ghp_secret@github.com/owner/repo")
	if err == nil {
		t.Fatal("ParseRepository() expected error")
	}
	if strings.Contains(err.Error(), "ghp_secret") {
		t.Errorf("ParseRepository() error leaks credentials: %v", err)
	}
}

func TestRepositoryFullName(t *testing.T) {
	repo, err := ParseRepository("https://github.com/foo/bar.git")
	if err != nil {
		t.Fatalf("ParseRepository() unexpected error: %v", err)
	}
	if got := repo.FullName(); got != "foo/bar" {
		t.Errorf("FullName() = %v, want foo/bar", got)
	}
}

func TestFormatTokenURL(t *testing.T) {
	validURL, _ := url.Parse("https://github.com/owner/repo.git")

	tests := []struct {
		name     string
		url      *url.URL
		token    string
		wantErr  error
		wantUser string
		wantURL  string
	}{
		{
			name:     "valid token",
			url:      validURL,
			token:    "abc123",
			wantUser: "abc123",
			wantURL:  "https://abc123@github.com/owner/repo.git",
		},
		{
			name:    "nil URL",
			url:     nil,
			token:   "abc123",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "empty token",
			url:     validURL,
			token:   "",
			wantErr: ErrEmptyToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTokenURL(tt.url, tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FormatTokenURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if got.User.Username() != tt.wantUser {
				t.Errorf("FormatTokenURL() user = %v, want %v", got.User.Username(), tt.wantUser)
			}
			if got.String() != tt.wantURL {
				t.Errorf("FormatTokenURL() = %v, want %v", got, tt.wantURL)
			}
			if tt.url.User != nil {
				t.Error("FormatTokenURL() modified the original URL")
			}
		})
	}
}

func TestRedact(t *testing.T) {
	plain, _ := url.Parse("https://github.com/owner/repo.git")
	withToken, _ := FormatTokenURL(plain, "ghp_abcdef")

	if got := Redact(plain); got != "https://github.com/owner/repo.git" {
		t.Errorf("Redact(plain) = %v", got)
	}
	if got := Redact(withToken); got != "https://*****@github.com/owner/repo.git" {
		t.Errorf("Redact(withToken) = %v", got)
	}
	if strings.Contains(Redact(withToken), "ghp_abcdef") {
		t.Error("Redact() leaked the token")
	}
	if got := Redact(nil); got != "" {
		t.Errorf("Redact(nil) = %q, want empty", got)
	}
}

func TestRedactToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		token string
		want  string
	}{
		{
			name:  "git diagnostic with token",
			input: "fatal: unable to access 'https://ghp_abc@github.com/o/r.git/': The requested URL returned error: 403",
			token: "ghp_abc",
			want:  "fatal: unable to access 'https://*****@github.com/o/r.git/': The requested URL returned error: 403",
		},
		{
			name:  "percent-encoded token",
			input: "fatal: could not read from 'https://to%2Fken@github.com/o/r.git'",
			token: "to/ken",
			want:  "fatal: could not read from 'https://*****@github.com/o/r.git'",
		},
		{
			name:  "no token",
			input: "fatal: repository not found",
			token: "",
			want:  "fatal: repository not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactToken(tt.input, tt.token); got != tt.want {
				t.Errorf("RedactToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		wantErr error
	}{
		{
			name:    "valid repository URL",
			rawURL:  "https://github.com/owner/repo",
			wantErr: nil,
		},
		{
			name:    "SSH URL not supported",
			rawURL:  "git@github.com:owner/repo",
			wantErr: ErrNotHTTPS,
		},
		{
			name:    "root URL",
			rawURL:  "https://github.com",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "invalid characters in owner",
			rawURL:  "https://github.com/owner$/repo",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.rawURL)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidGitHubHost(t *testing.T) {
	enterprise := []string{"git.company.com"}

	tests := []struct {
		name string
		host string
		want bool
	}{
		{name: "public GitHub", host: "github.com", want: true},
		{name: "GitHub Enterprise Cloud", host: "enterprise.github.com", want: true},
		{name: "configured GitHub Enterprise Server", host: "git.company.com", want: true},
		{name: "look-alike host", host: "evilgithub.com", want: false},
		{name: "invalid host", host: "gitlab.com", want: false},
		{name: "empty host", host: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidGitHubHost(tt.host, enterprise); got != tt.want {
				t.Errorf("isValidGitHubHost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkParseRepository(b *testing.B) {
	urls := []string{
		"https://github.com/owner/repo",
		"https://github.com/owner/repo.git",
		"https://custom.github.com/owner/repo",
	}

	for _, u := range urls {
		b.Run(u, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = ParseRepository(u)
			}
		})
	}
}
