// Package config loads ghclone settings from the process environment and a
// local .env file. Process environment values win over the file; values bound
// from command line flags win over both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	ghcerrors "github.com/NicabarNimble/go-ghclone/internal/errors"
)

// Keys understood in the environment and in the .env file. Viper keys are
// case-insensitive; the upper-case form is what users write.
const (
	KeyToken           = "GITHUB_TOKEN"
	KeyBackend         = "GHCLONE_BACKEND"
	KeyGitBinary       = "GHCLONE_GIT_BINARY"
	KeyTimeout         = "GHCLONE_TIMEOUT"
	KeyEnterpriseHosts = "GHCLONE_ENTERPRISE_HOSTS"
	KeyAPIURL          = "GHCLONE_API_URL"
)

const (
	BackendGit   = "git"
	BackendGoGit = "go-git"

	// DefaultEnvFile is read from the working directory when present
	DefaultEnvFile = ".env"
)

// Config holds the settings for one clone invocation
type Config struct {
	// EnvFile is the .env path that was consulted
	EnvFile string
	// EnvFileLoaded reports whether EnvFile existed and was parsed
	EnvFileLoaded bool

	// FileToken is GITHUB_TOKEN as written in the .env file only. The
	// process environment value is resolved separately so that the token
	// source can be reported.
	FileToken string

	Backend         string
	GitBinary       string
	Timeout         time.Duration
	EnterpriseHosts []string
	APIURL          string
}

// DefaultConfig provides default configuration values
func DefaultConfig() *Config {
	return &Config{
		EnvFile:   DefaultEnvFile,
		Backend:   BackendGit,
		GitBinary: "git",
		Timeout:   10 * time.Minute,
	}
}

// New returns a viper instance with defaults set and environment lookup
// enabled. Callers bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault(KeyBackend, defaults.Backend)
	v.SetDefault(KeyGitBinary, defaults.GitBinary)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.AutomaticEnv()
	return v
}

// Load reads envFile (if it exists) into v and returns the merged settings.
// A missing envFile is not an error.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	return load(v, envFile, false)
}

// LoadFile is Load for an env file the user asked for by name, which must
// exist.
func LoadFile(v *viper.Viper, envFile string) (*Config, error) {
	return load(v, envFile, true)
}

func load(v *viper.Viper, envFile string, required bool) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	cfg := &Config{EnvFile: envFile}

	fileValues, err := readEnvFile(envFile)
	switch {
	case errors.Is(err, fs.ErrNotExist) && required:
		return nil, ghcerrors.New("config", fmt.Errorf("env file %s not found: %w", envFile, err))
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, ghcerrors.New("config", err)
	default:
		cfg.EnvFileLoaded = true
		cfg.FileToken = fileValues.GetString(KeyToken)
		if err := v.MergeConfigMap(fileValues.AllSettings()); err != nil {
			return nil, ghcerrors.New("config", fmt.Errorf("failed to merge %s: %w", envFile, err))
		}
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend)))
	cfg.GitBinary = strings.TrimSpace(v.GetString(KeyGitBinary))
	cfg.Timeout = v.GetDuration(KeyTimeout)
	cfg.APIURL = strings.TrimSpace(v.GetString(KeyAPIURL))
	cfg.EnterpriseHosts = splitList(v.GetString(KeyEnterpriseHosts))

	cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readEnvFile parses a dotenv file without consulting the environment, so the
// file's own GITHUB_TOKEN can be told apart from the process one.
func readEnvFile(path string) (*viper.Viper, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	fv.SetConfigType("env")
	if err := fv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fv, nil
}

// MergeDefaults merges default values for unset fields
func (c *Config) MergeDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.GitBinary == "" {
		c.GitBinary = defaults.GitBinary
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGit, BackendGoGit:
	default:
		return ghcerrors.New("config", fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendGit, BackendGoGit))
	}
	if c.Timeout < 0 {
		return ghcerrors.New("config", fmt.Errorf("timeout cannot be negative"))
	}
	if c.APIURL != "" && !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return ghcerrors.New("config", fmt.Errorf("API URL must be an http(s) URL"))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}
