package token

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestResolverPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		env        map[string]string
		file       string
		wantValue  string
		wantSource Source
		wantOrigin string
	}{
		{
			name:       "flag wins over env and file",
			flag:       "ghp_flag",
			env:        map[string]string{EnvVar: "ghp_env"},
			file:       "ghp_file",
			wantValue:  "ghp_flag",
			wantSource: SourceFlag,
			wantOrigin: "--token",
		},
		{
			name:       "env wins over file",
			env:        map[string]string{EnvVar: "ghp_env"},
			file:       "ghp_file",
			wantValue:  "ghp_env",
			wantSource: SourceEnv,
			wantOrigin: EnvVar,
		},
		{
			name:       "file used when nothing else is set",
			file:       "ghp_file",
			wantValue:  "ghp_file",
			wantSource: SourceFile,
			wantOrigin: ".env",
		},
		{
			name:       "empty env value falls through",
			env:        map[string]string{EnvVar: ""},
			file:       "ghp_file",
			wantValue:  "ghp_file",
			wantSource: SourceFile,
			wantOrigin: ".env",
		},
		{
			name:       "surrounding whitespace is trimmed",
			flag:       "  ghp_flag\n",
			wantValue:  "ghp_flag",
			wantSource: SourceFlag,
			wantOrigin: "--token",
		},
		{
			name:       "no token anywhere",
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			r.lookupEnv = fakeEnv(tt.env)

			got, err := r.WithFlag(tt.flag).WithEnv(EnvVar).WithFile(".env", tt.file).Resolve()
			require.NoError(t, err)

			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, tt.wantOrigin, got.Origin)
			assert.Equal(t, tt.wantValue != "", got.Present())
		})
	}
}

func TestResolverRejectsInvalidToken(t *testing.T) {
	r := NewResolver()
	r.lookupEnv = fakeEnv(nil)

	_, err := r.WithFlag("ghp_has space").Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
	assert.NotContains(t, err.Error(), "ghp_has")
}

func TestTokenStringHidesValue(t *testing.T) {
	tok := Token{Value: "ghp_supersecret", Source: SourceEnv, Origin: EnvVar}

	assert.Equal(t, "token(env:GITHUB_TOKEN)", tok.String())
	assert.NotContains(t, fmt.Sprintf("%v %s", tok, tok), "ghp_supersecret")
	assert.Equal(t, "token(none)", Token{Source: SourceNone}.String())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("github_pat_11ABCDEFG_abcdefghijklmnop"))
	assert.ErrorIs(t, Validate("ghp_tab\there"), ErrTokenInvalid)
	assert.ErrorIs(t, Validate("ghp_nl\n"), ErrTokenInvalid)
}
