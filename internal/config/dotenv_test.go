package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDotenv(t *testing.T) {
	input := `
# local development
SUPABASE_URL=https://x.co
  SUPABASE_ANON_KEY =  anon-key
A=B=C

EMPTY=
=orphan
QUOTED="kept"
`
	got := ParseDotenv([]byte(input))
	assert.Equal(t, map[string]string{
		"SUPABASE_URL":      "https://x.co",
		"SUPABASE_ANON_KEY": "anon-key",
		"A":                 "B=C",
		"QUOTED":            `"kept"`,
	}, got)
}

func TestParseDotenv_CRLF(t *testing.T) {
	got := ParseDotenv([]byte("A=1\r\nB=2\r\n"))
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}

func TestEnvFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-config.env")
	written, err := WriteEnvFile(path, MapEnv{
		KeySupabaseURL:     "https://proj.supabase.co",
		KeySupabaseAnonKey: "anon",
		"UNRELATED":        "ignored",
	})
	require.NoError(t, err)
	assert.NotContains(t, written, "UNRELATED")

	env, err := ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://proj.supabase.co", env.Getenv(KeySupabaseURL))
	assert.Equal(t, "anon", env.Getenv(KeySupabaseAnonKey))
	assert.Equal(t, "", env.Getenv(KeyOpenAIAPIKey))
}

func TestReadEnvFile_Missing(t *testing.T) {
	env, err := ReadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "__SUPABASE_URL__", "your_supabase_project_url", "your_supabase_anon_key"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"https://x.co", "anon", "__x"} {
		assert.False(t, IsPlaceholder(v), v)
	}
}
