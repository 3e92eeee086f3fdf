package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner-lite/internal/config"
)

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, key := range config.InjectedKeys {
		t.Setenv(key, "")
	}
	t.Setenv("APP_ENV", config.EnvProd)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENV_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range values {
		t.Setenv(k, v)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildEnv_WritesInjectedKeys(t *testing.T) {
	setEnv(t, map[string]string{
		config.KeySupabaseURL:     "https://demo.supabase.co",
		config.KeySupabaseAnonKey: "anon",
	})
	out := filepath.Join(t.TempDir(), "env-config.env")

	stdout, err := execute(t, "build-env", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "SUPABASE_URL: set")
	assert.Contains(t, stdout, "OPENAI_API_KEY: missing")
	assert.NotContains(t, stdout, "https://demo.supabase.co")

	written, err := config.ReadEnvFile(out)
	require.NoError(t, err)
	assert.Equal(t, "https://demo.supabase.co", written.Getenv(config.KeySupabaseURL))
	assert.Equal(t, "anon", written.Getenv(config.KeySupabaseAnonKey))
}

func TestCheckEnv_JSONReport(t *testing.T) {
	setEnv(t, map[string]string{
		config.KeySupabaseURL:     "https://demo.supabase.co",
		config.KeySupabaseAnonKey: "anon",
	})

	stdout, err := execute(t, "check-env", "--json", "--strict")
	require.NoError(t, err)

	var report envReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, config.EnvProd, report.Env)
	assert.Equal(t, config.SourceInjected, report.Source)
	assert.True(t, report.SupabaseConfigured)
	assert.False(t, report.OpenAIConfigured)
	assert.True(t, report.ClientReady)
	assert.Empty(t, report.ClientError)
}

func TestCheckEnv_ReadsBuildFile(t *testing.T) {
	setEnv(t, nil)
	file := filepath.Join(t.TempDir(), "env-config.env")
	_, err := config.WriteEnvFile(file, config.MapEnv{
		config.KeySupabaseURL:     "https://demo.supabase.co",
		config.KeySupabaseAnonKey: "anon",
		config.KeyOpenAIAPIKey:    "sk-test",
	})
	require.NoError(t, err)
	t.Setenv("ENV_CONFIG_FILE", file)

	stdout, err := execute(t, "check-env")
	require.NoError(t, err)
	assert.Contains(t, stdout, "source:              injected")
	assert.Contains(t, stdout, "openai configured:   true")
	assert.Contains(t, stdout, "client ready:        true")
}

func TestCheckEnv_StrictFailsWithoutSupabase(t *testing.T) {
	setEnv(t, map[string]string{config.KeySupabaseURL: "__SUPABASE_URL__"})

	stdout, err := execute(t, "check-env", "--strict")
	require.ErrorIs(t, err, errNotConfigured)
	assert.Contains(t, stdout, "source:              none")
	assert.Contains(t, stdout, "client ready:        false")

	_, err = execute(t, "check-env")
	require.NoError(t, err)
}

func TestCheckEnv_Describe(t *testing.T) {
	stdout, err := execute(t, "check-env", "--describe")
	require.NoError(t, err)
	assert.Contains(t, stdout, "APP_ENV")
	assert.Contains(t, stdout, "SUPABASE_TIMEOUT")
}
