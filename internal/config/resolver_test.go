package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstepanov/graphsmith/internal/config"
)

const sampleDocument = `models:
  default: gpt-4
  fallback: gpt-3.5-turbo

endpoints:
  base_url: https://api.example.com
  timeout: 30

logging:
  level: INFO
  file: logs/app.log
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadReturnsFileValues(t *testing.T) {
	resolver := &config.Resolver{}
	cfg, err := resolver.Load(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", cfg.String("models.default", ""))
	assert.Equal(t, "gpt-3.5-turbo", cfg.String("models.fallback", ""))
	assert.Equal(t, "https://api.example.com", cfg.String("endpoints.base_url", ""))
	assert.Equal(t, 30, cfg.Int("endpoints.timeout", 0))
	assert.Equal(t, "INFO", cfg.String("logging.level", ""))

	for _, key := range cfg.Keys() {
		assert.Equal(t, config.SourceFile, cfg.Source(key), "key %s", key)
	}
}

func TestLoadMissingFile(t *testing.T) {
	resolver := &config.Resolver{}
	cfg, err := resolver.Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.ErrorIs(t, err, config.ErrNotFound)
	assert.Nil(t, cfg, "no partially populated result on failure")
}

func TestLoadMalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad indentation", "models:\n  default: gpt-4\n bad"},
		{"scalar document", "just a string"},
		{"unclosed flow mapping", "models: {default: gpt-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &config.Resolver{}
			cfg, err := resolver.Load(writeConfig(t, tt.body))

			require.ErrorIs(t, err, config.ErrParse)
			assert.Nil(t, cfg)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	resolver := &config.Resolver{
		Overrides: map[string]string{"MODEL_DEFAULT": "models.default"},
	}
	base, err := resolver.Load(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	cfg, err := resolver.ApplyOverrides(base, map[string]string{
		"MODEL_DEFAULT": "gpt-4-turbo",
		"UNRELATED_VAR": "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4-turbo", cfg.String("models.default", ""))
	assert.Equal(t, "gpt-3.5-turbo", cfg.String("models.fallback", ""), "unmapped keys keep file values")
	assert.Equal(t, config.SourceEnv, cfg.Source("models.default"))
	assert.Equal(t, config.SourceFile, cfg.Source("models.fallback"))

	// The input Resolved must stay untouched.
	assert.Equal(t, "gpt-4", base.String("models.default", ""))
	assert.Equal(t, config.SourceFile, base.Source("models.default"))
}

func TestApplyOverridesSkipsAbsentVariables(t *testing.T) {
	resolver := &config.Resolver{
		Overrides: map[string]string{"MODEL_DEFAULT": "models.default"},
	}
	base, err := resolver.Load(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	cfg, err := resolver.ApplyOverrides(base, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", cfg.String("models.default", ""))
	assert.Equal(t, config.SourceFile, cfg.Source("models.default"))
}

func TestApplyOverridesCreatesMissingPath(t *testing.T) {
	resolver := &config.Resolver{
		Overrides: map[string]string{"RATE_LIMIT_RPS": "server.rate_limit_rps"},
	}
	base, err := resolver.Load(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	cfg, err := resolver.ApplyOverrides(base, map[string]string{"RATE_LIMIT_RPS": "12.5"})
	require.NoError(t, err)

	assert.Equal(t, 12.5, cfg.Float("server.rate_limit_rps", 0))
	assert.Equal(t, config.SourceEnv, cfg.Source("server.rate_limit_rps"))
	assert.False(t, base.Has("server.rate_limit_rps"))
}

func TestApplyOverridesTypeConflictIsFatal(t *testing.T) {
	resolver := &config.Resolver{
		// logging.level is a scalar, so logging.level.verbose crosses a
		// non-mapping segment.
		Overrides: map[string]string{"LOG_VERBOSE": "logging.level.verbose"},
	}
	base, err := resolver.Load(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	cfg, err := resolver.ApplyOverrides(base, map[string]string{"LOG_VERBOSE": "true"})
	require.ErrorIs(t, err, config.ErrParse)
	assert.Nil(t, cfg)
}

func TestOverridesAreStrings(t *testing.T) {
	resolver := &config.Resolver{
		Overrides: map[string]string{"TIMEOUT": "endpoints.timeout"},
	}
	base, err := resolver.Load(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	cfg, err := resolver.ApplyOverrides(base, map[string]string{"TIMEOUT": "45"})
	require.NoError(t, err)

	raw, err := cfg.Value("endpoints.timeout")
	require.NoError(t, err)
	assert.Equal(t, "45", raw, "override values are never coerced in place")
	assert.Equal(t, 45, cfg.Int("endpoints.timeout", 0), "typed accessors convert on demand")
}

func TestResolveUsesProcessEnvironment(t *testing.T) {
	t.Setenv("MODEL_DEFAULT", "gpt-4-turbo")

	resolver := &config.Resolver{Overrides: config.DefaultOverrides()}
	cfg, err := resolver.Resolve(writeConfig(t, sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4-turbo", cfg.String("models.default", ""))
	assert.Equal(t, "gpt-3.5-turbo", cfg.String("models.fallback", ""))
	assert.Equal(t, "none", cfg.Get("models.missing", "none"))
}

func TestReloadProducesIndependentInstance(t *testing.T) {
	path := writeConfig(t, sampleDocument)
	resolver := &config.Resolver{Overrides: config.DefaultOverrides()}

	before, err := resolver.Resolve(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("models:\n  default: claude-3\n"), 0o644))
	t.Setenv("LOG_LEVEL", "DEBUG")

	after, err := resolver.Reload(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-3", after.String("models.default", ""))
	assert.Equal(t, "DEBUG", after.String("logging.level", ""))
	assert.Equal(t, config.SourceEnv, after.Source("logging.level"))

	// The prior handle stays valid and unchanged.
	assert.Equal(t, "gpt-4", before.String("models.default", ""))
	assert.Equal(t, "INFO", before.String("logging.level", ""))
}

func TestLoadIsDeterministic(t *testing.T) {
	path := writeConfig(t, sampleDocument)
	resolver := &config.Resolver{}

	first, err := resolver.Load(path)
	require.NoError(t, err)
	second, err := resolver.Load(path)
	require.NoError(t, err)

	require.Equal(t, first.Keys(), second.Keys())
	for _, key := range first.Keys() {
		a, err := first.Value(key)
		require.NoError(t, err)
		b, err := second.Value(key)
		require.NoError(t, err)
		assert.Equal(t, a, b, "key %s", key)
	}
}

func TestEmptyDocument(t *testing.T) {
	resolver := &config.Resolver{}
	cfg, err := resolver.Load(writeConfig(t, "# nothing but comments\n"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Keys())
	assert.Equal(t, "fallback", cfg.Get("anything", "fallback"))
}
