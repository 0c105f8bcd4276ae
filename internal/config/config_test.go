package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigJSONAppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"seeds": ["example.com"],
		"filter": {"domain": "example.com", "patterns": ["/blog"]}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com"}, cfg.Seeds)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 5, cfg.InitialConcurrency)
	assert.Equal(t, 5, cfg.ConcurrencyStep)
	assert.Positive(t, cfg.MaxConcurrency)
	assert.Equal(t, 0.5, cfg.Alpha())
	assert.Equal(t, 5, cfg.Ranking.TopN)
	assert.Equal(t, []string{"email"}, cfg.Extractors)
	assert.Equal(t, "example.com", cfg.Filter.Domain)
	assert.Equal(t, []string{"/blog"}, cfg.Filter.Patterns)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
seeds:
  - example.com
  - other.org
max_depth: 3
ranking:
  alpha: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com", "other.org"}, cfg.Seeds)
	assert.Equal(t, 3, cfg.MaxDepth)
	// an explicit zero alpha is kept rather than defaulted
	assert.Equal(t, 0.0, cfg.Alpha())
}

func TestLoadConfigRejectsInvalidAlpha(t *testing.T) {
	path := writeFile(t, "config.json", `{"ranking": {"alpha": 1.5}}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeFile(t, "config.json", `{"seeds": [`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WEAVER_SEEDS", "a.com, b.com ,")
	t.Setenv("WEAVER_MAX_DEPTH", "4")
	path := writeFile(t, "config.json", `{"seeds": ["example.com"]}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com"}, cfg.Seeds)
	assert.Equal(t, 4, cfg.MaxDepth)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("WEAVER_SEEDS", "example.com")
	t.Setenv("WEAVER_ALPHA", "0.25")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, cfg.Seeds)
	assert.Equal(t, 0.25, cfg.Alpha())
	assert.Equal(t, 2, cfg.MaxDepth)

	t.Setenv("WEAVER_ALPHA", "3")
	_, err = FromEnv()
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.MaxDepth = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidDepth)

	cfg = Default()
	cfg.InitialConcurrency = -2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConcurrency)

	cfg = Default()
	cfg.Filter.Patterns = []string{" "}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPattern)
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := LoadConfig("../../config.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, cfg.Seeds)
	assert.Equal(t, []string{"email"}, cfg.Extractors)
	assert.Equal(t, "en", cfg.Headers["Accept-Language"])
	assert.Equal(t, 0.5, cfg.Alpha())
}
