package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, []string{"[AdSDK]"}, cfg.Defaults.Tokens)
	assert.Equal(t, "2s", cfg.Defaults.PollInterval)
	assert.Equal(t, 200, cfg.Defaults.KeepEvents)
	assert.Empty(t, cfg.Defaults.Journal)
	assert.Empty(t, cfg.Defaults.SettingsPath)
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() {
			require.NoError(t, os.Chdir(origDir))
		})

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "text", cfg.Format)
	})

	t.Run("loads config from file", func(t *testing.T) {
		tmpDir := t.TempDir()

		configContent := `
format: ndjson
quiet: true
defaults:
  tokens:
    - "[AdSDK]"
    - "[Mediation]"
  journal: /tmp/adsdk.ndjson
  keep_events: 500
`
		configPath := filepath.Join(tmpDir, "adscope.yaml")
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "ndjson", cfg.Format)
		assert.True(t, cfg.Quiet)
		assert.Equal(t, []string{"[AdSDK]", "[Mediation]"}, cfg.Defaults.Tokens)
		assert.Equal(t, "/tmp/adsdk.ndjson", cfg.Defaults.Journal)
		assert.Equal(t, 500, cfg.Defaults.KeepEvents)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("parses all config fields", func(t *testing.T) {
		tmpDir := t.TempDir()
		configContent := `
format: ndjson
quiet: false
verbose: true
defaults:
  tokens:
    - "[AdSDK]"
  journal: /var/log/adsdk.ndjson
  poll_interval: 5s
  keep_events: 300
  settings_path: /tmp/adscope-settings.json
`
		configPath := filepath.Join(tmpDir, "adscope.yaml")
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "ndjson", cfg.Format)
		assert.False(t, cfg.Quiet)
		assert.True(t, cfg.Verbose)
		assert.Equal(t, []string{"[AdSDK]"}, cfg.Defaults.Tokens)
		assert.Equal(t, "/var/log/adsdk.ndjson", cfg.Defaults.Journal)
		assert.Equal(t, "5s", cfg.Defaults.PollInterval)
		assert.Equal(t, 300, cfg.Defaults.KeepEvents)
		assert.Equal(t, "/tmp/adscope-settings.json", cfg.Defaults.SettingsPath)
	})
}

func TestConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("ADSCOPE_FORMAT", "ndjson")
	t.Setenv("ADSCOPE_JOURNAL", "/tmp/env.ndjson")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ndjson", cfg.Format)
	assert.Equal(t, "/tmp/env.ndjson", cfg.Defaults.Journal)
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds .adscope.yaml in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() {
			require.NoError(t, os.Chdir(origDir))
		})

		configPath := filepath.Join(tmpDir, ".adscope.yaml")
		err = os.WriteFile(configPath, []byte("format: text"), 0644)
		require.NoError(t, err)

		found := findConfigFile()
		// Resolve symlinks for comparison (macOS /var -> /private/var)
		expectedPath, err := filepath.EvalSymlinks(configPath)
		require.NoError(t, err)
		foundPath, err := filepath.EvalSymlinks(found)
		require.NoError(t, err)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("prefers .adscope.yaml over .adscope.yml", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() {
			require.NoError(t, os.Chdir(origDir))
		})

		yamlPath := filepath.Join(tmpDir, ".adscope.yaml")
		ymlPath := filepath.Join(tmpDir, ".adscope.yml")
		err = os.WriteFile(yamlPath, []byte("format: yaml"), 0644)
		require.NoError(t, err)
		err = os.WriteFile(ymlPath, []byte("format: yml"), 0644)
		require.NoError(t, err)

		found := findConfigFile()
		expectedPath, err := filepath.EvalSymlinks(yamlPath)
		require.NoError(t, err)
		foundPath, err := filepath.EvalSymlinks(found)
		require.NoError(t, err)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("returns empty string when no config found", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() {
			require.NoError(t, os.Chdir(origDir))
		})

		found := findConfigFile()
		assert.Empty(t, found)
	})
}
