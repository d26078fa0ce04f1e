package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 60, cfg.Zhihu.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Zhihu.RequestTimeout)
	assert.Equal(t, 1200*time.Millisecond, cfg.Pacing.ItemDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Pacing.PageDelay)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 800, cfg.Render.MaxImageWidth)
	assert.Equal(t, 30, cfg.Extract.MinRootLength)
	assert.NotEmpty(t, cfg.Extract.NoiseMarkers)
	assert.True(t, cfg.Notifications.Enabled)

	// Defaults alone must validate.
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"zero rpm", func(c *Config) { c.Zhihu.RequestsPerMinute = 0 }, true},
		{"negative item delay", func(c *Config) { c.Pacing.ItemDelay = -time.Second }, true},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, true},
		{"backoff below one", func(c *Config) { c.Retry.BackoffFactor = 0.5 }, true},
		{"empty output dir", func(c *Config) { c.Output.BaseDirectory = "" }, true},
		{"zero image width", func(c *Config) { c.Render.MaxImageWidth = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
zhihu:
  cookie: "z_c0=test"
  requests_per_minute: 30
pacing:
  item_delay: 2s
output:
  base_directory: /tmp/out
render:
  max_image_width: 600
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "z_c0=test", cfg.Zhihu.Cookie)
	assert.Equal(t, 30, cfg.Zhihu.RequestsPerMinute)
	assert.Equal(t, 2*time.Second, cfg.Pacing.ItemDelay)
	assert.Equal(t, "/tmp/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 600, cfg.Render.MaxImageWidth)

	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ZHEXPORT_COOKIE", "z_c0=env")
	t.Setenv("ZHEXPORT_OUTPUT_DIR", "/env/out")
	t.Setenv("ZHEXPORT_REQUESTS_PER_MINUTE", "15")
	t.Setenv("ZHEXPORT_ITEM_DELAY", "500ms")
	t.Setenv("ZHEXPORT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "z_c0=env", cfg.Zhihu.Cookie)
	assert.Equal(t, "/env/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 15, cfg.Zhihu.RequestsPerMinute)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.ItemDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":          "/flag/out",
		"item-delay":      3 * time.Second,
		"max-image-width": 400,
		"notifications":   false,
	})

	assert.Equal(t, "/flag/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 3*time.Second, cfg.Pacing.ItemDelay)
	assert.Equal(t, 400, cfg.Render.MaxImageWidth)
	assert.False(t, cfg.Notifications.Enabled)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Zhihu.Cookie = "z_c0=saved"
	cfg.Output.BaseDirectory = "/saved"
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "z_c0=saved", reloaded.Zhihu.Cookie)
	assert.Equal(t, "/saved", reloaded.Output.BaseDirectory)
}
