package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "vkbackup/pkg/errors"
)

// clearEnv blanks every variable LoadFromEnv reads and unsets it, so that
// godotenv is allowed to populate it.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VK_TOKEN", "YANDEX_TOKEN", "VKBACKUP_VK_TOKEN", "VKBACKUP_YANDEX_TOKEN",
		"VKBACKUP_VK_API_VERSION", "VKBACKUP_COUNT", "VKBACKUP_MANIFEST_DIR",
		"VKBACKUP_PACING_DELAY", "VKBACKUP_RETRY_ENABLED", "VKBACKUP_LOG_LEVEL",
		"VKBACKUP_LOG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.VK.Token = "vk-token"
	cfg.Yandex.Token = "disk-token"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "5.131", cfg.VK.APIVersion)
	assert.Equal(t, "https://api.vk.com/method", cfg.VK.BaseURL)
	assert.Equal(t, "https://cloud-api.yandex.net/v1/disk", cfg.Yandex.BaseURL)
	assert.Empty(t, cfg.VK.Token)
	assert.Empty(t, cfg.Yandex.Token)

	assert.Equal(t, 5, cfg.Backup.Count)
	assert.Equal(t, "VK_Photos", cfg.Backup.FolderPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Backup.PacingDelay)

	assert.Equal(t, 30*time.Second, cfg.HTTP.ControlTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.UploadTimeout)

	assert.Equal(t, 3, cfg.RateLimit.VKRequestsPerSecond)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("bare token names", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("VK_TOKEN", "vk-env")
		os.Setenv("YANDEX_TOKEN", "disk-env")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())

		assert.Equal(t, "vk-env", cfg.VK.Token)
		assert.Equal(t, "disk-env", cfg.Yandex.Token)
	})

	t.Run("prefixed names win", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("VK_TOKEN", "vk-bare")
		os.Setenv("VKBACKUP_VK_TOKEN", "vk-prefixed")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())

		assert.Equal(t, "vk-prefixed", cfg.VK.Token)
	})

	t.Run("pipeline settings", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("VKBACKUP_COUNT", "12")
		os.Setenv("VKBACKUP_MANIFEST_DIR", "/tmp/manifests")
		os.Setenv("VKBACKUP_PACING_DELAY", "2s")
		os.Setenv("VKBACKUP_RETRY_ENABLED", "false")
		os.Setenv("VKBACKUP_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())

		assert.Equal(t, 12, cfg.Backup.Count)
		assert.Equal(t, "/tmp/manifests", cfg.Backup.ManifestDir)
		assert.Equal(t, 2*time.Second, cfg.Backup.PacingDelay)
		assert.False(t, cfg.Retry.Enabled)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("malformed count", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("VKBACKUP_COUNT", "many")

		cfg := DefaultConfig()
		err := cfg.LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VKBACKUP_COUNT")
	})

	t.Run("malformed pacing delay", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("VKBACKUP_PACING_DELAY", "soon")

		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromEnv())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "missing vk token", modify: func(c *Config) { c.VK.Token = "" }, wantError: true},
		{name: "missing yandex token", modify: func(c *Config) { c.Yandex.Token = "" }, wantError: true},
		{name: "zero count", modify: func(c *Config) { c.Backup.Count = 0 }, wantError: true},
		{name: "negative pacing", modify: func(c *Config) { c.Backup.PacingDelay = -time.Second }, wantError: true},
		{name: "zero pacing allowed", modify: func(c *Config) { c.Backup.PacingDelay = 0 }},
		{name: "zero upload timeout", modify: func(c *Config) { c.HTTP.UploadTimeout = 0 }, wantError: true},
		{name: "bad rate limit", modify: func(c *Config) { c.RateLimit.VKRequestsPerSecond = 0 }, wantError: true},
		{name: "retry without attempts", modify: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantError: true},
		{name: "retry disabled without attempts", modify: func(c *Config) {
			c.Retry.Enabled = false
			c.Retry.MaxAttempts = 0
		}},
		{name: "invalid log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "VK_TOKEN")
	assert.Contains(t, err.Error(), "YANDEX_TOKEN")

	// Validate keeps the configuration type reachable through errors.Join
	assert.True(t, apperrors.IsType(cfg.Validate(), apperrors.ErrorTypeConfiguration))

	cfg.VK.Token = "a"
	cfg.Yandex.Token = "b"
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"vk-token":     "flag-vk",
		"yandex-token": "flag-disk",
		"count":        9,
		"manifest-dir": "/flag/out",
		"pacing-delay": time.Second,
		"log-level":    "error",
	})

	assert.Equal(t, "flag-vk", cfg.VK.Token)
	assert.Equal(t, "flag-disk", cfg.Yandex.Token)
	assert.Equal(t, 9, cfg.Backup.Count)
	assert.Equal(t, "/flag/out", cfg.Backup.ManifestDir)
	assert.Equal(t, time.Second, cfg.Backup.PacingDelay)
	assert.Equal(t, "error", cfg.Logging.Level)

	t.Run("zero values are ignored", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(map[string]interface{}{"count": 0, "vk-token": ""})
		assert.Equal(t, 5, cfg.Backup.Count)
		assert.Empty(t, cfg.VK.Token)
	})
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.VK.Token = "saved-vk"
	cfg.Backup.Count = 8
	require.NoError(t, cfg.Save(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))
	assert.Equal(t, "saved-vk", loaded.VK.Token)
	assert.Equal(t, 8, loaded.Backup.Count)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("vk: [unterminated"), 0644))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		configContent := `
vk:
  token: file_vk
yandex:
  token: file_disk
backup:
  count: 7
  manifest_dir: /file/dir
`
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

		os.Setenv("YANDEX_TOKEN", "env_disk")
		os.Setenv("VKBACKUP_MANIFEST_DIR", "/env/dir")

		cfg, err := Load(configPath, map[string]interface{}{"manifest-dir": "/flag/dir"})
		require.NoError(t, err)

		assert.Equal(t, "file_vk", cfg.VK.Token)             // file only
		assert.Equal(t, "env_disk", cfg.Yandex.Token)        // env over file
		assert.Equal(t, "/flag/dir", cfg.Backup.ManifestDir) // flag over env
		assert.Equal(t, 7, cfg.Backup.Count)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing credentials are left to Validate", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())
		dir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(dir))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.True(t, apperrors.IsType(cfg.Validate(), apperrors.ErrorTypeConfiguration))
	})

	t.Run("loads .env file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())
		dir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(dir))

		envContent := "VK_TOKEN=dotenv_vk\nYANDEX_TOKEN=dotenv_disk\n"
		require.NoError(t, os.WriteFile(".env", []byte(envContent), 0644))

		cfg, err := Load("", nil)
		require.NoError(t, err)

		assert.Equal(t, "dotenv_vk", cfg.VK.Token)
		assert.Equal(t, "dotenv_disk", cfg.Yandex.Token)
	})
}

func TestDurationParsing(t *testing.T) {
	yamlContent := `
backup:
  pacing_delay: 250ms
http:
  control_timeout: 10s
  upload_timeout: 1m30s
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(yamlContent), &cfg))

	assert.Equal(t, 250*time.Millisecond, cfg.Backup.PacingDelay)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ControlTimeout)
	assert.Equal(t, 90*time.Second, cfg.HTTP.UploadTimeout)
}
