package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "vkbackup/pkg/errors"
)

// Config holds all configuration options for a backup run
type Config struct {
	// Source API settings
	VK VKConfig `yaml:"vk" json:"vk"`

	// Destination API settings
	Yandex YandexConfig `yaml:"yandex" json:"yandex"`

	// Backup pipeline settings
	Backup BackupConfig `yaml:"backup" json:"backup"`

	// HTTP transport settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for idempotent control calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// VKConfig holds VK API configuration
type VKConfig struct {
	Token      string `yaml:"token" json:"token"`
	APIVersion string `yaml:"api_version" json:"api_version"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
}

// YandexConfig holds Yandex.Disk API configuration
type YandexConfig struct {
	Token   string `yaml:"token" json:"token"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// BackupConfig holds settings of the backup pipeline itself
type BackupConfig struct {
	Count        int           `yaml:"count" json:"count"`
	FolderPrefix string        `yaml:"folder_prefix" json:"folder_prefix"`
	ManifestDir  string        `yaml:"manifest_dir" json:"manifest_dir"`
	PacingDelay  time.Duration `yaml:"pacing_delay" json:"pacing_delay"`
}

// HTTPConfig holds timeouts applied to outgoing requests
type HTTPConfig struct {
	ControlTimeout time.Duration `yaml:"control_timeout" json:"control_timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout" json:"upload_timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	VKRequestsPerSecond   int `yaml:"vk_requests_per_second" json:"vk_requests_per_second"`
	DiskRequestsPerMinute int `yaml:"disk_requests_per_minute" json:"disk_requests_per_minute"`
}

// RetryConfig holds retry settings
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	// DefaultVKAPIVersion is the VK API version the client speaks
	DefaultVKAPIVersion = "5.131"
	DefaultVKBaseURL    = "https://api.vk.com/method"
	DefaultYandexURL    = "https://cloud-api.yandex.net/v1/disk"
	DefaultCount        = 5
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VK: VKConfig{
			APIVersion: DefaultVKAPIVersion,
			BaseURL:    DefaultVKBaseURL,
		},
		Yandex: YandexConfig{
			BaseURL: DefaultYandexURL,
		},
		Backup: BackupConfig{
			Count:        DefaultCount,
			FolderPrefix: "VK_Photos",
			ManifestDir:  ".",
			PacingDelay:  500 * time.Millisecond,
		},
		HTTP: HTTPConfig{
			ControlTimeout: 30 * time.Second,
			UploadTimeout:  60 * time.Second,
			UserAgent:      "vkbackup/1.0",
		},
		RateLimit: RateLimitConfig{
			VKRequestsPerSecond:   3,
			DiskRequestsPerMinute: 120,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
// The bare VK_TOKEN and YANDEX_TOKEN names are honoured alongside the
// prefixed ones; the prefixed form wins when both are set.
func (c *Config) LoadFromEnv() error {
	if token := firstEnv("VKBACKUP_VK_TOKEN", "VK_TOKEN"); token != "" {
		c.VK.Token = token
	}
	if token := firstEnv("VKBACKUP_YANDEX_TOKEN", "YANDEX_TOKEN"); token != "" {
		c.Yandex.Token = token
	}
	if v := os.Getenv("VKBACKUP_VK_API_VERSION"); v != "" {
		c.VK.APIVersion = v
	}

	if count := os.Getenv("VKBACKUP_COUNT"); count != "" {
		val, err := strconv.Atoi(count)
		if err != nil {
			return fmt.Errorf("invalid VKBACKUP_COUNT %q: %w", count, err)
		}
		if val > 0 {
			c.Backup.Count = val
		}
	}
	if dir := os.Getenv("VKBACKUP_MANIFEST_DIR"); dir != "" {
		c.Backup.ManifestDir = dir
	}
	if delay := os.Getenv("VKBACKUP_PACING_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid VKBACKUP_PACING_DELAY %q: %w", delay, err)
		}
		c.Backup.PacingDelay = d
	}

	if retry := os.Getenv("VKBACKUP_RETRY_ENABLED"); retry != "" {
		c.Retry.Enabled = strings.ToLower(retry) == "true"
	}

	if logLevel := os.Getenv("VKBACKUP_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("VKBACKUP_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".vkbackup.yaml",
		".vkbackup.yml",
		filepath.Join(home, ".config", "vkbackup", "config.yaml"),
		filepath.Join(home, ".config", "vkbackup", "config.yml"),
		filepath.Join(home, ".vkbackup.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultPath returns the location `config init` writes to
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "vkbackup", "config.yaml")
}

// ValidateCredentials checks that both API tokens are present. It returns
// a configuration error so callers can fail before any network call.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.VK.Token == "" {
		missing = append(missing, "VK_TOKEN")
	}
	if c.Yandex.Token == "" {
		missing = append(missing, "YANDEX_TOKEN")
	}
	if len(missing) > 0 {
		return apperrors.Newf(apperrors.ErrorTypeConfiguration,
			"missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if err := c.ValidateCredentials(); err != nil {
		errs = append(errs, err)
	}

	if c.VK.APIVersion == "" {
		errs = append(errs, errors.New("VK API version is required"))
	}
	if c.VK.BaseURL == "" || c.Yandex.BaseURL == "" {
		errs = append(errs, errors.New("API base URLs are required"))
	}

	if c.Backup.Count <= 0 {
		errs = append(errs, errors.New("photo count must be positive"))
	}
	if c.Backup.FolderPrefix == "" {
		errs = append(errs, errors.New("folder prefix is required"))
	}
	if c.Backup.PacingDelay < 0 {
		errs = append(errs, errors.New("pacing delay cannot be negative"))
	}

	if c.HTTP.ControlTimeout <= 0 || c.HTTP.UploadTimeout <= 0 {
		errs = append(errs, errors.New("HTTP timeouts must be positive"))
	}

	if c.RateLimit.VKRequestsPerSecond <= 0 {
		errs = append(errs, errors.New("VK requests per second must be positive"))
	}
	if c.RateLimit.DiskRequestsPerMinute <= 0 {
		errs = append(errs, errors.New("disk requests per minute must be positive"))
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["vk-token"].(string); ok && token != "" {
		c.VK.Token = token
	}
	if token, ok := flags["yandex-token"].(string); ok && token != "" {
		c.Yandex.Token = token
	}
	if count, ok := flags["count"].(int); ok && count > 0 {
		c.Backup.Count = count
	}
	if dir, ok := flags["manifest-dir"].(string); ok && dir != "" {
		c.Backup.ManifestDir = dir
	}
	if delay, ok := flags["pacing-delay"].(time.Duration); ok && delay > 0 {
		c.Backup.PacingDelay = delay
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults.
// The result is not validated; callers may still fill in credentials from
// the credential store before calling Validate.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".vkbackup.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	return config, nil
}
