package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vkbackup/pkg/auth"
	"vkbackup/pkg/config"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage vkbackup configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (VKBACKUP_*, VK_TOKEN, YANDEX_TOKEN)
  - .env files
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options at
~/.config/vkbackup/config.yaml, or at the path given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with masked tokens",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# vkbackup configuration
#
# Tokens are better kept out of this file: use 'vkbackup auth login',
# a .env file or the VK_TOKEN / YANDEX_TOKEN environment variables.

vk:
  token: ""
  api_version: "5.131"
  base_url: "https://api.vk.com/method"

yandex:
  token: ""
  base_url: "https://cloud-api.yandex.net/v1/disk"

backup:
  # Photos per run when --count is not given
  count: 5
  # Folder name is <prefix>_<owner>_<YYYY-MM-DD>
  folder_prefix: "VK_Photos"
  # Where photos_info_<owner>.json is written
  manifest_dir: "."
  # Pause between upload requests
  pacing_delay: 500ms

http:
  control_timeout: 30s
  upload_timeout: 60s
  user_agent: "vkbackup/1.0"

rate_limit:
  vk_requests_per_second: 3
  disk_requests_per_minute: 120

# Only network failures of read-only calls are retried
retry:
  enabled: true
  max_attempts: 3
  base_delay: 1s
  max_delay: 10s

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # JSON log file; empty logs to stderr
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Configuration file already exists", path)
		return fmt.Errorf("refusing to overwrite %s", path)
	}

	if err := writeExampleConfig(path); err != nil {
		ui.PrintError("Failed to write configuration", err)
		return err
	}
	ui.PrintSuccess("Created " + path)
	return nil
}

// writeExampleConfig writes exampleConfig after checking it parses
func writeExampleConfig(path string) error {
	cfg := config.DefaultConfig()
	if err := yaml.Unmarshal([]byte(exampleConfig), cfg); err != nil {
		return fmt.Errorf("example config is invalid: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(exampleConfig), 0600)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}
	return showConfig(cmd.OutOrStdout(), cfg)
}

// showConfig prints cfg as YAML with tokens masked
func showConfig(out io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.VK.Token = auth.MaskToken(cfg.VK.Token)
	masked.Yandex.Token = auth.MaskToken(cfg.Yandex.Token)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}
	fillStoredCredentials(cfg, "", logger.NewNopLogger())

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration is invalid", err)
		return err
	}
	ui.PrintSuccess("Configuration is valid")
	return nil
}
