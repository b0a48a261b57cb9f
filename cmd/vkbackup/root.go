package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vkbackup/pkg/logger"
	"vkbackup/pkg/ui"
)

var (
	// Set with -ldflags at build time
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate)
}

// rootCmd runs a backup when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "vkbackup [owner-id]",
	Short: "Back up VK profile photos to Yandex.Disk",
	Long: `vkbackup copies the largest rendition of a VK user's profile photos into a
dated folder on Yandex.Disk and writes a JSON manifest of what was uploaded.

Tokens are read from, in order:
  - --vk-token / --yandex-token flags
  - VK_TOKEN / YANDEX_TOKEN environment variables or a .env file
  - the config file
  - credentials stored with 'vkbackup auth login'`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version
		if quiet {
			ui.SetQuietMode(true)
		}
	},
	RunE: runBackup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ~/.config/vkbackup/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print one line per photo instead of a progress bar")

	addBackupFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
