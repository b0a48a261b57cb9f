package main

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vkbackup/pkg/auth"
	"vkbackup/pkg/backup"
	"vkbackup/pkg/config"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/ui"
)

var (
	// Backup command flags
	photoCount  int
	manifestDir string
	profileName string
	vkToken     string
	yandexToken string
	pacingDelay time.Duration
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup [owner-id]",
	Short: "Copy a user's profile photos to Yandex.Disk",
	Long: `Copy the profile photos of a VK user to Yandex.Disk.

The owner may be given as 53688675, id53688675, @id53688675 or a profile link
such as https://vk.com/id53688675. Without an argument you are prompted for
the owner and the number of photos.

Photos are uploaded largest first into VK_Photos_<owner>_<YYYY-MM-DD> and
named after their like count. After at least one upload succeeded the file
photos_info_<owner>.json lists every uploaded photo.`,
	Example: `  # Interactive
  vkbackup

  # Back up the 10 largest profile photos
  vkbackup backup id53688675 --count 10

  # Write the manifest elsewhere and use a stored profile
  vkbackup backup 53688675 --manifest-dir ./manifests --profile work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	addBackupFlags(backupCmd)
}

func addBackupFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&photoCount, "count", "n", 0, fmt.Sprintf("number of photos to back up (default %d)", config.DefaultCount))
	cmd.Flags().StringVarP(&manifestDir, "manifest-dir", "o", "", "directory for the JSON manifest (default: current directory)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "stored credential profile to use")
	cmd.Flags().StringVar(&vkToken, "vk-token", "", "VK access token")
	cmd.Flags().StringVar(&yandexToken, "yandex-token", "", "Yandex.Disk OAuth token")
	cmd.Flags().DurationVar(&pacingDelay, "pacing-delay", 0, "pause between uploads (default 500ms)")
}

// commandFlags collects explicitly set flags for config.MergeCommandLineFlags
func commandFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if vkToken != "" {
		flags["vk-token"] = vkToken
	}
	if yandexToken != "" {
		flags["yandex-token"] = yandexToken
	}
	if photoCount > 0 {
		flags["count"] = photoCount
	}
	if manifestDir != "" {
		flags["manifest-dir"] = manifestDir
	}
	if pacingDelay > 0 {
		flags["pacing-delay"] = pacingDelay
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err)
		return err
	}
	log := logger.GetLogger()

	fillStoredCredentials(cfg, profileName, log)

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintError("Configuration error", err)
		auth.ShowEnvHint(ui.Output())
		return err
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Invalid configuration", err)
		return err
	}

	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	target, err := resolveTarget(in, out, args, photoCount, cfg.Backup.Count)
	if err != nil {
		return err
	}
	ui.PrintInfo("Owner", target.ownerID)
	ui.PrintInfo("Photos", fmt.Sprintf("%d", target.count))

	o, err := backup.NewFromConfig(cfg, log)
	if err != nil {
		ui.PrintError("Failed to initialize backup", err)
		return err
	}
	if !ui.IsQuietMode() {
		o.SetReporter(ui.NewProgressDisplay(out, verbose))
	}

	result := o.Run(cmd.Context(), target.ownerID, target.count)
	if !result.Success {
		if ui.IsQuietMode() {
			ui.PrintError("Backup failed", result.Message)
		}
		return errors.New(result.Message)
	}

	if n := result.FailedPhotos(); n > 0 {
		ui.PrintWarning(fmt.Sprintf("%d photos could not be uploaded", n))
	}
	return nil
}

// fillStoredCredentials completes missing tokens from the credential store
func fillStoredCredentials(cfg *config.Config, profile string, log logger.Logger) {
	if cfg.ValidateCredentials() == nil && profile == "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("Credential store unavailable")
		return
	}

	var creds *auth.Credentials
	if profile != "" {
		creds, err = manager.Retrieve(profile)
	} else {
		creds, err = manager.RetrieveDefault(auth.DefaultProfile)
	}
	if err != nil {
		log.WithError(err).Debug("No stored credentials")
		return
	}

	creds.ApplyTo(cfg)
	log.WithField("profile", creds.Profile).Info("Using stored credentials")
}
