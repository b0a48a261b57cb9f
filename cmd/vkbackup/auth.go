package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vkbackup/pkg/auth"
	"vkbackup/pkg/config"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/ui"
	"vkbackup/pkg/vk"
	"vkbackup/pkg/yadisk"
)

var skipVerify bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API tokens",
	Long: `Manage the VK and Yandex.Disk tokens used for backups.

Tokens are stored in:
  - the system keychain (when available)
  - an encrypted file with PBKDF2 key derivation

Several named profiles can be kept side by side.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store a VK and a Yandex.Disk token",
	Long: `Store a token pair under a profile name (default: "default").

Both tokens are read without echo and checked against the APIs before they
are saved, unless --no-verify is given.`,
	Example: `  vkbackup auth login
  vkbackup auth login work --no-verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked tokens",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&skipVerify, "no-verify", false, "store tokens without checking them")
}

func profileArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())
	profile := profileArg(args)

	auth.ShowTokenGuide(out)

	if existing, _ := manager.Retrieve(profile); existing != nil {
		fmt.Fprintf(out, "Profile '%s' already exists. Replace it? (y/N): ", profile)
		answer, _ := readLine(in)
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
	}

	fmt.Fprint(out, "VK token: ")
	vkTok, err := readSecret(in)
	if err != nil {
		return fmt.Errorf("failed to read VK token: %w", err)
	}
	fmt.Fprint(out, "\nYandex.Disk token: ")
	diskTok, err := readSecret(in)
	if err != nil {
		return fmt.Errorf("failed to read Yandex.Disk token: %w", err)
	}
	fmt.Fprintln(out)

	creds := &auth.Credentials{Profile: profile, VKToken: vkTok, YandexToken: diskTok}

	if !skipVerify {
		if err := verifyCredentials(cmd.Context(), creds); err != nil {
			ui.PrintError("Token check failed", err)
			return err
		}
		ui.PrintSuccess("Both tokens accepted")
	}

	if err := manager.Store(creds); err != nil {
		ui.PrintError("Failed to store credentials", err)
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Stored profile '%s'", profile))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	profile := profileArg(args)
	if err := manager.Delete(profile); err != nil {
		ui.PrintError("Failed to remove profile", err)
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed profile '%s'", profile))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	list, err := manager.List()
	if err != nil {
		return err
	}
	printProfiles(cmd.OutOrStdout(), list)
	return nil
}

func printProfiles(out io.Writer, list []*auth.Credentials) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No stored profiles. Run 'vkbackup auth login' to add one.")
		return
	}
	for _, c := range list {
		s := auth.Sanitize(c)
		fmt.Fprintf(out, "%s\n  VK:          %s\n  Yandex.Disk: %s\n  Modified:    %s\n",
			ui.Cyan(s.Profile), s.VKToken, s.YandexToken, s.LastModified.Format("2006-01-02 15:04"))
	}
}

// verifyCredentials checks both tokens against the live APIs
func verifyCredentials(ctx context.Context, creds *auth.Credentials) error {
	cfg := config.DefaultConfig()
	log := logger.GetLogger()

	if err := vk.NewClient(creds.VKToken, cfg.HTTP.ControlTimeout, log).ValidateToken(ctx); err != nil {
		return fmt.Errorf("VK: %w", err)
	}
	disk := yadisk.NewClient(creds.YandexToken, cfg.HTTP.ControlTimeout, cfg.HTTP.UploadTimeout, log)
	if err := disk.ValidateToken(ctx); err != nil {
		return fmt.Errorf("Yandex.Disk: %w", err)
	}
	return nil
}

// readSecret reads a token without echo when stdin is a terminal
func readSecret(in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(in)
}
