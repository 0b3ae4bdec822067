package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the signed-in account",
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Update profile fields on the signed-in account. Only the flags you
pass are changed.

Examples:
  makerctl account update --bio "Printing tiny boats since 2023"
  makerctl account update --email alice@example.com --theme dark`,
	Args: cobra.NoArgs,
	RunE: runAccountUpdate,
}

var accountAvatarCmd = &cobra.Command{
	Use:   "avatar <file>",
	Short: "Upload a new avatar image",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountAvatar,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runAccountDelete,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountAvatarCmd)
	accountCmd.AddCommand(accountDeleteCmd)

	accountUpdateCmd.Flags().String("username", "", "new username")
	accountUpdateCmd.Flags().String("email", "", "new email address")
	accountUpdateCmd.Flags().String("bio", "", "new profile bio")
	accountUpdateCmd.Flags().String("language", "", "preferred language")
	accountUpdateCmd.Flags().String("theme", "", "preferred theme")
	accountDeleteCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
}

func runAccountUpdate(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, client, _, err := newSession()
	if err != nil {
		return err
	}

	var update makerworks.ProfileUpdate
	for flag, dst := range map[string]**string{
		"username": &update.Username,
		"email":    &update.Email,
		"bio":      &update.Bio,
		"language": &update.Language,
		"theme":    &update.Theme,
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = &v
		}
	}

	user, err := client.UpdateProfile(cmd.Context(), update)
	if err != nil {
		return err
	}

	session.SetUser(user)
	printer.Success("Profile updated")
	return nil
}

func runAccountAvatar(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, client, _, err := newSession()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening avatar file: %w", err)
	}
	defer f.Close()

	url, err := client.UploadAvatar(cmd.Context(), filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	// Re-resolve so the store picks up the new avatar URL.
	if _, err := session.FetchUser(cmd.Context(), true); err != nil {
		logger.Debug("post-upload refresh failed", "error", err)
	}

	printer.Success("Avatar uploaded: %s", url)
	return nil
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, client, _, err := newSession()
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Fprint(os.Stderr, "This permanently deletes your account. Type the account username to confirm: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		user := session.User()
		if user == nil || strings.TrimSpace(line) != user.Username {
			return fmt.Errorf("confirmation did not match, aborting")
		}
	}

	if err := client.DeleteAccount(cmd.Context()); err != nil {
		return err
	}

	session.Logout()
	printer.Success("Account deleted")
	return nil
}
