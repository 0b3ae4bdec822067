package cmd

import (
	"github.com/spf13/cobra"

	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts (admin only)",
	Long: `List, promote, demote, and remove user accounts. All commands in
this group require an administrator session.

Examples:
  makerctl users list
  makerctl users promote <user-id>
  makerctl users demote <user-id>
  makerctl users reset-password <user-id>
  makerctl users delete <user-id>`,
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all registered users",
	Args:    cobra.NoArgs,
	RunE:    runUsersList,
}

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <user-id>",
	Short: "Grant a user the admin role",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersPromote,
}

var usersDemoteCmd = &cobra.Command{
	Use:   "demote <user-id>",
	Short: "Revoke a user's admin role and suspend the account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDemote,
}

var usersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <user-id>",
	Short: "Trigger a password reset for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersResetPassword,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Permanently remove a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersPromoteCmd)
	usersCmd.AddCommand(usersDemoteCmd)
	usersCmd.AddCommand(usersResetPasswordCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	users, err := client.ListUsers(cmd.Context())
	if err != nil {
		return err
	}

	if handled, err := renderStructured(users); handled {
		return err
	}

	if len(users) == 0 {
		printer.Info("No registered users.")
		return nil
	}

	table := output.NewQuietTable([]string{"ID", "USERNAME", "EMAIL", "ROLE", "STATUS"}, printer.IsQuiet())
	for _, u := range users {
		status := "active"
		if !u.IsActive {
			status = "suspended"
		}
		table.AddRow([]string{u.ID, printer.Bold(u.Username), u.Email, u.Role, status})
	}
	table.Render()
	return nil
}

func runUsersPromote(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	if err := client.PromoteUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	printer.Success("Promoted %s to admin", args[0])
	return nil
}

func runUsersDemote(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	if err := client.DemoteUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	printer.Success("Demoted %s", args[0])
	return nil
}

func runUsersResetPassword(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	if err := client.ResetUserPassword(cmd.Context(), args[0]); err != nil {
		return err
	}
	printer.Success("Password reset requested for %s", args[0])
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	if err := client.DeleteUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	printer.Success("Deleted user %s", args[0])
	return nil
}
