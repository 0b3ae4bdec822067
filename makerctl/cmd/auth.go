package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in and persist the session",
	Long: `Sign in to MakerWorks and store the session locally.

The password is read from the --password flag, the MAKERWORKS_PASSWORD
environment variable, or standard input, in that order.

Examples:
  makerctl login alice
  makerctl login alice --password-stdin < secret.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var signupCmd = &cobra.Command{
	Use:   "signup <username> <email>",
	Short: "Create a new MakerWorks account",
	Args:  cobra.ExactArgs(2),
	RunE:  runSignup,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("password", "", "password (prefer MAKERWORKS_PASSWORD or --password-stdin)")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from standard input")
	signupCmd.Flags().String("password", "", "password (prefer MAKERWORKS_PASSWORD or standard input)")
	whoamiCmd.Flags().Bool("refresh", false, "re-resolve the user against the API")
}

func readPassword(cmd *cobra.Command) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}
	if pw := os.Getenv("MAKERWORKS_PASSWORD"); pw != "" {
		return pw, nil
	}
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	if !fromStdin {
		fmt.Fprint(os.Stderr, "Password: ")
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, client, _, err := newSession()
	if err != nil {
		return err
	}

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	creds, err := client.SignIn(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	session.SetToken(creds.Token)
	if creds.User != nil {
		session.SetUser(creds.User)
	} else if _, err := session.FetchUser(cmd.Context(), true); err != nil {
		return err
	}

	user := session.User()
	if user != nil {
		printer.Success("Signed in as %s", printer.Bold(user.Username))
	} else {
		printer.Success("Signed in")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	session, client, _, err := newSession()
	if err != nil {
		return err
	}

	// Server-side invalidation is advisory; the local session is
	// cleared regardless.
	if session.Token() != "" {
		if err := client.SignOut(cmd.Context()); err != nil {
			logger.Debug("server sign-out failed", "error", err)
		}
	}
	session.Logout()
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, client, _, err := newSession()
	if err != nil {
		return err
	}

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	creds, err := client.SignUp(cmd.Context(), makerworks.SignupRequest{
		Username: args[0],
		Email:    args[1],
		Password: password,
	})
	if err != nil {
		return err
	}

	session.SetToken(creds.Token)
	if creds.User != nil {
		session.SetUser(creds.User)
	}
	printer.Success("Account created for %s", printer.Bold(args[0]))
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, _, _, err := newSession()
	if err != nil {
		return err
	}

	refresh, _ := cmd.Flags().GetBool("refresh")
	user, err := session.FetchUser(cmd.Context(), refresh)
	if err != nil {
		return err
	}
	if user == nil {
		printer.Info("Not signed in.")
		return nil
	}

	if handled, err := renderStructured(user); handled {
		return err
	}

	printer.Header("Session")
	table := output.NewTable([]string{"FIELD", "VALUE"})
	table.AddRows([][]string{
		{"Username", user.Username},
		{"Email", user.Email},
		{"Role", user.Role},
		{"Verified", fmt.Sprintf("%t", user.IsVerified)},
		{"Member since", formatTime(user.CreatedAt)},
	})
	if avatar := session.CachedAvatarURL(cmd.Context()); avatar != "" {
		table.AddRow([]string{"Avatar", avatar})
	}
	table.Render()

	if session.HasRole("admin") {
		printer.Info("You have administrator access.")
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
