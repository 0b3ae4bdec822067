package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
)

var keepAliveCmd = &cobra.Command{
	Use:   "keep-alive",
	Short: "Keep the session fresh by revalidating it periodically",
	Long: `Run a foreground loop that re-resolves the session against the API
before the bearer token expires. Useful alongside long-running scripts
that call makerctl repeatedly. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runKeepAlive,
}

func init() {
	rootCmd.AddCommand(keepAliveCmd)

	keepAliveCmd.Flags().Duration("interval", makerworks.DefaultKeepAliveInterval, "revalidation interval")
}

func runKeepAlive(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	session, _, _, err := newSession()
	if err != nil {
		return err
	}
	if session.Token() == "" {
		return fmt.Errorf("not signed in")
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer.Info("Keeping the session alive every %s. Press Ctrl-C to stop.", interval.Round(time.Second))
	makerworks.NewKeepAlive(session, interval, makerworks.WithKeepAliveLogger(logger)).Run(ctx)
	return nil
}
