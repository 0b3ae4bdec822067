// Package cmd contains all CLI commands for makerctl
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	makerworks "github.com/schartrand77/makerworks-go"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var (
	cfgFile      string
	verbose      bool
	quiet        bool
	outputFormat string
	logger       *slog.Logger
	version      = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "makerctl",
	Short: "MakerWorks 3D print storefront CLI",
	Long: `makerctl is a CLI client for the MakerWorks 3D-print-on-demand service.

It keeps your session and cart on disk between invocations, so you can
sign in once, build up a cart across commands, and hand it to checkout.

Example usage:
  makerctl login alice           # Sign in and persist the session
  makerctl whoami                # Show the signed-in user
  makerctl models list           # Browse printable models
  makerctl cart add <model-id>   # Add a model to the cart
  makerctl cart checkout         # Create a payment session`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/makerworks/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "MakerWorks API base URL")
	rootCmd.PersistentFlags().String("state-dir", "", "session and cart state directory (default is ~/.config/makerworks)")
	rootCmd.PersistentFlags().String("redis", "", "redis address for shared state storage (host:port)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))
	_ = viper.BindPFlag("redis", rootCmd.PersistentFlags().Lookup("redis"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(defaultStateDir())
	}
	viper.SetEnvPrefix("MAKERWORKS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	switch outputFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q: must be table, json, or yaml", outputFormat)
	}
	return nil
}

func defaultStateDir() string {
	if dir := viper.GetString("state_dir"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "makerworks")
}

func newPrinter() *output.Printer {
	return output.NewPrinter(quiet)
}

// sessionNotifier routes session lifecycle notifications to the terminal.
type sessionNotifier struct {
	printer *output.Printer
}

func (n *sessionNotifier) Notify(level makerworks.NotifyLevel, message string) {
	switch level {
	case makerworks.NotifySuccess:
		n.printer.Success("%s", message)
	case makerworks.NotifyError:
		n.printer.Warning("%s", message)
	default:
		n.printer.Info("%s", message)
	}
}

// newBackend picks the state backend: redis when an address is
// configured, otherwise per-key JSON files in the state directory.
func newBackend() (makerworks.Backend, error) {
	if addr := viper.GetString("redis"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		return makerworks.NewRedisBackend(client, 0), nil
	}
	return makerworks.NewFileBackend(defaultStateDir())
}

// newSession builds the persisted session store, the API client bound
// to it, and the cart store. The client reads its bearer token from the
// session on every request and logs the session out on a 401.
func newSession() (*makerworks.SessionStore, *makerworks.Client, *makerworks.CartStore, error) {
	backend, err := newBackend()
	if err != nil {
		return nil, nil, nil, err
	}

	session := makerworks.NewSessionStore(backend,
		makerworks.WithNotifier(&sessionNotifier{printer: newPrinter()}),
		makerworks.WithSessionLogger(logger),
	)

	client, err := makerworks.NewClient(makerworks.Config{
		BaseURL:        viper.GetString("api_url"),
		HTTPTimeout:    30 * time.Second,
		Logger:         logger,
		TokenSource:    session,
		OnUnauthorized: session.HandleUnauthorized,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	session.SetIdentityClient(client)

	cart := makerworks.NewCartStore(backend, makerworks.WithCartLogger(logger))
	return session, client, cart, nil
}

// renderStructured emits v as JSON or YAML depending on --output, and
// reports whether it handled the rendering. Table callers fall through.
func renderStructured(v any) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = os.Stdout.Write(data)
		return true, err
	default:
		return false, nil
	}
}
