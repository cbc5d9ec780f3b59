package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/LeJamon/goStorageRent/internal/config"
	"github.com/LeJamon/goStorageRent/internal/di"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool

	// Set up by the root command before any subcommand runs.
	container *di.Container
	provider  *di.Provider
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rentd",
	Short: "rentd - storage rent accounting for a state trie",
	Long: `rentd computes the storage rent transactions pay for the trie nodes
they touch, and plays scenarios of blocks and transactions through the rent
accounting, optionally persisting the resulting state and receipts.`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the command line and releases the services it opened, also
// when the command failed.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, teardown())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default ./"+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging, down to trace level")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
}

// setup loads the configuration, installs the logger and registers services.
func setup(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadConfig(configFile)
	} else {
		cfg, err = config.LoadDefaultConfig()
	}
	if err != nil {
		return err
	}

	level, err := logLevel(cfg)
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), level)

	container = di.New()
	provider = di.NewProvider(container, cfg)
	return provider.RegisterAll()
}

func teardown() error {
	if container == nil {
		return nil
	}
	err := container.Close()
	container, provider = nil, nil
	return err
}

// logLevel applies the command line flags over the configured level.
func logLevel(cfg *config.Config) (slog.Level, error) {
	switch {
	case quiet:
		return log.LevelError, nil
	case verbose:
		return log.LevelTrace, nil
	case debug:
		return log.LevelDebug, nil
	}
	return config.ParseLogLevel(cfg.Log.Level)
}

func setupLogging(w io.Writer, level slog.Level) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(w, level, useColor)))
}
