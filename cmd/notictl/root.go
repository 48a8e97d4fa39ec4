// Package main provides the CLI entrypoint for notictl.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var globalOpts struct {
	verbose bool
}

var logger *slog.Logger

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "notictl",
	Short: "Control the notid notification daemon",
	Long: `notictl drives a running notid daemon over its control interface.

It can focus and dismiss notifications, inspect daemon state, mute sounds,
inhibit display, browse notification history and send test notifications.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// client connects to the daemon control interface.
func client() (*dbus.ControlClient, error) {
	c, err := dbus.NewControlClient()
	if err != nil {
		return nil, fmt.Errorf("connecting to notid: %w", err)
	}
	return c, nil
}

func main() {
	Execute()
}
