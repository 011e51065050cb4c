// Package main is the entry point for the feedbackwidget CLI.
//
// The widget can be embedded as a library (SDK) or run as a standalone
// binary with YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	feedbackwidget serve -c config.yaml    # Serve widgets and the demo page
//	feedbackwidget validate -c config.yaml # Validate configuration
//	feedbackwidget render page.html        # Pre-render a host page
//	feedbackwidget send                    # Submit feedback from the terminal
//	feedbackwidget init                    # Write a starter config
//	feedbackwidget version                 # Show version info
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/feedbackwidget/config"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultEnvFile = ".env"

var rootCmd = &cobra.Command{
	Use:   "feedbackwidget",
	Short: "An embeddable feedback widget",
	Long: `feedbackwidget serves a drop-in feedback form for any web page.

Host pages add a custom element; each one becomes a floating button that
opens a validated form (name, email, feedback, star rating). Submissions are
posted as JSON to a collector endpoint.

Quick start:
  1. Create a config file: feedbackwidget init
  2. Run: feedbackwidget serve -c feedbackwidget.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  collector:
    url: https://collector.example.com/feedback/addFeedback`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this feedbackwidget binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "feedbackwidget %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a JSON logger on stderr for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// addConfigFlags registers the flags shared by commands that read config.
func addConfigFlags(cmd *cobra.Command, required bool) {
	usage := "path to config file"
	if required {
		usage += " (required)"
	}
	cmd.Flags().StringP("config", "c", "", usage)
	cmd.Flags().String("env-file", "", "load environment variables from this file before expanding the config (default .env if present)")
	if required {
		_ = cmd.MarkFlagRequired("config")
	}
}

// loadEnvFile loads the --env-file, or .env from the working directory when
// the flag is unset and the file exists.
func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		err := godotenv.Load(defaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// loadConfig loads the environment, then the config named by --config.
// Without --config, the defaults of an empty file are used.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := loadEnvFile(cmd); err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}
