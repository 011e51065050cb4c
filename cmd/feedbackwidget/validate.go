package main

import (
	"fmt"

	"github.com/spf13/cobra"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
	"github.com/jpalmerr/feedbackwidget/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a configuration file without starting the server.

This command parses the YAML, expands environment variables, validates all
fields, and builds the service once so option errors (an unusable trigger
icon, say) are caught too. It's useful for CI/CD pipelines or pre-deployment
checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  feedbackwidget validate -c feedbackwidget.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addConfigFlags(validateCmd, true)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	svc, err := feedbackwidget.New(config.BuildOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	guard := "on"
	if !cfg.GuardEnabled() {
		guard = "off"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:      %d\n", svc.Port())
	fmt.Fprintf(out, "  Tag:       <%s>\n", svc.TagName())
	fmt.Fprintf(out, "  Collector: %s\n", svc.Endpoint())
	fmt.Fprintf(out, "  Guard:     %s\n", guard)
	fmt.Fprintf(out, "  Pages:     %d\n", len(cfg.Pages))

	return nil
}
