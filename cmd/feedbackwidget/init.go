package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
	"github.com/jpalmerr/feedbackwidget/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Ask a few questions and write a configuration file for serve.

The written file is parsed back before it is saved, so it always passes
validate. An existing file is only replaced with --force.

Example:
  feedbackwidget init
  feedbackwidget init -o /etc/feedbackwidget/config.yaml`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("output", "o", "feedbackwidget.yaml", "where to write the config")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", output)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", output, err)
		}
	}

	cfg, err := promptConfig(newPrompter())
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nRun: feedbackwidget serve -c %s\n", output, output)
	return nil
}

// promptConfig asks for the settings most deployments change.
func promptConfig(p prompter) (*config.Config, error) {
	cfg := &config.Config{}

	port, err := p.Input("HTTP port", "8080", func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 65535 {
			return errors.New("port must be a number between 1 and 65535")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cfg.Port, _ = strconv.Atoi(port)

	cfg.Collector.URL, err = p.Input("Collector URL", feedbackwidget.DefaultEndpoint, func(s string) error {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("enter an absolute http or https URL")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tag, err := p.Input("Custom element name", feedbackwidget.DefaultTagName, func(s string) error {
		_, err := feedbackwidget.New(feedbackwidget.WithTagName(s))
		return err
	})
	if err != nil {
		return nil, err
	}
	if tag != feedbackwidget.DefaultTagName {
		cfg.TagName = tag
	}

	cfg.Trigger.Label, err = p.Input("Trigger button label", "Feedback", nil)
	if err != nil {
		return nil, err
	}

	guard, err := p.Confirm("Disable the submit button while a submission is in flight?", true)
	if err != nil {
		return nil, err
	}
	if !guard {
		cfg.DuplicateGuard = &guard
	}

	cfg.LogLevel, err = p.Select("Log level", []string{"debug", "info", "warn", "error"}, "info")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
