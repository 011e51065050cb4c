package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
	"github.com/jpalmerr/feedbackwidget/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the widget, its script and the demo page",
	Long: `Start the feedback widget server.

The server will:
  - Load configuration from the specified YAML file
  - Serve widget.js, widget.css and a demo host page
  - Route widget events and post submissions to the collector

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  feedbackwidget serve -c feedbackwidget.yaml
  feedbackwidget serve --config /etc/feedbackwidget/config.yaml --env-file /etc/feedbackwidget/.env`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addConfigFlags(serveCmd, true)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Level())
	logger.Info("config loaded",
		"port", cfg.Port,
		"tag", cfg.TagName,
		"duplicate_guard", cfg.GuardEnabled(),
	)

	opts := append(config.BuildOptions(cfg), feedbackwidget.WithLogger(logger))
	svc, err := feedbackwidget.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create feedback widget service: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- svc.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
