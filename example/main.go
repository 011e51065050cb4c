package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
)

func main() {
	// start mock collector (see mock_collector.go)
	go StartMockCollector(":4000")
	time.Sleep(100 * time.Millisecond)

	svc, err := feedbackwidget.New(
		feedbackwidget.WithPort(8080),
		feedbackwidget.WithTitle("Feedback Widget Demo"),
		feedbackwidget.WithSubmitCallback(func(r feedbackwidget.SubmitResult) {
			if r.Outcome != feedbackwidget.OutcomeSubmitted {
				slog.Warn("feedback not delivered",
					"project_id", r.ProjectID,
					"outcome", r.Outcome.String(),
					"status_code", r.StatusCode,
				)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create feedback widget service", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Feedback Widget Demo                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║   Diagnostics: http://localhost:8080/api/diagnostics  ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Collector: mock on :4000, refuses 1 in 5            ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		slog.Error("feedback widget error", "error", err)
		os.Exit(1)
	}
}
