package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
	"github.com/jpalmerr/feedbackwidget/config"
)

var renderCmd = &cobra.Command{
	Use:   "render [page.html]",
	Short: "Pre-render widgets into host pages",
	Long: `Mount a widget into every custom element of a host page and write the
result, so browsers with declarative shadow DOM show the widget before
widget.js runs.

With an argument, the page is read from that file ("-" for stdin) and
written to --output (stdout by default). Without one, every entry under
pages: in the config file is rendered.

Example:
  feedbackwidget render site/index.html -o dist/index.html
  feedbackwidget render -c feedbackwidget.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addConfigFlags(renderCmd, false)
	renderCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Level())
	opts := append(config.BuildOptions(cfg), feedbackwidget.WithLogger(logger))
	svc, err := feedbackwidget.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create feedback widget service: %w", err)
	}

	if len(args) == 1 {
		output, _ := cmd.Flags().GetString("output")
		n, err := renderOne(svc, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], output)
		if err != nil {
			return err
		}
		logger.Info("page rendered", "input", args[0], "widgets", n)
		return nil
	}

	if len(cfg.Pages) == 0 {
		return errors.New("no page given and no pages configured")
	}
	for i, p := range cfg.Pages {
		n, err := renderOne(svc, nil, nil, p.Input, p.Output)
		if err != nil {
			return fmt.Errorf("pages[%d]: %w", i, err)
		}
		logger.Info("page rendered", "input", p.Input, "output", p.Output, "widgets", n)
	}
	return nil
}

// renderOne renders input to output. "-" reads stdin; an empty output
// writes to stdout.
func renderOne(svc *feedbackwidget.Service, stdin io.Reader, stdout io.Writer, input, output string) (int, error) {
	var src io.Reader
	if input == "-" {
		if stdin == nil {
			return 0, errors.New("stdin is not available here")
		}
		src = stdin
	} else {
		data, err := os.ReadFile(input)
		if err != nil {
			return 0, fmt.Errorf("failed to read page: %w", err)
		}
		src = bytes.NewReader(data)
	}

	var buf bytes.Buffer
	n, err := svc.RenderPage(src, &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to render %s: %w", input, err)
	}

	if output == "" {
		if stdout == nil {
			return 0, errors.New("output path is required")
		}
		_, err := buf.WriteTo(stdout)
		return n, err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write page: %w", err)
	}
	return n, nil
}
