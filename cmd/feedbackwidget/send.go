package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
	"github.com/jpalmerr/feedbackwidget/config"
	"github.com/jpalmerr/feedbackwidget/internal/widget"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit feedback from the terminal",
	Long: `Submit one piece of feedback to the configured collector, using the same
validation rules as the browser form.

Values not given as flags are prompted for. With --no-input, missing values
are an error instead.

Example:
  feedbackwidget send -c feedbackwidget.yaml --project abc123
  feedbackwidget send --name Jo --email jo@x.com --message "Great!" --rating 4 --no-input`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addConfigFlags(sendCmd, false)

	f := sendCmd.Flags()
	f.String("project", "", "project id sent with the feedback")
	f.String("name", "", "your name")
	f.String("email", "", "your email address")
	f.String("message", "", "the feedback text")
	f.Int("rating", 0, "rating from 1 to 5")
	f.Bool("no-input", false, "fail instead of prompting for missing values")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	f := cmd.Flags()
	projectID, _ := f.GetString("project")
	noInput, _ := f.GetBool("no-input")

	fb := feedbackwidget.Feedback{}
	fb.Name, _ = f.GetString("name")
	fb.Email, _ = f.GetString("email")
	fb.Message, _ = f.GetString("message")
	fb.Rating, _ = f.GetInt("rating")

	if noInput {
		if fb.Rating == 0 {
			fb.Rating = widget.DefaultRating
		}
	} else if err := promptFeedback(newPrompter(), &fb); err != nil {
		return err
	}

	logger := newLogger(cfg.Level())
	opts := append(config.BuildOptions(cfg), feedbackwidget.WithLogger(logger))
	svc, err := feedbackwidget.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create feedback widget service: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Collector.SendTimeout.Duration())
	defer cancel()

	res, err := svc.SendFeedback(ctx, projectID, fb)
	if err != nil {
		var verr *feedbackwidget.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("feedback not delivered: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Feedback submitted (status %d, %s)\n",
		res.StatusCode, res.Latency.Round(time.Millisecond))
	return nil
}

// promptFeedback asks for every value still empty in fb.
func promptFeedback(p prompter, fb *feedbackwidget.Feedback) error {
	var err error
	if fb.Name == "" {
		if fb.Name, err = p.Input("Name", "", fieldValidator(widget.FieldName)); err != nil {
			return err
		}
	}
	if fb.Email == "" {
		if fb.Email, err = p.Input("Email", "", fieldValidator(widget.FieldEmail)); err != nil {
			return err
		}
	}
	if fb.Message == "" {
		msg := fmt.Sprintf("Feedback (no more than %d characters)", widget.MaxCharacters)
		if fb.Message, err = p.Multiline(msg, fieldValidator(widget.FieldFeedback)); err != nil {
			return err
		}
	}
	if fb.Rating == 0 {
		options := make([]string, widget.StarCount)
		for i := range options {
			options[i] = strconv.Itoa(i + 1)
		}
		answer, err := p.Select("Rating", options, strconv.Itoa(widget.DefaultRating))
		if err != nil {
			return err
		}
		if fb.Rating, err = strconv.Atoi(answer); err != nil {
			return fmt.Errorf("rating %q: %w", answer, err)
		}
	}
	return nil
}

// fieldValidator checks a single answer with the form's rule for field.
func fieldValidator(field string) func(string) error {
	return func(s string) error {
		v := widget.DefaultValues()
		switch field {
		case widget.FieldName:
			v.Name = s
		case widget.FieldEmail:
			v.Email = s
		case widget.FieldFeedback:
			v.Feedback = s
		}
		if msg, ok := widget.ValidateField(v, field)[field]; ok {
			return errors.New(msg)
		}
		return nil
	}
}
