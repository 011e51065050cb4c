package main

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

var errAborted = errors.New("aborted")

// prompter asks the terminal user for values. Commands go through it so
// tests can script the answers.
type prompter interface {
	Input(message, def string, validate func(string) error) (string, error)
	Multiline(message string, validate func(string) error) (string, error)
	Select(message string, options []string, def string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// newPrompter is swapped out in tests.
var newPrompter = func() prompter { return surveyPrompter{} }

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out, validatorOpts(validate)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Multiline(message string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Multiline{Message: message}
	if err := survey.AskOne(prompt, &out, validatorOpts(validate)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	prompt := &survey.Select{Message: message, Options: options}
	if def != "" {
		prompt.Default = def
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func validatorOpts(validate func(string) error) []survey.AskOpt {
	if validate == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return fmt.Errorf("unexpected answer type %T", ans)
		}
		return validate(s)
	})}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
