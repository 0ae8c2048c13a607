package tui

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// PromptChoice asks the user to pick one of choices and returns the chosen string
func PromptChoice(message string, choices []string, defaultChoice string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	var answer string
	prompt := &survey.Select{
		Message: message,
		Options: choices,
		Default: defaultChoice,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", surveyError(err)
	}
	return answer, nil
}

// PromptConfirm asks a yes/no question
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return false, err
	}

	var answer bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, surveyError(err)
	}
	return answer, nil
}

func surveyError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCanceled
	}
	return err
}
