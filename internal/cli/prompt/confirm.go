// Package prompt provides interactive terminal confirmations for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user interrupts a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// Stdin overrides the prompt input. Nil means the terminal.
var Stdin io.ReadCloser

// Confirm asks a yes/no question. Empty input selects defaultYes.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	p := promptui.Prompt{
		Label: fmt.Sprintf("%s [%s]", label, hint),
		Stdin: Stdin,
		Validate: func(input string) error {
			switch strings.ToLower(strings.TrimSpace(input)) {
			case "", "y", "yes", "n", "no":
				return nil
			}
			return errors.New("answer y or n")
		},
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, ErrAborted
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(result)) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmDanger requires the user to type confirmWord to proceed.
func ConfirmDanger(label, confirmWord string) (bool, error) {
	p := promptui.Prompt{
		Label: fmt.Sprintf("%s (type '%s' to confirm)", label, confirmWord),
		Stdin: Stdin,
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, ErrAborted
		}
		return false, err
	}
	return strings.TrimSpace(result) == confirmWord, nil
}

// ConfirmWithForce returns true without prompting when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}
