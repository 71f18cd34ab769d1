// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive prompts the install flow uses.
// Commands depend on the UI interface so tests can script answers without
// a terminal.
package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

// UI defines the interaction methods the install flow needs.
type UI interface {
	Confirm(title, description string, value *bool) error
	Input(title, placeholder string, value *string) error
}

// HuhUI implements UI with charmbracelet/huh forms.
type HuhUI struct {
	isTerminal func() bool
}

// runFormFunc is an indirection for tests.
var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhUI creates a HuhUI using the default terminal check.
func NewHuhUI() *HuhUI {
	return &HuhUI{
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
		},
	}
}

func (ui *HuhUI) runForm(form *huh.Form) error {
	if ui.isTerminal != nil && !ui.isTerminal() {
		return fmt.Errorf("interactive prompt requires a terminal (use flags to preset answers)")
	}

	err := runFormFunc(form)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}

// Confirm renders a yes/no prompt.
func (ui *HuhUI) Confirm(title, description string, value *bool) error {
	return ui.runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(value),
		),
	))
}

// Input renders a plain text input prompt.
func (ui *HuhUI) Input(title, placeholder string, value *string) error {
	return ui.runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(placeholder).
				Value(value),
		),
	))
}

// ScriptedUI answers prompts from preset values; used by tests and by the
// --yes non-interactive path.
type ScriptedUI struct {
	// ConfirmAnswer is returned for every Confirm prompt.
	ConfirmAnswer bool
	// Inputs maps prompt titles to preset answers. Missing titles keep the
	// value the caller passed in.
	Inputs map[string]string
}

func (s *ScriptedUI) Confirm(_, _ string, value *bool) error {
	*value = s.ConfirmAnswer
	return nil
}

func (s *ScriptedUI) Input(title, _ string, value *string) error {
	if v, ok := s.Inputs[title]; ok {
		*value = v
	}
	return nil
}
