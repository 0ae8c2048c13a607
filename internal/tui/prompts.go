package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInteractiveDisabled is returned when interactive prompts are disabled via REBASER_TEST_NO_INTERACTIVE
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (REBASER_TEST_NO_INTERACTIVE is set)")

// ErrCanceled is returned when the user leaves a prompt with Ctrl+C or Esc
var ErrCanceled = errors.New("canceled")

func checkInteractiveAllowed() error {
	if os.Getenv("REBASER_TEST_NO_INTERACTIVE") != "" {
		return ErrInteractiveDisabled
	}
	return nil
}

// textInputModel is a single line text prompt
type textInputModel struct {
	textInput textinput.Model
	prompt    string
	done      bool
	err       error
}

func (m textInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.err = ErrCanceled
			m.done = true
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m textInputModel) View() string {
	if m.done {
		return ""
	}
	return lipgloss.NewStyle().Margin(1, 0).
		Render(fmt.Sprintf("%s\n%s\n\n(Press Enter to submit, Ctrl+C to cancel)", m.prompt, m.textInput.View()))
}

// PromptTextInput prompts the user for a line of text
func PromptTextInput(prompt, defaultValue string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	ti := textinput.New()
	ti.SetValue(defaultValue)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 80

	p := tea.NewProgram(textInputModel{textInput: ti, prompt: prompt}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	model, err := p.Run()
	if err != nil {
		return "", err
	}

	if finalModel, ok := model.(textInputModel); ok {
		if finalModel.err != nil {
			return "", finalModel.err
		}
		return finalModel.textInput.Value(), nil
	}

	return "", fmt.Errorf("unexpected model type")
}

// SelectOption represents an option in a selection prompt
type SelectOption struct {
	Label string // What to show
	Value string // Value to return
}

// SelectModel is a selection prompt with arrow key navigation and type-to-filter
type SelectModel struct {
	Title    string
	Options  []SelectOption
	Filter   string
	Cursor   int
	Selected string
	Done     bool
	Err      error
}

// NewSelectModel creates a select model with the cursor on defaultIndex
func NewSelectModel(title string, options []SelectOption, defaultIndex int) SelectModel {
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}
	return SelectModel{Title: title, Options: options, Cursor: defaultIndex}
}

// Visible returns the options matching the current filter
func (m SelectModel) Visible() []SelectOption {
	if m.Filter == "" {
		return m.Options
	}
	filter := strings.ToLower(m.Filter)
	var out []SelectOption
	for _, opt := range m.Options {
		if strings.Contains(strings.ToLower(opt.Label), filter) ||
			strings.Contains(strings.ToLower(opt.Value), filter) {
			out = append(out, opt)
		}
	}
	return out
}

// Init initializes the bubbletea model
func (m SelectModel) Init() tea.Cmd {
	return nil
}

// Update handles message updates for the bubbletea model
func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	visible := m.Visible()
	switch key.Type {
	case tea.KeyEnter:
		if m.Cursor >= 0 && m.Cursor < len(visible) {
			m.Selected = visible[m.Cursor].Value
			m.Done = true
			return m, tea.Quit
		}
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Err = ErrCanceled
		m.Done = true
		return m, tea.Quit
	case tea.KeyUp, tea.KeyShiftTab:
		if m.Cursor > 0 {
			m.Cursor--
		} else {
			m.Cursor = len(visible) - 1
		}
	case tea.KeyDown, tea.KeyTab:
		if m.Cursor < len(visible)-1 {
			m.Cursor++
		} else {
			m.Cursor = 0
		}
	case tea.KeyBackspace:
		if len(m.Filter) > 0 {
			m.Filter = m.Filter[:len(m.Filter)-1]
			m.clampCursor()
		}
	case tea.KeyRunes:
		m.Filter += string(key.Runes)
		m.clampCursor()
	}
	return m, nil
}

func (m *SelectModel) clampCursor() {
	n := len(m.Visible())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// View renders the prompt
func (m SelectModel) View() string {
	if m.Done {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.Title))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(fmt.Sprintf("Filter: %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(m.Filter)))
	}
	b.WriteString("\n")

	visible := m.Visible()
	if len(visible) == 0 {
		b.WriteString(ColorDim("  no matches") + "\n")
	}
	for i, opt := range visible {
		if i == m.Cursor {
			b.WriteString(fmt.Sprintf("  → %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(opt.Label)))
		} else {
			b.WriteString(fmt.Sprintf("    %s\n", opt.Label))
		}
	}

	b.WriteString(ColorDim("\n(↑/↓ to select, type to filter, Enter to confirm, Ctrl+C to cancel)"))
	return lipgloss.NewStyle().Margin(1, 0).Render(b.String())
}

// PromptSelect prompts the user to select from a list of options
func PromptSelect(title string, options []SelectOption, defaultIndex int) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	p := tea.NewProgram(NewSelectModel(title, options, defaultIndex), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	model, err := p.Run()
	if err != nil {
		return "", err
	}

	if finalModel, ok := model.(SelectModel); ok {
		if finalModel.Err != nil {
			return "", finalModel.Err
		}
		return finalModel.Selected, nil
	}

	return "", fmt.Errorf("unexpected model type")
}
