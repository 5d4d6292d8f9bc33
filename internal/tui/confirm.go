package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel is a modal message with a row of buttons.
type ConfirmModel struct {
	message string
	buttons []string
	cursor  int
	chosen  int
}

func NewConfirmModel(message string, buttons ...string) ConfirmModel {
	if len(buttons) == 0 {
		buttons = []string{"Ok"}
	}

	return ConfirmModel{message: message, buttons: buttons, chosen: -1}
}

// Chosen returns the index of the pressed button, or -1 if dismissed.
func (m ConfirmModel) Chosen() int {
	return m.chosen
}

// Init implements tea.Model
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "left", "h", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l", "tab":
		if m.cursor < len(m.buttons)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.chosen = m.cursor
		return m, tea.Quit
	case "y":
		m.chosen = 0
		return m, tea.Quit
	case "n", "esc", "ctrl+c", "q":
		m.chosen = -1
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model
func (m ConfirmModel) View() string {
	buttons := make([]string, len(m.buttons))
	for i, label := range m.buttons {
		if i == m.cursor {
			buttons[i] = ActiveButtonStyle.Render(label)
		} else {
			buttons[i] = ButtonStyle.Render(label)
		}
	}

	return DialogStyle.Render(m.message+"\n\n"+strings.Join(buttons, " ")) + "\n"
}

// Confirmer asks questions with a modal dialog.
type Confirmer struct {
	opts []tea.ProgramOption
}

func NewConfirmer(opts ...tea.ProgramOption) *Confirmer {
	return &Confirmer{opts: opts}
}

// Confirm returns true when the first button ("Yes") is chosen.
func (c *Confirmer) Confirm(ctx context.Context, message string) (bool, error) {
	chosen, err := c.run(ctx, NewConfirmModel(message, "Yes", "Cancel"))
	return chosen == 0, err
}

// Notify shows message with a single "Ok" button.
func (c *Confirmer) Notify(ctx context.Context, message string) error {
	_, err := c.run(ctx, NewConfirmModel(message, "Ok"))
	return err
}

func (c *Confirmer) run(ctx context.Context, model ConfirmModel) (int, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, c.opts...)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, ctxErr
		}
		return -1, fmt.Errorf("dialog failed: %w", err)
	}

	m, ok := final.(ConfirmModel)
	if !ok {
		return -1, fmt.Errorf("unexpected dialog model %T", final)
	}

	return m.Chosen(), nil
}
