package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultMaxLines = 15
)

// Model is the output panel of one tsd operation.
type Model struct {
	spinner  spinner.Model
	title    string
	lines    []string
	total    int
	maxLines int
	status   string
	message  string
	done     bool
	closed   bool
	aborting bool
	err      error
	onAbort  func()
	width    int
	height   int
}

// NewModel creates a new output panel. onAbort is called once when the user
// presses ctrl+c or q while the operation runs; it may be nil.
func NewModel(title string, onAbort func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TitleStyle

	return Model{
		spinner:  s,
		title:    title,
		maxLines: defaultMaxLines,
		status:   "starting...",
		onAbort:  onAbort,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.done || m.closed {
				return m, tea.Quit
			}
			if m.onAbort == nil {
				return m, nil
			}
			if !m.aborting {
				m.aborting = true
				return m, func() tea.Msg { return abortMsg{} }
			}
		}

	case abortMsg:
		m.onAbort()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case OutputMsg:
		m.addLine(msg.Line)

	case StatusMsg:
		if !m.done {
			m.status = msg.Text
		}

	case DoneMsg:
		m.done = true
		m.err = msg.Error
		m.message = msg.Message
		return m, tea.Quit

	case CloseMsg:
		m.closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// addLine adds an output line and keeps only the most recent ones
func (m *Model) addLine(text string) {
	m.total++
	m.lines = append(m.lines, text)
	if len(m.lines) > m.maxLines {
		m.lines = m.lines[1:]
	}
}

// Lines returns the visible output lines.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Err returns the error the operation finished with.
func (m Model) Err() error {
	return m.err
}

// View implements tea.Model
func (m Model) View() string {
	if m.closed {
		return ""
	}

	var b strings.Builder

	switch {
	case !m.done:
		b.WriteString(m.spinner.View())
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("x"))
	default:
		b.WriteString(SuccessStyle.Render("*"))
	}

	b.WriteString(" ")
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	if hidden := m.total - len(m.lines); hidden > 0 {
		b.WriteString(ItemStyle.Render("  ..."))
		b.WriteString("\n")
	}

	for _, line := range m.lines {
		b.WriteString("  ")
		b.WriteString(ItemStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
	case m.done:
		b.WriteString(SuccessStyle.Render(m.message))
	case m.aborting:
		b.WriteString(WarningStyle.Render("aborting..."))
	default:
		b.WriteString(StatusStyle.Render(m.status))
	}

	b.WriteString("\n")

	return b.String()
}
