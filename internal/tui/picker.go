package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/tsdctl/internal/catalog"
)

const (
	defaultPickerWidth  = 80
	defaultPickerHeight = 20
)

type entryItem struct {
	entry catalog.Entry
}

func (i entryItem) Title() string       { return i.entry.Name }
func (i entryItem) Description() string { return i.entry.DisplayName() }
func (i entryItem) FilterValue() string { return i.entry.DisplayName() }

// PickerModel lists catalog entries with fuzzy filtering.
type PickerModel struct {
	list     list.Model
	selected *catalog.Entry
	quitting bool
}

func NewPickerModel(entries []catalog.Entry) PickerModel {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}

	l := list.New(items, list.NewDefaultDelegate(), defaultPickerWidth, defaultPickerHeight)
	l.Title = "Install type definitions"
	l.Styles.Title = TitleStyle
	l.SetStatusBarItemName("definition", "definitions")

	return PickerModel{list: l}
}

// Selected returns the chosen entry; ok is false if the picker was dismissed.
func (m PickerModel) Selected() (catalog.Entry, bool) {
	if m.selected == nil {
		return catalog.Entry{}, false
	}

	return *m.selected, true
}

// Init implements tea.Model
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(entryItem); ok {
				entry := item.entry
				m.selected = &entry
			}
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			m.quitting = true
			return m, tea.Quit
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

// View implements tea.Model
func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.NewStyle().Margin(1, 2).Render(m.list.View())
}

// Picker lets the user choose a catalog entry.
type Picker struct {
	opts []tea.ProgramOption
}

func NewPicker(opts ...tea.ProgramOption) *Picker {
	return &Picker{opts: opts}
}

func (p *Picker) Pick(ctx context.Context, entries []catalog.Entry) (catalog.Entry, bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, p.opts...)

	final, err := tea.NewProgram(NewPickerModel(entries), opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return catalog.Entry{}, false, ctxErr
		}
		return catalog.Entry{}, false, fmt.Errorf("picker failed: %w", err)
	}

	m, ok := final.(PickerModel)
	if !ok {
		return catalog.Entry{}, false, fmt.Errorf("unexpected picker model %T", final)
	}

	entry, ok := m.Selected()

	return entry, ok, nil
}
