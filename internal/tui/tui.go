package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI renders a tsd operation in the terminal. The program starts on Reset
// and exits on Complete, Fail or Close.
type TUI struct {
	title   string
	onAbort func()
	opts    []tea.ProgramOption

	mu      sync.Mutex
	program *tea.Program
	running bool
	done    chan struct{}
	final   Model
	err     error
}

// New creates a new TUI instance
func New(title string, onAbort func(), opts ...tea.ProgramOption) *TUI {
	return &TUI{
		title:   title,
		onAbort: onAbort,
		opts:    opts,
	}
}

// Reset starts a fresh program, stopping a previous one first.
func (t *TUI) Reset() {
	t.Close()

	t.mu.Lock()
	defer t.mu.Unlock()

	program := tea.NewProgram(NewModel(t.title, t.onAbort), t.opts...)
	done := make(chan struct{})

	t.program = program
	t.running = true
	t.done = done

	go func() {
		final, err := program.Run()

		t.mu.Lock()
		if m, ok := final.(Model); ok {
			t.final = m
		}
		t.err = err
		if t.program == program {
			t.running = false
		}
		t.mu.Unlock()

		close(done)
	}()
}

// AddOutput sends an output line to the TUI
func (t *TUI) AddOutput(line string) {
	t.send(OutputMsg{Line: line})
}

// SetStatus updates the status bar text
func (t *TUI) SetStatus(text string) {
	t.send(StatusMsg{Text: text})
}

// Complete shows message as the final status and waits for the program to exit.
func (t *TUI) Complete(message string) {
	t.finish(DoneMsg{Message: message})
}

// Fail shows err as the final status and waits for the program to exit.
func (t *TUI) Fail(err error) {
	t.finish(DoneMsg{Error: err})
}

// Close removes the panel and waits for the program to exit.
func (t *TUI) Close() {
	t.finish(CloseMsg{})
}

// Final returns the model the last program exited with and its error.
func (t *TUI) Final() (Model, error) {
	t.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.final, t.err
}

// Wait blocks until the current program has finished
func (t *TUI) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil && t.running {
		t.program.Send(msg)
	}
}

func (t *TUI) finish(msg tea.Msg) {
	t.mu.Lock()
	if t.program != nil && t.running {
		t.program.Send(msg)
		t.running = false
	}
	t.mu.Unlock()

	t.Wait()
}
