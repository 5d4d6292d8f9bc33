package orchestrator

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// TextSink writes operation output as plain lines. Status frames go to the
// logger only, so piped output stays clean.
type TextSink struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger
	status string
}

func NewTextSink(w io.Writer, logger *slog.Logger) *TextSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &TextSink{w: w, logger: logger}
}

func (s *TextSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = ""
}

func (s *TextSink) AddOutput(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.w, "  - %s\n", line)
}

func (s *TextSink) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = text
	s.logger.Debug("status", "text", text)
}

func (s *TextSink) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = message
	_, _ = fmt.Fprintln(s.w, message)
}

func (s *TextSink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = fmt.Sprintf("Error: %v", err)
	_, _ = fmt.Fprintln(s.w, s.status)
}

func (s *TextSink) Close() {}

// Status returns the last status text.
func (s *TextSink) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}
