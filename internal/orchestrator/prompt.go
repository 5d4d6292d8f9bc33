package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptConfirmer asks on a line-oriented terminal.
type PromptConfirmer struct {
	In        io.Reader
	Out       io.Writer
	AssumeYes bool

	reader *bufio.Reader
}

func (p *PromptConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	_, _ = fmt.Fprintf(p.Out, "%s [y/N]: ", message)

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *PromptConfirmer) Notify(_ context.Context, message string) error {
	_, err := fmt.Fprintln(p.Out, message)
	return err
}
