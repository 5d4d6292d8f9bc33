package tsd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/inovacc/tsdctl/pkg/exec"
)

const maxLineSize = 1024 * 1024

// Executable returns the tsd executable name for the given GOOS.
func Executable(goos string) string {
	if goos == "windows" {
		return "tsd.cmd"
	}

	return "tsd"
}

// Runner spawns tsd and translates its output into events.
type Runner struct {
	binary string
	env    []string
	logger *slog.Logger

	// prepended to the argument vector; lets tests re-exec the test binary
	prefixArgs []string
}

type Option func(*Runner)

// WithBinary overrides the executable name or path.
func WithBinary(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.binary = name
		}
	}
}

// WithEnv appends variables to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary: Executable(runtime.GOOS),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Binary returns the executable the runner spawns.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes req and blocks until the process is gone. emit receives zero
// or more ItemResolved events and then exactly one terminal event.
//
// If the executable cannot be found the only event is ToolMissing and Run
// returns nil. Any other start failure is returned without emitting events.
// Cancelling ctx kills the process, drops pending items, emits Aborted and
// returns the context error. The exit code is reported on Finished but is
// not treated as an error here.
func (r *Runner) Run(ctx context.Context, req Request, emit Sink) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if req.Dir != "" {
		info, err := os.Stat(req.Dir)
		if err != nil {
			return fmt.Errorf("invalid working directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("invalid working directory: %s is not a directory", req.Dir)
		}
	}

	args := append(slices.Clone(r.prefixArgs), req.Args()...)

	cmd := exec.CommandContext(ctx, req.Dir, r.binary, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	setProcAttr(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if r.isNotFound(err) {
			r.logger.Warn("tsd executable not found", "binary", r.binary, "error", err)
			emit(Event{Kind: ToolMissing})
			return nil
		}

		return fmt.Errorf("failed to start %s: %w", r.binary, err)
	}

	log := r.logger.With("operation", req.Operation.String(), "pid", cmd.Process.Pid)
	log.Debug("tsd started", "dir", req.Dir)

	drained := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			// a surviving child may still hold the pipes open
			_ = stdoutPipe.Close()
			_ = stderrPipe.Close()
		case <-drained:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		scanItems(ctx, stdoutPipe, emit, log)
	}()

	go func() {
		defer wg.Done()
		logLines(stderrPipe, log)
	}()

	wg.Wait()
	close(drained)

	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Info("tsd aborted", "error", ctxErr)
		emit(Event{Kind: Aborted})
		return ctxErr
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			log.Error("waiting for tsd failed", "error", waitErr)
			exitCode = -1
		}
	}

	log.Debug("tsd exited", "code", exitCode)
	emit(Event{Kind: Finished, ExitCode: exitCode})

	return nil
}

// Events runs req and yields its events as a finite sequence. A start or
// cancellation error is yielded last with a zero Event. Stopping the
// iteration early kills the process.
func (r *Runner) Events(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		events := make(chan Event)
		stop := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- r.Run(ctx, req, func(ev Event) {
				select {
				case events <- ev:
				case <-stop:
				}
			})
			close(events)
		}()

		for ev := range events {
			if !yield(ev, nil) {
				close(stop)
				cancel()
				for range events {
				}
				<-done
				return
			}
		}

		if err := <-done; err != nil {
			yield(Event{}, err)
		}
	}
}

func (r *Runner) isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Path == r.binary && errors.Is(pathErr.Err, fs.ErrNotExist)
	}

	return false
}

func scanItems(ctx context.Context, rd io.Reader, emit Sink, log *slog.Logger) {
	err := readLines(rd, log, func(line string) {
		// keep draining after cancellation so the process can exit
		if ctx.Err() != nil {
			return
		}

		for _, path := range ParseChunk(line) {
			emit(Event{Kind: ItemResolved, Path: path})
		}
	})
	if err != nil && !errors.Is(err, os.ErrClosed) {
		log.Warn("failed to read tsd output", "error", err)
	}

	_, _ = io.Copy(io.Discard, rd)
}

func logLines(rd io.Reader, log *slog.Logger) {
	err := readLines(rd, log, func(line string) {
		log.Debug("tsd stderr", "line", line)
	})
	if err != nil && !errors.Is(err, os.ErrClosed) {
		log.Debug("failed to read tsd stderr", "error", err)
	}

	_, _ = io.Copy(io.Discard, rd)
}

// readLines calls fn for every line of rd without its line ending. Lines
// longer than maxLineSize are logged and skipped; reading continues after
// them.
func readLines(rd io.Reader, log *slog.Logger, fn func(line string)) error {
	br := bufio.NewReaderSize(rd, 64*1024)

	var (
		line    []byte
		dropped int
	)

	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if dropped > 0 || len(line)+len(chunk) > maxLineSize {
			dropped += len(line) + len(chunk)
			line = line[:0]
		} else {
			line = append(line, chunk...)
		}

		if isPrefix {
			continue
		}

		if dropped > 0 {
			log.Warn("skipping over-long output line", "bytes", dropped)
			dropped = 0
			continue
		}

		fn(string(line))
		line = line[:0]
	}
}
