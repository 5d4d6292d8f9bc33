// Package orchestrator sequences a tsd operation: confirmation, output sink,
// progress ticker, command run and history.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inovacc/tsdctl/internal/catalog"
	"github.com/inovacc/tsdctl/internal/database"
	"github.com/inovacc/tsdctl/internal/progress"
	"github.com/inovacc/tsdctl/internal/tsd"
	"github.com/oklog/ulid/v2"
)

// MissingToolMessage tells the user how to install tsd.
const MissingToolMessage = "TSD: It seems that you do not have installed TSD :(\n\nPlease install with:\n\n    npm install -g tsd"

var (
	ErrToolMissing    = errors.New("tsd is not installed")
	ErrBusy           = errors.New("another operation is running")
	ErrNotInitialized = errors.New("orchestrator not initialized")
	ErrShutdown       = errors.New("orchestrator shut down")
	ErrEmptyCatalog   = errors.New("catalog is empty, import one with 'catalog import'")
)

// ExitError reports a tsd run that finished with a non-zero exit code.
type ExitError struct {
	Operation tsd.Operation
	Code      int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("tsd %s exited with code %d", e.Operation, e.Code)
}

// CommandRunner executes a tsd request, see tsd.Runner.
type CommandRunner interface {
	Run(ctx context.Context, req tsd.Request, emit tsd.Sink) error
}

// Sink is the output panel of one operation.
type Sink interface {
	// Reset clears previous output and shows the sink.
	Reset()
	AddOutput(line string)
	SetStatus(text string)
	// Complete marks the operation done with a final status.
	Complete(message string)
	// Fail marks the operation done with an error.
	Fail(err error)
	// Close hides the sink without a final status.
	Close()
}

// Confirmer asks the user before an operation and shows notices.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Notify(ctx context.Context, message string) error
}

// Recorder stores finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run database.Run) (ulid.ULID, error)
}

// CatalogSource lists the known packages.
type CatalogSource interface {
	ListEntries(limit int) ([]catalog.Entry, error)
}

// Picker lets the user choose a catalog entry. ok is false when cancelled.
type Picker interface {
	Pick(ctx context.Context, entries []catalog.Entry) (entry catalog.Entry, ok bool, err error)
}

type Options struct {
	Runner    CommandRunner
	Confirmer Confirmer

	// optional
	Recorder Recorder
	Catalog  CatalogSource
	Picker   Picker
	Interval time.Duration
	Logger   *slog.Logger
}

// Result summarizes one operation.
type Result struct {
	Operation tsd.Operation
	Confirmed bool
	Query     string
	Items     []string
	Outcome   database.Outcome
	ExitCode  int
	RunID     ulid.ULID
}

// Orchestrator runs at most one operation at a time.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	shutdown    bool
	active      Sink
	cancel      context.CancelFunc
	idle        chan struct{}
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Runner == nil {
		return nil, errors.New("runner is required")
	}

	if opts.Confirmer == nil {
		return nil, errors.New("confirmer is required")
	}

	if opts.Interval <= 0 {
		opts.Interval = progress.DefaultInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		opts:   opts,
		logger: logger,
	}, nil
}

// Init makes the orchestrator ready to accept operations.
func (o *Orchestrator) Init(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.shutdown {
		return ErrShutdown
	}

	o.initialized = true
	o.logger.DebugContext(ctx, "orchestrator initialized")

	return nil
}

// Shutdown aborts the active operation, waits for it to return and rejects
// further operations. It is safe to call more than once.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.shutdown = true
	idle := o.idle
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Unlock()

	if idle != nil {
		<-idle
	}
}

// Abort cancels the active operation, if any. The process is killed and the
// operation returns context.Canceled.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
}

// Install installs query and its dependencies. An empty query lets the user
// pick one from the catalog.
func (o *Orchestrator) Install(ctx context.Context, dir, query string, sink Sink) (Result, error) {
	if query == "" {
		picked, ok, err := o.pick(ctx)
		if err != nil || !ok {
			return Result{Operation: tsd.Install}, err
		}

		query = picked
	}

	return o.execute(ctx, tsd.NewInstall(dir, query), sink)
}

func (o *Orchestrator) Reinstall(ctx context.Context, dir string, sink Sink) (Result, error) {
	return o.execute(ctx, tsd.NewReinstall(dir), sink)
}

func (o *Orchestrator) Update(ctx context.Context, dir string, sink Sink) (Result, error) {
	return o.execute(ctx, tsd.NewUpdate(dir), sink)
}

func (o *Orchestrator) pick(ctx context.Context) (string, bool, error) {
	if o.opts.Catalog == nil || o.opts.Picker == nil {
		return "", false, tsd.ErrMissingQuery
	}

	entries, err := o.opts.Catalog.ListEntries(0)
	if err != nil {
		return "", false, fmt.Errorf("failed to list catalog: %w", err)
	}

	if len(entries) == 0 {
		return "", false, ErrEmptyCatalog
	}

	entry, ok, err := o.opts.Picker.Pick(ctx, entries)
	if err != nil {
		return "", false, fmt.Errorf("failed to pick package: %w", err)
	}

	return entry.Name, ok, nil
}

func (o *Orchestrator) execute(ctx context.Context, req tsd.Request, sink Sink) (Result, error) {
	result := Result{Operation: req.Operation, Query: req.Query}

	if err := req.Validate(); err != nil {
		return result, err
	}

	if err := o.ready(); err != nil {
		return result, err
	}

	text := textsFor(req)

	ok, err := o.opts.Confirmer.Confirm(ctx, text.confirm)
	if err != nil {
		return result, fmt.Errorf("confirmation failed: %w", err)
	}

	if !ok {
		o.logger.Info("operation declined", "operation", req.Operation.String())
		return result, nil
	}

	result.Confirmed = true

	runCtx, err := o.begin(ctx, sink)
	if err != nil {
		return result, err
	}
	defer o.end()

	log := o.logger.With("operation", req.Operation.String(), "dir", req.Dir)

	sink.Reset()
	started := time.Now()

	ticker := progress.Start(text.waiting, sink.SetStatus, progress.WithInterval(o.opts.Interval))
	defer ticker.Stop()

	var terminal tsd.Event

	runErr := o.opts.Runner.Run(runCtx, req, func(ev tsd.Event) {
		if ev.Kind == tsd.ItemResolved {
			result.Items = append(result.Items, ev.Path)
			sink.AddOutput(ev.Path)
			return
		}

		ticker.Stop()
		terminal = ev
	})

	var opErr error

	switch {
	case terminal.Kind == tsd.ToolMissing:
		result.Outcome = database.OutcomeToolMissing
		sink.Close()
		log.Warn("tsd is not installed")

		if err := o.opts.Confirmer.Notify(ctx, MissingToolMessage); err != nil {
			log.Error("failed to show notice", "error", err)
		}

		opErr = ErrToolMissing

	case terminal.Kind == tsd.Aborted:
		result.Outcome = database.OutcomeAborted
		opErr = runErr
		if opErr == nil {
			opErr = context.Canceled
		}
		sink.Fail(opErr)

	case terminal.Kind == tsd.Finished && terminal.ExitCode != 0:
		result.Outcome = database.OutcomeFinished
		result.ExitCode = terminal.ExitCode
		opErr = &ExitError{Operation: req.Operation, Code: terminal.ExitCode}
		sink.Fail(opErr)

	case terminal.Kind == tsd.Finished:
		result.Outcome = database.OutcomeFinished
		sink.Complete(text.done)

	default:
		ticker.Stop()
		result.Outcome = database.OutcomeFailed
		opErr = runErr
		if opErr == nil {
			opErr = errors.New("tsd run ended without a terminal event")
		}
		sink.Fail(opErr)
	}

	log.Info("operation finished",
		"outcome", string(result.Outcome),
		"items", len(result.Items),
		"exit_code", result.ExitCode,
		"duration", time.Since(started),
	)

	result.RunID = o.record(ctx, req, result, opErr, started)

	return result, opErr
}

func (o *Orchestrator) ready() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.readyLocked()
}

// begin claims the single operation slot and detaches the previous sink.
func (o *Orchestrator) begin(ctx context.Context, sink Sink) (context.Context, error) {
	o.mu.Lock()

	if err := o.readyLocked(); err != nil {
		o.mu.Unlock()
		return nil, err
	}

	previous := o.active
	runCtx, cancel := context.WithCancel(ctx)
	o.active = sink
	o.cancel = cancel
	o.idle = make(chan struct{})
	o.mu.Unlock()

	// a sink may call Abort while closing
	if previous != nil && previous != sink {
		previous.Close()
	}

	return runCtx, nil
}

func (o *Orchestrator) readyLocked() error {
	switch {
	case o.shutdown:
		return ErrShutdown
	case !o.initialized:
		return ErrNotInitialized
	case o.cancel != nil:
		return ErrBusy
	}

	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancel()
	o.cancel = nil
	close(o.idle)
	o.idle = nil
}

func (o *Orchestrator) record(ctx context.Context, req tsd.Request, result Result, opErr error, started time.Time) ulid.ULID {
	if o.opts.Recorder == nil {
		return ulid.ULID{}
	}

	run := database.Run{
		Operation:  req.Operation.String(),
		Dir:        req.Dir,
		Query:      req.Query,
		Items:      result.Items,
		Outcome:    result.Outcome,
		ExitCode:   result.ExitCode,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	if opErr != nil {
		run.Error = opErr.Error()
	}

	id, err := o.opts.Recorder.RecordRun(context.WithoutCancel(ctx), run)
	if err != nil {
		o.logger.Error("failed to record run", "operation", req.Operation.String(), "error", err)
		return ulid.ULID{}
	}

	return id
}

type texts struct {
	confirm string
	waiting string
	done    string
}

func textsFor(req tsd.Request) texts {
	switch req.Operation {
	case tsd.Install:
		return texts{
			confirm: fmt.Sprintf("TSD: You really want to install the %q typing with all of its dependencies?", req.Query),
			waiting: "installing",
			done:    "All types have been installed!",
		}
	case tsd.Reinstall:
		return texts{
			confirm: "TSD: You really want to reinstall the typings?",
			waiting: "reinstalling",
			done:    "All types have been reinstalled!",
		}
	default:
		return texts{
			confirm: "TSD: You really want to update the typings?",
			waiting: "updating",
			done:    "All types have been updated!",
		}
	}
}
