package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/inovacc/tsdctl/internal/database"
	"github.com/inovacc/tsdctl/internal/orchestrator"
	"github.com/inovacc/tsdctl/internal/storage"
	"github.com/inovacc/tsdctl/internal/tsd"
	"github.com/inovacc/tsdctl/internal/tui"
	"github.com/spf13/cobra"
)

// app owns the collaborators of one command invocation.
type app struct {
	orch    *orchestrator.Orchestrator
	catalog *storage.DB
	history *database.Database
	binary  string
	useTUI  bool
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	a := &app{useTUI: IsTUIEnabled()}

	catalogDB, err := storage.Open(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	a.catalog = catalogDB

	history, err := database.NewDatabase(ctx, cfg.HistoryPath)
	if err != nil {
		_ = catalogDB.Close()
		return nil, err
	}
	a.history = history

	runner := tsd.NewRunner(tsd.WithBinary(cfg.Binary), tsd.WithLogger(logger))
	a.binary = runner.Binary()

	opts := orchestrator.Options{
		Runner:   runner,
		Recorder: history,
		Catalog:  catalogDB,
		Interval: cfg.Interval,
		Logger:   logger,
	}

	if a.useTUI {
		opts.Confirmer = tui.NewConfirmer()
		opts.Picker = tui.NewPicker()
	} else {
		opts.Confirmer = &orchestrator.PromptConfirmer{
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
			AssumeYes: assumeYes,
		}
	}

	if assumeYes && a.useTUI {
		opts.Confirmer = yesConfirmer{notify: opts.Confirmer}
	}

	orch, err := orchestrator.New(opts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if err := orch.Init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.orch = orch

	return a, nil
}

// sink returns the output panel for an operation titled title.
func (a *app) sink(cmd *cobra.Command, title string) orchestrator.Sink {
	if a.useTUI {
		return tui.New(title, a.orch.Abort)
	}

	cmd.Println(title)

	return orchestrator.NewTextSink(cmd.OutOrStdout(), logger)
}

func (a *app) dir() string {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	return orchestrator.ResolveDir(osFs, workDir, cwd, home)
}

func (a *app) Close() error {
	if a.orch != nil {
		a.orch.Shutdown()
	}

	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	if a.catalog != nil {
		errs = append(errs, a.catalog.Close())
	}

	return errors.Join(errs...)
}

// report turns an operation result into command output.
func (a *app) report(cmd *cobra.Command, result orchestrator.Result, err error) error {
	if err != nil {
		if errors.Is(err, orchestrator.ErrToolMissing) {
			return fmt.Errorf("%w (%s): install it with 'npm install -g tsd' or set tsd.binary", err, a.binary)
		}
		return err
	}

	if !result.Confirmed {
		cmd.Println("Cancelled")
		return nil
	}

	cmd.Printf("%d definition(s) resolved\n", len(result.Items))

	return nil
}

// yesConfirmer skips questions but still shows notices.
type yesConfirmer struct {
	notify orchestrator.Confirmer
}

func (y yesConfirmer) Confirm(context.Context, string) (bool, error) {
	return true, nil
}

func (y yesConfirmer) Notify(ctx context.Context, message string) error {
	return y.notify.Notify(ctx, message)
}
