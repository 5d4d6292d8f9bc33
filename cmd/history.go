package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inovacc/tsdctl/internal/database"
	"github.com/inovacc/tsdctl/internal/tsd"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous tsd runs",
	Long: `Display the operations run through tsdctl, most recent first.

Examples:
  tsdctl history
  tsdctl history --limit 5 --items
  tsdctl history --operation update
  tsdctl history show 01J9Z3M4Q2T8V6X0B7C5D1E3F4`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with every resolved definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var (
	historyLimit     int
	historyItems     bool
	historyOperation string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of runs to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyItems, "items", false, "Show resolved definition files")
	historyCmd.Flags().StringVarP(&historyOperation, "operation", "o", "", "Only show runs of this operation (install, reinstall, update)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	operation := ""
	if historyOperation != "" {
		op, err := tsd.ParseOperation(historyOperation)
		if err != nil {
			return err
		}
		operation = op.String()
	}

	db, err := database.NewDatabase(ctx, cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	runs, err := db.ListRuns(ctx, operation, historyLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded")
		return nil
	}

	for _, run := range runs {
		op := run.Operation
		if run.Query != "" {
			op += " " + run.Query
		}

		cmd.Printf("%s  %s  %-28s %-12s %d item(s)  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			op,
			run.Outcome,
			len(run.Items),
			run.Dir,
		)

		if run.Outcome == database.OutcomeFinished && run.ExitCode != 0 {
			cmd.Printf("    exit code %d\n", run.ExitCode)
		}

		if run.Error != "" {
			cmd.Printf("    %s\n", strings.TrimSpace(run.Error))
		}

		if historyItems {
			for _, item := range run.Items {
				cmd.Printf("    - %s\n", item)
			}
		}
	}

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := ulid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	db, err := database.NewDatabase(ctx, cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	run, err := db.GetRun(ctx, id)
	if errors.Is(err, database.ErrRunNotFound) {
		return fmt.Errorf("no run with id %s", id)
	}
	if err != nil {
		return err
	}

	op := run.Operation
	if run.Query != "" {
		op += " " + run.Query
	}

	cmd.Printf("Run:       %s\n", run.ID)
	cmd.Printf("Operation: %s\n", op)
	cmd.Printf("Directory: %s\n", run.Dir)
	cmd.Printf("Outcome:   %s\n", run.Outcome)
	cmd.Printf("Exit code: %d\n", run.ExitCode)
	cmd.Printf("Started:   %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Duration:  %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	if run.Error != "" {
		cmd.Printf("Error:     %s\n", strings.TrimSpace(run.Error))
	}

	cmd.Println()
	cmd.Printf("%d definition(s) resolved\n", len(run.Items))

	for _, item := range run.Items {
		cmd.Printf("  - %s\n", item)
	}

	return nil
}
