package cmd

import (
	"github.com/spf13/cobra"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update every definition listed in tsd.json",
	Long: `Update every definition listed in tsd.json to its latest revision.

Runs 'tsd update --save --overwrite' in the project directory.

Example:
  tsdctl update
  tsdctl update --yes --no-tui`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	result, err := a.orch.Update(ctx, a.dir(), a.sink(cmd, "tsd update"))

	return a.report(cmd, result, err)
}
