package cmd

import (
	"github.com/spf13/cobra"
)

// reinstallCmd represents the reinstall command
var reinstallCmd = &cobra.Command{
	Use:   "reinstall",
	Short: "Reinstall every definition listed in tsd.json",
	Long: `Reinstall every definition listed in tsd.json, overwriting local copies.

Runs 'tsd reinstall --save --overwrite' in the project directory.`,
	Args: cobra.NoArgs,
	RunE: runReinstall,
}

func init() {
	rootCmd.AddCommand(reinstallCmd)
}

func runReinstall(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	result, err := a.orch.Reinstall(ctx, a.dir(), a.sink(cmd, "tsd reinstall"))

	return a.report(cmd, result, err)
}
