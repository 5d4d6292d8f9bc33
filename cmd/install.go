package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install [query]",
	Short: "Install a type definition with all of its dependencies",
	Long: `Install a type definition with tsd and save it to tsd.json.

Runs 'tsd query <query> --action install --save --resolve' in the
project directory. Without a query, a picker over the imported
catalog is shown (TUI only).

Examples:
  tsdctl install jquery
  tsdctl install angular-route --dir ./web
  tsdctl install`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	if query == "" && !a.useTUI {
		return fmt.Errorf("a query is required without the TUI")
	}

	title := "tsd install"
	if query != "" {
		title += " " + query
	}

	result, err := a.orch.Install(ctx, a.dir(), query, a.sink(cmd, title))

	return a.report(cmd, result, err)
}
