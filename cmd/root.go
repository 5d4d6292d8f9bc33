package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/inovacc/tsdctl/internal/config"
	"github.com/inovacc/tsdctl/pkg/exec"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	noTUI      bool
	debug      bool
	assumeYes  bool
	configFile string
	workDir    string
)

var (
	osFs     = afero.NewOsFs()
	settings = config.New(osFs)
	logger   = slog.Default()
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tsdctl",
	Short: "Install, update or reinstall TypeScript definitions with tsd",
	Long: `tsdctl is a terminal front-end for the tsd typings manager.

It runs tsd in your project, shows the definition files it installs
as they arrive, and keeps a searchable catalog of known packages.

Usage:
  tsdctl install [query]  - Install a definition and its dependencies
  tsdctl reinstall        - Reinstall every definition in tsd.json
  tsdctl update           - Update every definition in tsd.json
  tsdctl catalog <cmd>    - Import, list or search the package catalog
  tsdctl history          - Show previous runs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}

		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)

		loaded, err := config.Load(settings, configFile)
		if err != nil {
			return err
		}

		cfg = loaded
		exec.SetCommandDebug(cfg.Debug)

		return cfg.EnsureDirs(osFs)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&noTUI, "no-tui", false, "Disable TUI, use plain text output")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVar(&configFile, "config", "", "Config file (default is <appdir>/config.yaml)")
	flags.StringVarP(&workDir, "dir", "C", "", "Project directory (default: nearest directory with tsd.json)")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	cobra.CheckErr(settings.BindPFlag(config.KeyDebug, flags.Lookup("debug")))
}

// IsTUIEnabled returns whether the TUI should be used
// Returns false if --no-tui flag is set or if not running in a terminal
func IsTUIEnabled() bool {
	if noTUI {
		return false
	}

	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}
