package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/inovacc/tsdctl/internal/catalog"
	"github.com/inovacc/tsdctl/internal/storage"
	"github.com/spf13/cobra"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the catalog of known definition packages",
	Long: `Manage the local catalog used by the install picker.

The catalog is imported from the repository.json index published
for tsd and stored in the application directory.`,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <repository.json>",
	Short: "Replace the catalog with a repository index",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImport,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Fuzzy search the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSearch,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show one catalog entry",
	Long: `Show a catalog entry by its definition path, as printed by list
and search (for example jquery/jquery.d.ts).`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogShow,
}

var catalogLimit int

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd, catalogListCmd, catalogSearchCmd, catalogShowCmd)

	catalogCmd.PersistentFlags().IntVarP(&catalogLimit, "limit", "l", 0, "Maximum number of entries to show (0 = all)")
}

func openCatalog() (*storage.DB, error) {
	db, err := storage.Open(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	return db, nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	entries, err := catalog.LoadFile(osFs, source)
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.ReplaceEntries(source, entries); err != nil {
		return fmt.Errorf("failed to store catalog: %w", err)
	}

	logger.Info("catalog imported", "source", source, "entries", len(entries))
	cmd.Printf("Imported %d definitions from %s\n", len(entries), source)

	return nil
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	count, err := db.CountEntries()
	if err != nil {
		return err
	}

	if count == 0 {
		cmd.Println("Catalog is empty")
		cmd.Printf("Import one using: %s catalog import <repository.json>\n", cmd.Root().Name())
		return nil
	}

	entries, err := db.ListEntries(catalogLimit)
	if err != nil {
		return err
	}

	info, err := db.LastImport()
	if err != nil {
		return err
	}

	printEntries(cmd, entries)

	cmd.Println()
	cmd.Printf("Showing %d of %d definitions (imported %s from %s)\n",
		len(entries), count, info.ImportedAt.Local().Format("2006-01-02 15:04"), info.Source)

	return nil
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	entries, err := db.ListEntries(0)
	if err != nil {
		return err
	}

	matches := catalog.Search(entries, args[0])
	if len(matches) == 0 {
		cmd.Printf("No definitions match %q\n", args[0])
		return nil
	}

	if catalogLimit > 0 && len(matches) > catalogLimit {
		matches = matches[:catalogLimit]
	}

	printEntries(cmd, matches)

	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	entry, err := db.GetEntry(args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%q is not in the catalog, try: %s catalog search <term>", args[0], cmd.Root().Name())
	}
	if err != nil {
		return err
	}

	cmd.Printf("Name:     %s\n", entry.Name)
	cmd.Printf("Project:  %s\n", entry.Project)
	cmd.Printf("Path:     %s\n", entry.Path)

	if entry.Title != "" {
		cmd.Printf("Title:    %s\n", entry.Title)
	}
	if entry.Version != "" {
		cmd.Printf("Version:  %s\n", entry.Version)
	}
	if entry.ProjectURL != "" {
		cmd.Printf("URL:      %s\n", entry.ProjectURL)
	}

	cmd.Println()
	cmd.Printf("Install with: %s install %s\n", cmd.Root().Name(), entry.Name)

	return nil
}

func printEntries(cmd *cobra.Command, entries []catalog.Entry) {
	for _, e := range entries {
		cmd.Printf("  %s\n", e.DisplayName())

		if e.Path != "" {
			cmd.Printf("    %s\n", e.Path)
		}
	}
}
