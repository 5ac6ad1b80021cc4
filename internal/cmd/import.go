package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/models"
)

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file-or-directory>...",
		Short: "Store parsed sessions in the session catalog",
		Long: `Parse data files and store their sessions in the SQLite session catalog
($MPCDATA_HOME/sessions.db unless --db or store.db_path is set).

Re-importing a file replaces its sessions and keeps their ids. Sessions that
no longer exist in the file are removed from the catalog.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("db", "", "Path to the session catalog")
	cmd.Flags().BoolP("recursive", "r", false, "Scan directories recursively")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	files, err := resolveInputs(args, recursive)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log, closeLog := newLogger(cmd, cfg)
	defer closeLog()

	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	proc.store = st

	start := time.Now()
	var summary models.RunSummary
	for _, file := range files {
		result, _ := proc.processFile(cmd.Context(), file)
		summary.Add(result)
	}
	summary.Duration = time.Since(start)
	log.LogSummary(summary)

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s from %d %s into %s\n",
		summary.Sessions, plural(summary.Sessions, "session", "sessions"),
		summary.Files, plural(summary.Files, "file", "files"), st.Path())

	return summaryError("import", summary)
}
