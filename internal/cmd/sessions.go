package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/config"
	"github.com/harrison/mpcdata/internal/display"
	"github.com/harrison/mpcdata/internal/export"
	"github.com/harrison/mpcdata/internal/models"
	"github.com/harrison/mpcdata/internal/store"
)

// shortIDLen is how many characters of a session id the list shows
const shortIDLen = 8

// NewSessionsCommand creates the 'mpcdata sessions' command group
func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse the session catalog",
		Long: `Commands for sessions stored with 'mpcdata import'.

Session ids may be shortened to any unique prefix.`,
	}

	cmd.PersistentFlags().String("db", "", "Path to the session catalog")

	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsShowCommand())
	cmd.AddCommand(newSessionsExportCommand())
	cmd.AddCommand(newSessionsDeleteCommand())

	return cmd
}

func newSessionsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
	cmd.Flags().String("subject", "", "Only sessions of this subject")
	cmd.Flags().String("source", "", "Only sessions imported from this data file")
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of sessions (0 = all)")
	return cmd
}

func newSessionsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, markdown")
	return cmd
}

func newSessionsExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export one stored session",
		Long: `Export a stored session with any exporter. The file is named after the
data file it was imported from: <file>_<n>_box<box>.<ext>.`,
		Args: cobra.ExactArgs(1),
		RunE: runSessionsExport,
	}
	cmd.Flags().StringP("out", "o", "", "Output directory (default: current directory)")
	cmd.Flags().StringP("format", "f", "", "Output format: xlsx, json, csv, markdown, html")
	cmd.Flags().Bool("overwrite", false, "Replace an existing output file")
	return cmd
}

func newSessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <data-file>",
		Short: "Remove every session imported from a data file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsDelete,
	}
}

// withStore loads the configuration and opens the catalog for fn
func withStore(cmd *cobra.Command, fn func(cfg *config.Config, st *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	if source != "" {
		if abs, err := filepath.Abs(source); err == nil {
			source = abs
		}
	}

	return withStore(cmd, func(_ *config.Config, st *store.Store) error {
		summaries, err := st.ListSessions(cmd.Context(), store.ListFilter{
			Subject:    subject,
			SourcePath: source,
			Limit:      limit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No sessions stored")
			return nil
		}

		table := display.NewTable("ID", "Subject", "Experiment", "Box", "Started", "MSN", "Scalars", "Arrays", "Source")
		for _, s := range summaries {
			started := ""
			if !s.StartedAt.IsZero() {
				started = s.StartedAt.Format("2006-01-02 15:04")
			}
			table.AddRow(
				shortID(s.ID),
				s.Subject,
				s.Experiment,
				s.Box,
				started,
				s.MSN,
				strconv.Itoa(s.ScalarCount),
				strconv.Itoa(s.ArrayCount),
				fmt.Sprintf("%s#%d", filepath.Base(s.SourcePath), s.SessionIndex+1),
			)
		}
		table.Render(out)
		return nil
	})
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")

	return withStore(cmd, func(_ *config.Config, st *store.Store) error {
		rec, err := st.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "text" || format == "" {
			fmt.Fprintf(out, "ID:       %s\n", rec.ID)
			fmt.Fprintf(out, "Source:   %s (session %d)\n", rec.SourcePath, rec.SessionIndex+1)
			fmt.Fprintf(out, "Imported: %s\n\n", rec.ImportedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return writeSessions(out, format, []*models.Session{rec.Session})
	})
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(cfg *config.Config, st *store.Store) error {
		rec, err := st.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		exp, err := export.NewExporter(cfg.Export.Format)
		if err != nil {
			return err
		}

		outDir := cfg.Export.OutputDir
		if outDir == "" {
			if outDir, err = os.Getwd(); err != nil {
				return err
			}
		}
		name := export.SessionOutputName(rec.SourcePath, rec.SessionIndex+1, rec.Session.Box, exp.Extension())
		path := filepath.Join(outDir, name)

		if err := export.WriteSession(path, rec.Session, exp, cfg.Export.Overwrite); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", shortID(rec.ID), path)
		return nil
	})
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	return withStore(cmd, func(_ *config.Config, st *store.Store) error {
		n, err := st.DeleteSource(cmd.Context(), source)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s of %s\n", n, plural(int(n), "session", "sessions"), source)
		return nil
	})
}
