package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/display"
	"github.com/harrison/mpcdata/internal/export"
	"github.com/harrison/mpcdata/internal/models"
	"github.com/harrison/mpcdata/internal/parser"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the sessions of a data file",
		Long: `Parse one MED-PC data file and print its sessions.

Output formats:
  text      header fields, scalars and an array preview (default)
  json      one document per session
  markdown  the markdown report`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, markdown")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.ParseOptions()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	sessions, parseErr := parser.NewParser(opts).ParseFile(args[0])

	// Sessions parsed before an error are still printed.
	if err := writeSessions(cmd.OutOrStdout(), format, sessions); err != nil {
		return err
	}
	if parseErr != nil {
		return parseErr
	}
	return nil
}

func writeSessions(w io.Writer, format string, sessions []*models.Session) error {
	switch strings.ToLower(format) {
	case "text", "":
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No sessions found")
			return nil
		}
		for i, s := range sessions {
			if i > 0 {
				fmt.Fprintln(w)
			}
			display.WriteSession(w, i+1, s)
		}
		return nil
	case export.FormatJSON:
		return (&export.JSONExporter{Pretty: true}).Export(w, sessions)
	case export.FormatMarkdown, "md":
		return (&export.MarkdownExporter{}).Export(w, sessions)
	default:
		return fmt.Errorf("unsupported output format %q (valid: text, json, markdown)", format)
	}
}
