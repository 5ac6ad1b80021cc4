package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/display"
	"github.com/harrison/mpcdata/internal/models"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file-or-directory>...",
		Short: "Check that MED-PC data files parse cleanly",
		Long: `Parse data files without exporting anything and report, per file:
  - the number of sessions found
  - malformed dates, times, scalars, boxes and array fragments (with line numbers)
  - non-fatal issues such as a start time without a start date

Exit code: 0 if every file parsed, 1 if errors were found`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().BoolP("recursive", "r", false, "Scan directories recursively")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	files, err := resolveInputs(args, recursive)
	if err != nil {
		return err
	}

	log, closeLog := newLogger(cmd, cfg)
	defer closeLog()

	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	start := time.Now()
	var summary models.RunSummary
	for _, file := range files {
		result, sessions := proc.processFile(cmd.Context(), file)
		summary.Add(result)
		writeValidation(out, result)
		if issues := collectIssues(sessions); len(issues) > 0 {
			display.WarnSessionIssues(file, issues).Display(out)
		}
	}
	summary.Duration = time.Since(start)

	if !summary.HasFailures() {
		fmt.Fprintf(out, "\nAll %d %s valid (%d sessions)\n", summary.Files, plural(summary.Files, "file", "files"), summary.Sessions)
		return nil
	}
	return summaryError("validation failed", summary)
}

func writeValidation(w io.Writer, r models.FileResult) {
	mark := "✓"
	if r.Status != models.StatusOK {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s: %d %s\n", mark, r.Path, r.Sessions, plural(r.Sessions, "session", "sessions"))
	if r.Error != nil {
		for _, line := range strings.Split(r.Error.Error(), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
