package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/display"
	"github.com/harrison/mpcdata/internal/export"
	"github.com/harrison/mpcdata/internal/filelock"
	"github.com/harrison/mpcdata/internal/models"
)

// NewConvertCommand creates the convert command
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file-or-directory>...",
		Short: "Convert MED-PC data files to spreadsheets",
		Long: `Parse MED-PC data files and export every session.

Directories are scanned for data files; exported outputs (.xlsx, .csv, .json,
...) and hidden files are skipped. xlsx and csv write one file per session,
named <file>_<n>_box<box>.<ext> when a file holds several sessions. json,
markdown and html write one report per data file.

Existing outputs are kept unless --overwrite is given.

Examples:
  mpcdata convert 2019-01-30_rat12.txt
  mpcdata convert data/ --out exports/ --format csv
  mpcdata convert data/ -r --overwrite
  mpcdata convert box1.txt --layout single --on-error skip`,
		Args: cobra.MinimumNArgs(1),
		RunE: runConvert,
	}

	cmd.Flags().StringP("out", "o", "", "Output directory (default: next to each data file)")
	cmd.Flags().StringP("format", "f", "", "Output format: xlsx, json, csv, markdown, html")
	cmd.Flags().Bool("overwrite", false, "Replace existing output files")
	cmd.Flags().BoolP("recursive", "r", false, "Scan directories recursively")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	files, err := resolveInputs(args, recursive)
	if err != nil {
		return err
	}

	exp, err := export.NewExporter(cfg.Export.Format)
	if err != nil {
		return err
	}

	log, closeLog := newLogger(cmd, cfg)
	defer closeLog()

	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	proc.exporter = exp
	proc.overwrite = cfg.Export.Overwrite

	out := cmd.OutOrStdout()
	progress := display.NewProgressIndicator(out, len(files))
	if len(files) == 1 {
		display.DisplaySingleFile(out, files[0])
	} else {
		progress.Start()
	}

	start := time.Now()
	var summary models.RunSummary
	var existing []string
	for _, file := range files {
		if len(files) > 1 {
			progress.Step(file)
		}
		result, sessions := proc.processFile(cmd.Context(), file)
		summary.Add(result)

		if result.Error != nil {
			if errors.Is(result.Error, filelock.ErrExists) {
				existing = append(existing, file)
			}
			if len(files) > 1 {
				progress.Fail(result.Error)
			}
		}
		if issues := collectIssues(sessions); len(issues) > 0 {
			display.WarnSessionIssues(file, issues).Display(out)
		}
	}
	summary.Duration = time.Since(start)

	if len(files) > 1 {
		progress.Complete()
	}
	if len(existing) > 0 {
		display.WarnExistingOutputs(existing).Display(out)
	}
	log.LogSummary(summary)

	return summaryError("convert", summary)
}

func collectIssues(sessions []*models.Session) []error {
	var issues []error
	for i, s := range sessions {
		for _, issue := range s.Issues {
			issues = append(issues, fmt.Errorf("session %d: %w", i+1, issue))
		}
	}
	return issues
}
