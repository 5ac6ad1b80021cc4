package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for mpcdata
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mpcdata",
		Short: "Parse MED-PC data files and export them to spreadsheets",
		Long: `mpcdata reads the data files written by Med Associates MED-PC and
converts the sessions they contain into spreadsheets and reports.

A data file holds one or more sessions ("boxes"). Each session has a header
(start date, subject, box, program) plus scalar variables and arrays, which
are exported to an xlsx workbook with Header, ScalarVariables and
ArrayVariables sheets, or to json, csv, markdown or html.

Configuration is loaded from .mpcdata/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: .mpcdata/config.yaml)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-dir", "", "Directory for run log files (default: $MPCDATA_HOME/logs)")
	flags.String("layout", "", "Session layout: auto, multi, single")
	flags.String("box", "", "Box header handling: text, numeric")
	flags.String("on-error", "", "On a malformed session: stop, skip")
	flags.String("name-conflict", "", "Scalar and array sharing a letter: last-wins, reject")

	cmd.AddCommand(NewConvertCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewInspectCommand())
	cmd.AddCommand(NewImportCommand())
	cmd.AddCommand(NewSessionsCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
