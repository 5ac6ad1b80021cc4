package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/config"
	"github.com/harrison/mpcdata/internal/export"
	"github.com/harrison/mpcdata/internal/fileutil"
	"github.com/harrison/mpcdata/internal/logger"
	"github.com/harrison/mpcdata/internal/models"
	"github.com/harrison/mpcdata/internal/parser"
	"github.com/harrison/mpcdata/internal/store"
)

// loadConfig loads the config file named by --config, or .mpcdata/config.yaml
// in the working directory, and applies the flags set on cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.MergeWithFlags(config.Flags{
		LogLevel:     changedString(cmd, "log-level"),
		LogDir:       changedString(cmd, "log-dir"),
		Layout:       changedString(cmd, "layout"),
		Box:          changedString(cmd, "box"),
		OnError:      changedString(cmd, "on-error"),
		NameConflict: changedString(cmd, "name-conflict"),
		Format:       changedString(cmd, "format"),
		OutputDir:    changedString(cmd, "out"),
		Overwrite:    changedBool(cmd, "overwrite"),
		DBPath:       changedString(cmd, "db"),
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// changedString returns the flag value only when it was set on the command line
func changedString(cmd *cobra.Command, name string) *string {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func changedBool(cmd *cobra.Command, name string) *bool {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// newLogger returns a console logger on stderr combined with a run log file.
// A run log that cannot be created is reported and skipped.
func newLogger(cmd *cobra.Command, cfg *config.Config) (logger.Logger, func()) {
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	logDir, err := cfg.GetLogDir()
	if err != nil {
		console.LogWarn(fmt.Sprintf("file logging disabled: %v", err))
		return console, func() {}
	}
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(logDir, cfg.LogLevel)
	if err != nil {
		console.LogWarn(fmt.Sprintf("file logging disabled: %v", err))
		return console, func() {}
	}
	console.LogDebug(fmt.Sprintf("run log: %s", fileLog.Path()))

	return logger.NewMultiLogger(console, fileLog), func() { fileLog.Close() }
}

// openStore opens the session catalog configured in cfg
func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := cfg.GetStorePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog path: %w", err)
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return st, nil
}

// resolveInputs expands the path arguments into data files
func resolveInputs(args []string, recursive bool) ([]string, error) {
	opts := fileutil.DefaultScanOptions()
	opts.Recursive = recursive

	res, err := fileutil.ResolveInputs(args, opts)
	if err != nil {
		return nil, err
	}
	if len(res.Files) == 0 {
		return nil, fmt.Errorf("no data files found in %v", args)
	}
	return res.Files, nil
}

// processor runs one data file through parsing and the optional export and
// catalog stages
type processor struct {
	parser    *parser.Parser
	exporter  export.Exporter // nil skips export
	outDir    string
	overwrite bool
	store     *store.Store // nil skips the catalog
	log       logger.Logger
}

func newProcessor(cfg *config.Config, log logger.Logger) (*processor, error) {
	opts, err := cfg.ParseOptions()
	if err != nil {
		return nil, err
	}
	return &processor{
		parser: parser.NewParser(opts),
		outDir: cfg.Export.OutputDir,
		log:    log,
	}, nil
}

// processFile parses path and feeds the sessions to the configured stages.
// Parse, export and catalog errors are joined into the result. Sessions of a
// file that failed to parse are exported but not imported.
func (p *processor) processFile(ctx context.Context, path string) (models.FileResult, []*models.Session) {
	start := time.Now()
	p.log.LogDebug(fmt.Sprintf("parsing %s", path))

	sessions, err := p.parser.ParseFile(path)
	parseFailed := err != nil
	var outputs []string

	if p.exporter != nil && len(sessions) > 0 {
		written, exportErr := export.WriteFiles(sessions, path, p.outDir, p.exporter, p.overwrite)
		outputs = written
		err = errors.Join(err, exportErr)
	}

	switch {
	case p.store == nil || len(sessions) == 0:
	case parseFailed:
		// A partial parse would prune or shift the entries of an earlier
		// clean import, so the catalog keeps its previous state.
		p.log.LogWarn(fmt.Sprintf("not importing %s: the file did not parse completely", path))
	default:
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			abs = path
		}
		records, storeErr := p.store.SaveSessions(ctx, abs, sessions)
		if storeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to import %s: %w", path, storeErr))
		} else {
			p.log.LogDebug(fmt.Sprintf("imported %d sessions from %s", len(records), path))
		}
	}

	result := models.NewFileResult(path, sessions, outputs, err, time.Since(start))
	p.log.LogFileResult(result)
	return result, sessions
}

// summaryError turns a run summary with failures into a command error
func summaryError(verb string, s models.RunSummary) error {
	if !s.HasFailures() {
		return nil
	}
	return fmt.Errorf("%s: %d of %d files had errors", verb, s.Partial+s.Failed, s.Files)
}
