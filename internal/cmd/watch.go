package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/mpcdata/internal/export"
	"github.com/harrison/mpcdata/internal/fileutil"
	"github.com/harrison/mpcdata/internal/logger"
	"github.com/harrison/mpcdata/internal/models"
	"github.com/harrison/mpcdata/internal/store"
	"github.com/harrison/mpcdata/internal/watcher"
)

const (
	// stableInterval is the first wait between size checks of a changed file
	stableInterval = 200 * time.Millisecond
	// stableTimeout bounds how long a file may keep growing before it is
	// converted anyway
	stableTimeout = 30 * time.Second
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Convert data files as MED-PC writes them",
		Long: `Watch a MED-PC data directory and convert every data file that is created
or changed, once it has been quiet for the debounce delay. Outputs are always
replaced, so each conversion reflects the latest state of the file.

With --import the sessions are also stored in the session catalog, and a
removed data file removes its sessions from the catalog.

Press Ctrl-C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().StringP("out", "o", "", "Output directory (default: next to each data file)")
	cmd.Flags().StringP("format", "f", "", "Output format: xlsx, json, csv, markdown, html")
	cmd.Flags().String("pattern", "", "Glob on file names to convert (default: watch.pattern)")
	cmd.Flags().Duration("debounce", 0, "Quiet period before a changed file is converted (default: watch.debounce)")
	cmd.Flags().Bool("import", false, "Also store sessions in the session catalog")
	cmd.Flags().String("db", "", "Path to the session catalog")
	cmd.Flags().BoolP("recursive", "r", false, "Watch subdirectories")
	cmd.Flags().Bool("initial", false, "Convert the existing files before watching")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("pattern") {
		cfg.Watch.Pattern, _ = cmd.Flags().GetString("pattern")
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Watch.Debounce, _ = cmd.Flags().GetDuration("debounce")
	}
	if cmd.Flags().Changed("import") {
		cfg.Watch.Import, _ = cmd.Flags().GetBool("import")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
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
	proc.overwrite = true

	var st *store.Store
	if cfg.Watch.Import {
		if st, err = openStore(cfg); err != nil {
			return err
		}
		defer st.Close()
		proc.store = st
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	scan := fileutil.DefaultScanOptions()
	scan.Pattern = cfg.Watch.Pattern
	scan.Recursive = recursive

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(args[0], scan, cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	if initial, _ := cmd.Flags().GetBool("initial"); initial {
		res, err := fileutil.ScanDirectory(w.RootDir(), scan)
		if err != nil {
			return err
		}
		for _, file := range res.Files {
			proc.processFile(ctx, file)
		}
	}

	log.LogInfo(fmt.Sprintf("watching %s for %q (debounce %s)", w.RootDir(), scan.Pattern, cfg.Watch.Debounce))
	summary := watchLoop(ctx, w, proc, st, log)
	log.LogSummary(summary)
	return nil
}

// watchLoop handles watcher events until ctx is done
func watchLoop(ctx context.Context, w *watcher.Watcher, proc *processor, st *store.Store, log logger.Logger) models.RunSummary {
	start := time.Now()
	var summary models.RunSummary
	for {
		select {
		case <-ctx.Done():
			summary.Duration = time.Since(start)
			return summary

		case err := <-w.Errors():
			log.LogWarn(fmt.Sprintf("watch error: %v", err))

		case ev := <-w.Events():
			switch ev.Op {
			case watcher.Changed:
				if err := watcher.WaitStable(ctx, ev.Path, stableInterval, stableTimeout); err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					if !errors.Is(err, watcher.ErrUnstable) {
						log.LogWarn(fmt.Sprintf("skipping %s: %v", ev.Path, err))
						continue
					}
					log.LogWarn(fmt.Sprintf("%s is still growing, converting anyway", ev.Path))
				}
				result, _ := proc.processFile(ctx, ev.Path)
				summary.Add(result)

			case watcher.Removed:
				log.LogInfo(fmt.Sprintf("%s removed", ev.Path))
				if st == nil {
					continue
				}
				n, err := st.DeleteSource(ctx, ev.Path)
				if err != nil {
					log.LogError(err.Error())
					continue
				}
				if n > 0 {
					log.LogInfo(fmt.Sprintf("removed %d catalog sessions of %s", n, ev.Path))
				}
			}
		}
	}
}
