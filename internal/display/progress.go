package display

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether output to w should be colored: w must be
// stdout or stderr attached to a terminal and NO_COLOR must be unset.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint returns s wrapped in the given attributes when enabled
func paint(enabled bool, s string, attrs ...color.Attribute) string {
	if !enabled {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// ProgressIndicator prints "[N/Total] file" lines while files are converted
type ProgressIndicator struct {
	writer     io.Writer
	totalFiles int
	current    int
	failed     int
	color      bool
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		totalFiles: total,
		color:      ColorEnabled(w),
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "Converting %d %s:\n", p.totalFiles, plural(p.totalFiles, "file", "files"))
}

// Step displays progress for the current file: [N/Total] filename (cyan)
func (p *ProgressIndicator) Step(filename string) {
	p.current++
	line := fmt.Sprintf("  [%d/%d] %s", p.current, p.totalFiles, filepath.Base(filename))
	fmt.Fprintln(p.writer, paint(p.color, line, color.FgCyan))
}

// Fail marks the current file as failed
func (p *ProgressIndicator) Fail(err error) {
	p.failed++
	fmt.Fprintln(p.writer, paint(p.color, fmt.Sprintf("    ✗ %v", err), color.FgRed))
}

// Complete displays the closing line: a green check when every file
// converted, a red cross with the failure count otherwise
func (p *ProgressIndicator) Complete() {
	if p.failed == 0 {
		fmt.Fprintf(p.writer, "%s Converted %d %s\n", paint(p.color, "✓", color.FgGreen), p.totalFiles, plural(p.totalFiles, "file", "files"))
		return
	}
	fmt.Fprintf(p.writer, "%s Converted %d of %d %s (%d failed)\n",
		paint(p.color, "✗", color.FgRed), p.totalFiles-p.failed, p.totalFiles, plural(p.totalFiles, "file", "files"), p.failed)
}

// DisplaySingleFile shows a simple message for a single file
func DisplaySingleFile(w io.Writer, filename string) {
	fmt.Fprintf(w, "Converting %s...\n", filename)
}
