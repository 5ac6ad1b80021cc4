package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludeExtensions are files mpcdata writes itself or that are never
// MED-PC data, so scanning an output directory does not feed them back in.
var DefaultExcludeExtensions = []string{
	".xlsx", ".xls", ".csv", ".json", ".md", ".html", ".db", ".db-wal", ".db-shm",
	".lock", ".log", ".yaml", ".yml", ".py", ".go",
}

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Pattern is a glob matched against the base name ("" or "*" matches all)
	Pattern string
	// ExcludeExtensions lists extensions to skip, case-insensitive
	ExcludeExtensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs lists directory names to skip
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
}

// DefaultScanOptions matches every file except mpcdata outputs
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Pattern:           "*",
		ExcludeExtensions: DefaultExcludeExtensions,
	}
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of matched files, sorted
	Files []string
	// Errors contains non-fatal errors hit while walking
	Errors []error
}

// Matcher decides whether a file name is a candidate data file
type Matcher struct {
	pattern string
	exclude map[string]bool
}

// NewMatcher validates the glob and builds the extension set
func NewMatcher(opts ScanOptions) (*Matcher, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	exclude := make(map[string]bool, len(opts.ExcludeExtensions))
	for _, ext := range opts.ExcludeExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exclude[strings.ToLower(ext)] = true
	}
	return &Matcher{pattern: pattern, exclude: exclude}, nil
}

// Match reports whether the base name of path is a data file candidate.
// Hidden files never match.
func (m *Matcher) Match(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if m.exclude[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	ok, _ := filepath.Match(m.pattern, name)
	return ok
}

// ScanDirectory scans a directory for files matching the provided options
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	matcher, err := NewMatcher(opts)
	if err != nil {
		return nil, err
	}

	excludeDirs := make(map[string]bool)
	for _, d := range opts.ExcludeDirs {
		excludeDirs[d] = true
	}

	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if excludeDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") || !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				rel, _ := filepath.Rel(dir, path)
				if strings.Count(rel, string(filepath.Separator))+1 >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !d.Type().IsRegular() || !matcher.Match(path) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", path, err))
			return nil
		}
		result.Files = append(result.Files, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	return result, nil
}

// ResolveInputs expands command-line arguments into data files. Files are
// taken as given, whatever their name; directories are scanned with opts.
// Duplicates are dropped and the original order of arguments is kept.
func ResolveInputs(args []string, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{
		Files:  make([]string, 0, len(args)),
		Errors: make([]error, 0),
	}
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result.Files = append(result.Files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", arg, err)
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve path %s: %w", arg, err)
			}
			add(abs)
			continue
		}

		scanned, err := ScanDirectory(arg, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range scanned.Files {
			add(f)
		}
		result.Errors = append(result.Errors, scanned.Errors...)
	}
	return result, nil
}
