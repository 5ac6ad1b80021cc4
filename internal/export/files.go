package export

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/harrison/mpcdata/internal/filelock"
	"github.com/harrison/mpcdata/internal/models"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutputName returns the file name for session n (1-based) of total
// sessions parsed from sourcePath. A single session keeps the source base
// name; several sessions get "_<n>_box<Box>" appended.
func OutputName(sourcePath string, n, total int, box models.Box, ext string) string {
	if total <= 1 {
		return baseName(sourcePath) + "." + ext
	}
	return SessionOutputName(sourcePath, n, box, ext)
}

// SessionOutputName names session n of sourcePath as "<base>_<n>_box<Box>.<ext>".
// The box part is left out when the box is empty.
func SessionOutputName(sourcePath string, n int, box models.Box, ext string) string {
	name := fmt.Sprintf("%s_%d", baseName(sourcePath), n)
	if b := unsafeNameChars.ReplaceAllString(box.String(), "_"); b != "" {
		name += "_box" + b
	}
	return name + "." + ext
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// WriteSession exports one session to path
func WriteSession(path string, s *models.Session, exp Exporter, overwrite bool) error {
	return writeOne(path, exp, []*models.Session{s}, overwrite)
}

// WriteFiles exports the sessions parsed from sourcePath into outDir and
// returns the written paths. Per-session formats get one file per session,
// the others one file for the whole source. An empty outDir means the
// directory of sourcePath.
func WriteFiles(sessions []*models.Session, sourcePath, outDir string, exp Exporter, overwrite bool) ([]string, error) {
	if len(sessions) == 0 {
		return nil, nil
	}
	if outDir == "" {
		outDir = filepath.Dir(sourcePath)
	}

	if !exp.PerSession() {
		path := filepath.Join(outDir, OutputName(sourcePath, 1, 1, models.Box{}, exp.Extension()))
		if err := writeOne(path, exp, sessions, overwrite); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	written := make([]string, 0, len(sessions))
	for i, s := range sessions {
		path := filepath.Join(outDir, OutputName(sourcePath, i+1, len(sessions), s.Box, exp.Extension()))
		if err := writeOne(path, exp, []*models.Session{s}, overwrite); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeOne(path string, exp Exporter, sessions []*models.Session, overwrite bool) error {
	err := filelock.WriteFile(path, overwrite, func(w io.Writer) error {
		return exp.Export(w, sessions)
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	return nil
}
