// Package parser reads MED-PC data files into session records.
//
// A file is a sequence of lines: header lines ("Start Date: 01/30/19"),
// scalar lines ("A: 12.50"), array declarations ("B:") followed by indexed
// fragment lines ("     5:  1.000  2.000"), and blank lines that separate
// the sessions of a multi-box file. Each line is classified against a fixed,
// ordered rule table and dispatched by a small state machine that produces
// one models.Session per box.
package parser

import (
	"errors"
	"io"
	"os"

	"github.com/harrison/mpcdata/internal/models"
)

// Parser turns MED-PC data into sessions
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Options returns the parser configuration
func (p *Parser) Options() Options {
	return p.opts
}

// ParseFile is a convenience function that parses a file with default options
func ParseFile(path string) ([]*models.Session, error) {
	return NewParser(Options{}).ParseFile(path)
}

// ParseFile opens and parses the file at path. Errors carry the path.
func (p *Parser) ParseFile(path string) ([]*models.Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Kind: KindUnreadableFile, Path: path, Err: err}
	}
	defer file.Close()

	return p.parse(file, path)
}

// Parse reads sessions from r.
//
// The sessions are returned in file order. On a field error with StopOnError
// the sessions finished before the failing one are returned together with the
// error. With SkipSession every good session is returned and the errors of the
// dropped ones are joined. Read failures return no sessions.
func (p *Parser) Parse(r io.Reader) ([]*models.Session, error) {
	return p.parse(r, "")
}

func (p *Parser) parse(r io.Reader, path string) ([]*models.Session, error) {
	a := &assembler{
		opts: p.opts,
		path: path,
		lr:   newLineReader(r),
	}
	if p.opts.Layout != LayoutMulti {
		a.begin()
	}
	return a.run()
}

// assembler is the per-parse state machine. current is nil only in the
// NoActiveRecord state of the multi layout.
type assembler struct {
	opts Options
	path string
	lr   *lineReader

	sessions []*models.Session
	current  *models.Session
	seen     map[LineKind]bool // header kinds stored in current
	touched  bool              // current holds at least one stored line
	boundary bool              // auto layout: separator seen since the last stored line
	skipping bool              // SkipSession: discarding lines until the next separator
	errs     []error
}

func (a *assembler) run() ([]*models.Session, error) {
	for {
		text, ok, err := a.lr.next()
		if err != nil {
			return nil, &ParseError{Kind: KindUnreadableFile, Path: a.path, Line: a.lr.lineNumber() + 1, Err: err}
		}
		if !ok {
			break
		}

		line, matched := Classify(text)
		if !matched {
			continue
		}

		lineNo := a.lr.lineNumber()
		if err := a.dispatch(line); err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				return nil, &ParseError{Kind: KindUnreadableFile, Path: a.path, Line: a.lr.lineNumber() + 1, Err: err}
			}
			pe.at(a.path, lineNo)
			if a.opts.OnError == StopOnError {
				return a.sessions, pe
			}
			a.errs = append(a.errs, pe)
			a.drop(line)
		}
	}

	a.finish()
	return a.sessions, errors.Join(a.errs...)
}

func (a *assembler) dispatch(line Line) error {
	if line.Kind == LineSessionStart {
		a.separator()
		return nil
	}
	if a.skipping {
		a.resync(line)
		if a.skipping {
			return nil
		}
	}
	if line.Kind == LineArrayFragment {
		// a fragment with no preceding declaration belongs to nothing
		return nil
	}
	if a.current == nil {
		// content before the first separator of a multi-layout file
		a.begin()
	}
	if a.boundary && line.Kind.IsHeader() && a.seen[line.Kind] {
		a.finish()
		a.begin()
	}
	a.boundary = false

	if err := a.store(line); err != nil {
		return err
	}
	a.touched = true
	if line.Kind.IsHeader() {
		a.seen[line.Kind] = true
	}
	return nil
}

func (a *assembler) separator() {
	if a.skipping {
		switch a.opts.Layout {
		case LayoutMulti:
			a.skipping = false
			a.begin()
		case LayoutAuto:
			a.boundary = true
		}
		return
	}
	switch a.opts.Layout {
	case LayoutSingle:
	case LayoutMulti:
		if a.current == nil || a.touched {
			a.finish()
			a.begin()
		}
	default:
		if a.touched {
			a.boundary = true
		}
	}
}

func (a *assembler) store(line Line) error {
	s := a.current
	switch line.Kind {
	case LineStartDate, LineEndDate:
		d, err := ParseDate(line.Text)
		if err != nil {
			return err
		}
		if line.Kind == LineStartDate {
			s.StartDate = d
		} else {
			s.EndDate = d
		}
	case LineStartTime:
		t, err := ParseTime(line.Text)
		if err != nil {
			return err
		}
		s.StartTime = t
		if s.StartDate.IsZero() {
			s.Issues = append(s.Issues, &ParseError{
				Kind: KindMissingStartDate,
				Path: a.path,
				Line: a.lr.lineNumber(),
				Text: line.Text,
			})
			return nil
		}
		s.StartDateTime = t.On(s.StartDate)
	case LineEndTime:
		t, err := ParseTime(line.Text)
		if err != nil {
			return err
		}
		s.EndTime = t
	case LineSubject:
		s.Subject = line.Text
	case LineExperiment:
		s.Experiment = line.Text
	case LineGroup:
		s.Group = line.Text
	case LineBox:
		b, err := ParseBox(line.Text, a.opts.BoxMode)
		if err != nil {
			return err
		}
		s.Box = b
	case LineMSN:
		s.MSN = line.Text
	case LineScalar:
		v, err := ParseScalar(line.Text)
		if err != nil {
			return err
		}
		if err := claim(a.opts.NameConflict, line.Name, s.ArrayVars); err != nil {
			return err
		}
		s.ScalarVars[line.Name] = v
	case LineArrayStart:
		declared := a.lr.lineNumber()
		values, err := readArray(a.lr)
		if err != nil {
			return err
		}
		if err := claim(a.opts.NameConflict, line.Name, s.ScalarVars); err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = declared
			}
			return err
		}
		s.ArrayVars[line.Name] = values
	}
	return nil
}

// claim resolves a letter that already exists as the other variable kind
func claim[V any](policy ConflictPolicy, name string, other map[string]V) error {
	if _, exists := other[name]; !exists {
		return nil
	}
	if policy == ConflictReject {
		return newParseError(KindNameConflict, name, nil)
	}
	delete(other, name)
	return nil
}

// begin opens a fresh record
func (a *assembler) begin() {
	a.current = models.NewSession()
	a.seen = make(map[LineKind]bool)
	a.touched = false
	a.boundary = false
}

// finish hands the current record to the output, dropping empty ones
func (a *assembler) finish() {
	if a.current != nil && a.touched {
		a.sessions = append(a.sessions, a.current)
	}
	a.current = nil
}

// drop discards the current record after a field error. The header kinds
// it held, including the failing one, stay in seen for resync.
func (a *assembler) drop(failed Line) {
	if failed.Kind.IsHeader() {
		a.seen[failed.Kind] = true
	}
	a.current = nil
	a.skipping = true
	a.boundary = false
}

// resync ends skipping in the auto layout at the same boundary dispatch
// splits on: a separator followed by a header the dropped record already
// had, or by any header when it had none. Blank lines inside the dropped
// box keep it skipped.
func (a *assembler) resync(line Line) {
	if a.opts.Layout != LayoutAuto {
		return
	}
	if line.Kind.IsHeader() {
		if a.boundary && (len(a.seen) == 0 || a.seen[line.Kind]) {
			a.skipping = false
			a.begin()
			return
		}
		a.seen[line.Kind] = true
	}
	a.boundary = false
}
