package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// lineReader yields physical lines with a one-line pushback buffer.
// It never seeks, so it works over pipes and stdin.
type lineReader struct {
	r       *bufio.Reader
	line    int    // number of the line most recently returned by next
	pending string // line pushed back by unread
	hasPend bool
	eof     bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// next returns the next line without its trailing newline.
// ok is false at end of input.
func (lr *lineReader) next() (text string, ok bool, err error) {
	if lr.hasPend {
		lr.hasPend = false
		lr.line++
		return lr.pending, true, nil
	}
	if lr.eof {
		return "", false, nil
	}

	s, err := lr.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		lr.eof = true
		if s == "" {
			return "", false, nil
		}
	}
	lr.line++
	return strings.TrimSuffix(s, "\n"), true, nil
}

// unread pushes text back so the following next returns it again.
// Only one line can be pending at a time.
func (lr *lineReader) unread(text string) {
	if lr.hasPend {
		panic("parser: unread called twice without next")
	}
	lr.pending = text
	lr.hasPend = true
	lr.line--
}

// lineNumber returns the 1-based number of the line most recently returned
func (lr *lineReader) lineNumber() int {
	return lr.line
}
