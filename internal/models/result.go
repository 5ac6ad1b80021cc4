package models

import "time"

// File processing status constants
const (
	StatusOK      = "OK"      // every session parsed and exported
	StatusPartial = "PARTIAL" // some sessions were dropped or an export failed
	StatusFailed  = "FAILED"  // nothing usable came out of the file
)

// FileResult is the outcome of processing one data file
type FileResult struct {
	Path     string        // source file
	Status   string        // OK, PARTIAL or FAILED
	Sessions int           // sessions parsed
	Issues   int           // non-fatal issues attached to the sessions
	Outputs  []string      // files written
	Error    error         // parse or export error, may be joined
	Duration time.Duration // time spent on the file
}

// NewFileResult derives the status from the parse and export outcome
func NewFileResult(path string, sessions []*Session, outputs []string, err error, d time.Duration) FileResult {
	r := FileResult{
		Path:     path,
		Sessions: len(sessions),
		Outputs:  outputs,
		Error:    err,
		Duration: d,
	}
	for _, s := range sessions {
		r.Issues += len(s.Issues)
	}

	switch {
	case err == nil:
		r.Status = StatusOK
	case len(sessions) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
	return r
}

// RunSummary aggregates the results of one command run
type RunSummary struct {
	Files       int           // files processed
	Succeeded   int           // files with status OK
	Partial     int           // files with status PARTIAL
	Failed      int           // files with status FAILED
	Sessions    int           // sessions parsed over all files
	Outputs     int           // files written
	Duration    time.Duration // wall time of the run
	FailedFiles []FileResult  // results that were not OK
}

// Add folds a file result into the summary
func (s *RunSummary) Add(r FileResult) {
	s.Files++
	s.Sessions += r.Sessions
	s.Outputs += len(r.Outputs)
	switch r.Status {
	case StatusOK:
		s.Succeeded++
	case StatusPartial:
		s.Partial++
		s.FailedFiles = append(s.FailedFiles, r)
	default:
		s.Failed++
		s.FailedFiles = append(s.FailedFiles, r)
	}
}

// HasFailures reports whether any file was not fully processed
func (s *RunSummary) HasFailures() bool {
	return s.Partial > 0 || s.Failed > 0
}
