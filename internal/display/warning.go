package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, in yellow on a terminal
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		for _, line := range strings.Split(w.Message, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	fmt.Fprint(out, paint(ColorEnabled(out), b.String(), color.FgYellow))
}

// WarnExistingOutputs warns about export targets that were left untouched
func WarnExistingOutputs(files []string) Warning {
	return Warning{
		Title:      "Output files already exist",
		Files:      files,
		Suggestion: "Use --overwrite to replace them",
	}
}

// WarnSessionIssues lists the non-fatal issues found in a data file
func WarnSessionIssues(path string, issues []error) Warning {
	msgs := make([]string, len(issues))
	for i, err := range issues {
		msgs[i] = err.Error()
	}
	return Warning{
		Title:   fmt.Sprintf("%d %s in %s", len(issues), plural(len(issues), "issue", "issues"), path),
		Message: strings.Join(msgs, "\n"),
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
