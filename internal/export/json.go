package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harrison/mpcdata/internal/models"
)

// JSONExporter writes all sessions of a source as a JSON array
type JSONExporter struct {
	Pretty bool // indent output
}

// SessionDocument is the JSON form of a session. Header values use the
// same formatting as the Header sheet.
type SessionDocument struct {
	Header     map[string]string    `json:"header"`
	StartedAt  string               `json:"started_at,omitempty"`
	Scalars    map[string]float64   `json:"scalars"`
	Arrays     map[string][]float64 `json:"arrays"`
	Issues     []string             `json:"issues,omitempty"`
	BoxNumeric bool                 `json:"box_numeric,omitempty"`
}

// NewSessionDocument converts a session for JSON output
func NewSessionDocument(s *models.Session) SessionDocument {
	doc := SessionDocument{
		Header:     make(map[string]string, len(models.HeaderLabels)),
		Scalars:    s.ScalarVars,
		Arrays:     s.ArrayVars,
		BoxNumeric: s.Box.Numeric,
	}
	for _, field := range s.HeaderFields() {
		doc.Header[field.Label] = field.Value
	}
	if !s.StartDateTime.IsZero() {
		doc.StartedAt = s.StartDateTime.Format("2006-01-02T15:04:05")
	}
	if doc.Scalars == nil {
		doc.Scalars = map[string]float64{}
	}
	if doc.Arrays == nil {
		doc.Arrays = map[string][]float64{}
	}
	for _, issue := range s.Issues {
		doc.Issues = append(doc.Issues, issue.Error())
	}
	return doc
}

// Extension returns "json"
func (je *JSONExporter) Extension() string { return FormatJSON }

// PerSession returns false
func (je *JSONExporter) PerSession() bool { return false }

// Export writes sessions as a JSON array
func (je *JSONExporter) Export(w io.Writer, sessions []*models.Session) error {
	docs := make([]SessionDocument, 0, len(sessions))
	for i, s := range sessions {
		if s == nil {
			return fmt.Errorf("session %d is nil", i)
		}
		docs = append(docs, NewSessionDocument(s))
	}

	enc := json.NewEncoder(w)
	if je.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
