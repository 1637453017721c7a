package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hermit-shells/hermit/internal/types"
)

// TimestampLayout is ISO-8601 in UTC with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// JSONReport is the document written by --json-out.
type JSONReport struct {
	ScannedDirectory string          `json:"scanned_directory"`
	Timestamp        string          `json:"timestamp"`
	Findings         []types.Finding `json:"findings"`
}

// NewJSONReport builds a report for dir stamped with now.
func NewJSONReport(dir string, findings []types.Finding, now time.Time) JSONReport {
	if findings == nil {
		findings = []types.Finding{} // no `null` in JSON
	}
	return JSONReport{
		ScannedDirectory: dir,
		Timestamp:        now.UTC().Format(TimestampLayout),
		Findings:         findings,
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r JSONReport) error {
	if r.Findings == nil {
		r.Findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteJSONFile writes r to path, replacing any existing file.
func WriteJSONFile(path string, r JSONReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, r) })
}
