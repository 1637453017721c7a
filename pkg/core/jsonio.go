package core

import (
	"encoding/json"
	"io"
)

// MarshalFindings pretty-prints findings as a bare JSON array.
func MarshalFindings(w io.Writer, findings []Finding) error {
	if findings == nil {
		findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

// UnmarshalFindings decodes a findings array or the findings of a full JSON
// report, useful for ingestion tests.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	var fs []Finding
	if err := json.Unmarshal(raw, &fs); err == nil {
		return fs, nil
	}
	var doc struct {
		Findings []Finding `json:"findings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.Findings, nil
}
