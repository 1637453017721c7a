package types

import "strings"

// Severity is a coarse-grained risk level for a finding. Rule documents may
// carry any string here; only the three canonical values carry a rank.
type Severity string

const (
	SevLow  Severity = "LOW"
	SevMed  Severity = "MEDIUM"
	SevHigh Severity = "HIGH"
)

var severityRank = map[Severity]int{
	SevLow:  1,
	SevMed:  2,
	SevHigh: 3,
}

// Normalize returns the uppercase form of s with surrounding space removed.
func Normalize(s string) Severity {
	return Severity(strings.ToUpper(strings.TrimSpace(s)))
}

// Rank orders severities LOW < MEDIUM < HIGH as 1, 2, 3. Anything else,
// including the empty string, ranks 0. Comparison is case-insensitive.
func Rank(s Severity) int {
	return severityRank[Normalize(string(s))]
}

// Known reports whether s is one of the canonical severities.
func (s Severity) Known() bool { return Rank(s) > 0 }

func (s Severity) String() string { return string(s) }

// Finding describes one match of a rule's pattern at a file and line. Severity
// and Description are copied from the rule when the match is recorded.
type Finding struct {
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Match       string   `json:"match"`
	RuleID      string   `json:"rule_id"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}
