package rules

import "fmt"

// LoadError reports why a rule document could not be turned into a RuleSet.
// Exactly one of Field, RuleID or Err describes the cause; Err is set for
// regex and parse failures as well.
type LoadError struct {
	// Source names the document: "default" or the external file path.
	Source string
	// Index is the zero-based record index, or -1 for document-level errors.
	Index  int
	Field  string
	RuleID string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s rules: missing required rule field %q in rule index %d", e.Source, e.Field, e.Index)
	case e.RuleID != "" || e.Index >= 0:
		return fmt.Sprintf("%s rules: invalid regex in rule %q: %v", e.Source, e.RuleID, e.Err)
	default:
		return fmt.Sprintf("failed to load %s rules: %v", e.Source, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }
