package core

import (
	"context"
	"io"
	"time"

	"github.com/hermit-shells/hermit/internal/engine"
	"github.com/hermit-shells/hermit/internal/report"
	"github.com/hermit-shells/hermit/internal/rules"
	"github.com/hermit-shells/hermit/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config   = engine.Config
	Result   = engine.Result
	Finding  = types.Finding
	Severity = types.Severity
	RuleSet  = rules.RuleSet
	Rule     = rules.Rule
	// LoadError is returned for any rule document that cannot be loaded.
	LoadError = rules.LoadError
)

// LoadRules returns the built-in rule set, or only the rules in externalPath
// when it is not empty.
func LoadRules(externalPath string) (RuleSet, error) {
	return rules.NewLoader(nil).LoadDefault(externalPath)
}

// ParseRules compiles a rule document held in memory.
func ParseRules(name string, data []byte) (RuleSet, error) {
	return rules.NewLoader(nil).Load(rules.Document{Name: name, Data: data}, nil)
}

// Scan is the stable entrypoint for other programs.
func Scan(ctx context.Context, cfg Config, rs RuleSet) ([]Finding, error) {
	return engine.Scan(ctx, cfg, rs)
}

// ScanWithStats is Scan plus file counts and duration.
func ScanWithStats(ctx context.Context, cfg Config, rs RuleSet) (Result, error) {
	return engine.ScanWithStats(ctx, cfg, rs)
}

// ExitCode is 1 when findings reach the failOn severity, otherwise 0.
func ExitCode(findings []Finding, failOn string) int {
	return report.ExitCode(findings, failOn)
}

// WriteJSON writes the JSON report for a scan of dir.
func WriteJSON(w io.Writer, dir string, findings []Finding) error {
	return report.WriteJSON(w, report.NewJSONReport(dir, findings, time.Now()))
}

// WriteSARIF writes findings as a SARIF 2.1.0 document.
func WriteSARIF(w io.Writer, findings []Finding) error {
	return report.WriteSARIF(w, findings, report.SARIFOptions{})
}
