// Package core provides a small, stable facade over hermit's internal packages
// for external integrations. It re-exports a narrow API surface so other tools
// can depend on a stable import path without importing internal packages.
//
// Example:
//
//	rs, err := core.LoadRules("")
//	if err != nil { /* handle */ }
//	findings, err := core.Scan(ctx, core.Config{Root: ".cache"}, rs)
//	if err != nil { /* handle */ }
//	_ = core.WriteJSON(os.Stdout, ".cache", findings)
package core
