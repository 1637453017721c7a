// Package hermit provides the command-line interface for the hermit scanner.
// It configures subcommands (scan, rules, ci, config), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/hermit-shells/hermit/cmd/hermit"
//	func main() { hermit.Execute() }
package hermit
