// Package rules loads takeover-detection rules from YAML documents and
// compiles them into an ordered, immutable RuleSet. A built-in default
// document is embedded; an external document, when supplied, replaces it
// wholesale rather than merging with it.
package rules
