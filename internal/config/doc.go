// Package config loads hermit configuration from local and global YAML files
// and HERMIT_* environment variables. The CLI layers flags on top; library
// packages never read configuration themselves.
package config
