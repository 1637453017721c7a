// Package engine contains the core scanning logic for hermit. It walks a
// directory tree, decodes each eligible file, applies every rule to every
// line and returns findings in a deterministic order. This package is
// internal; external consumers should use the stable facade in pkg/core.
package engine
