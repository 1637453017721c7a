package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// target is a regular file selected by Walk.
type target struct {
	path string
	size int64
}

// Walk traverses cfg.Root in lexical order and invokes handle for every
// regular file allowed by the glob filters, hidden files included. A root that
// is itself a symlink is followed; symlinks below it, directories and special
// files are never handed out. Paths passed to handle are prefixed by cfg.Root
// as given. Entries that cannot be read or stat'ed are skipped; only a bad
// root is an error.
func Walk(ctx context.Context, cfg Config, handle func(path string, size int64)) error {
	root, err := filepath.EvalSymlinks(cfg.Root)
	if err != nil {
		return fmt.Errorf("scan root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("scan root: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("scan root %s: not a directory", cfg.Root)
	}
	log := cfg.logger()
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Debug("skipping unreadable entry", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			log.Debug("skipping entry outside root", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Debug("skipping file without stat", zap.String("path", p), zap.Error(err))
			return nil
		}
		handle(filepath.Join(cfg.Root, rel), info.Size())
		return nil
	})
}

// CountTargets returns how many files a scan with cfg would consider,
// before the size gate is applied.
func CountTargets(ctx context.Context, cfg Config) (int, error) {
	n := 0
	err := Walk(ctx, cfg, func(string, int64) { n++ })
	return n, err
}
