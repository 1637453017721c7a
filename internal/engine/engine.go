package engine

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/hermit-shells/hermit/internal/logging"
	"github.com/hermit-shells/hermit/internal/rules"
	"github.com/hermit-shells/hermit/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxBytes is the size above which a file is skipped unread.
const DefaultMaxBytes int64 = 50 << 20

// Config controls scanning scope and performance.
type Config struct {
	Root         string
	IncludeGlobs string
	ExcludeGlobs string
	// MaxBytes skips files strictly larger than this. Zero means DefaultMaxBytes.
	MaxBytes int64
	// Threads is the number of files scanned concurrently. Values below 2
	// scan sequentially; a negative value uses GOMAXPROCS.
	Threads int
	Logger  *zap.Logger
}

func (c Config) logger() *zap.Logger { return logging.OrNop(c.Logger) }

func (c Config) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

func (c Config) workers() int {
	if c.Threads < 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Threads
}

// Result contains findings and basic scan statistics.
type Result struct {
	Findings          []types.Finding
	FilesScanned      int
	SkippedLarge      int
	SkippedUnreadable int
	Duration          time.Duration
}

type outcome int

const (
	scanned outcome = iota
	skippedLarge
	skippedUnreadable
)

type fileResult struct {
	findings []types.Finding
	outcome  outcome
}

// Scan runs a scan and returns only findings (without stats).
func Scan(ctx context.Context, cfg Config, rs rules.RuleSet) ([]types.Finding, error) {
	res, err := ScanWithStats(ctx, cfg, rs)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats walks cfg.Root and applies rs to every line of every
// eligible file. Findings are ordered by walk order, then line, then rule
// order, then match position, whatever the worker count.
func ScanWithStats(ctx context.Context, cfg Config, rs rules.RuleSet) (Result, error) {
	var result Result
	log := cfg.logger()
	started := time.Now()

	var targets []target
	err := Walk(ctx, cfg, func(p string, size int64) {
		targets = append(targets, target{path: p, size: size})
	})
	if err != nil {
		return result, err
	}
	log.Debug("collected scan targets", zap.String("root", cfg.Root), zap.Int("files", len(targets)))

	results := make([]fileResult, len(targets))
	if n := cfg.workers(); n > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(n)
		for i, t := range targets {
			i, t := i, t
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = scanFile(t, cfg, rs, log)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}
	} else {
		for i, t := range targets {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			results[i] = scanFile(t, cfg, rs, log)
		}
	}

	out := []types.Finding{}
	for _, r := range results {
		switch r.outcome {
		case skippedLarge:
			result.SkippedLarge++
		case skippedUnreadable:
			result.SkippedUnreadable++
		default:
			result.FilesScanned++
		}
		out = append(out, r.findings...)
	}
	result.Findings = out
	result.Duration = time.Since(started)
	log.Info("scan complete",
		zap.String("root", cfg.Root),
		zap.Int("findings", len(out)),
		zap.Int("files", result.FilesScanned),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func scanFile(t target, cfg Config, rs rules.RuleSet, log *zap.Logger) fileResult {
	if t.size > cfg.maxBytes() {
		log.Debug("skipping large file", zap.String("path", t.path), zap.Int64("size", t.size))
		return fileResult{outcome: skippedLarge}
	}
	b, err := os.ReadFile(t.path)
	if err != nil {
		log.Debug("skipping unreadable file", zap.String("path", t.path), zap.Error(err))
		return fileResult{outcome: skippedUnreadable}
	}
	text, err := decode(b)
	if err != nil {
		log.Debug("skipping undecodable file", zap.String("path", t.path), zap.Error(err))
		return fileResult{outcome: skippedUnreadable}
	}
	return fileResult{findings: matchText(t.path, text, rs, log)}
}

// matchText applies rs to each line of text, attributing findings to path.
func matchText(path, text string, rs rules.RuleSet, log *zap.Logger) []types.Finding {
	var out []types.Finding
	eachLine(text, func(n int, line string) {
		for _, r := range rs {
			err := r.EachMatch(line, func(m string) {
				out = append(out, types.Finding{
					File:        path,
					Line:        n,
					Match:       m,
					RuleID:      r.ID(),
					Description: r.Description(),
					Severity:    r.Severity(),
				})
			})
			if err != nil {
				log.Debug("match aborted", zap.String("path", path), zap.Int("line", n), zap.String("rule", r.ID()), zap.Error(err))
			}
		}
	})
	return out
}
