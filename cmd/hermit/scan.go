package hermit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hermit-shells/hermit/internal/config"
	"github.com/hermit-shells/hermit/internal/engine"
	"github.com/hermit-shells/hermit/internal/logging"
	"github.com/hermit-shells/hermit/internal/report"
	"github.com/hermit-shells/hermit/internal/rules"
	"github.com/hermit-shells/hermit/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagCacheDir string
	flagRules    string
	flagJSONOut  string
	flagSARIFOut string
	flagFailOn   string
	flagThreads  int
	flagInclude  string
	flagExclude  string
	flagMaxBytes int64
	flagQuiet    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a directory for cloud resource takeover patterns",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "directory to scan")
	cmd.Flags().StringVar(&flagRules, "config", "", "external YAML rules file (replaces the built-in rules)")
	cmd.Flags().StringVar(&flagJSONOut, "json-out", "", "path to JSON output file")
	cmd.Flags().StringVar(&flagSARIFOut, "sarif-out", "", "path to SARIF output file")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "fail on severity level: HIGH | MEDIUM | LOW")
	cmd.Flags().IntVar(&flagThreads, "threads", 0, "files scanned concurrently (0 = sequential, -1 = GOMAXPROCS)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", engine.DefaultMaxBytes, "skip files larger than this")
	cmd.Flags().BoolVar(&flagQuiet, "quiet", false, "do not print the summary table")
	if err := cmd.MarkFlagRequired("cache-dir"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --cache-dir as required:", err)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	log := logging.New(flagVerbose, os.Stderr)
	defer func() { _ = log.Sync() }()
	log.Debug("logging configured", zap.Bool("verbose", flagVerbose))

	if err := requireDir(flagCacheDir); err != nil {
		return err
	}
	cwd, _ := os.Getwd()
	ly, err := loadLayers(cwd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fc := ly.merged()

	rulesPath := pickString(flagRules, fc.Rules)
	failOn := pickString(flagFailOn, fc.FailOn)
	if failOn != "" && !types.Severity(failOn).Known() {
		log.Warn("unrecognized --fail-on value; any scan will fail", zap.String("fail_on", failOn))
	}

	rs, err := loadRules(log, rulesPath, fc)
	if err != nil {
		return err
	}

	cfg := engine.Config{
		Root:         flagCacheDir,
		IncludeGlobs: pickString(flagInclude, fc.Include),
		ExcludeGlobs: pickString(flagExclude, fc.Exclude),
		MaxBytes:     pickInt64(flagMaxBytes, cmd.Flags().Changed("max-bytes"), fc.MaxBytes),
		Threads:      pickInt(flagThreads, cmd.Flags().Changed("threads"), fc.Threads),
		Logger:       log,
	}
	if err := engine.ValidateGlobs(cfg.IncludeGlobs); err != nil {
		return err
	}
	if err := engine.ValidateGlobs(cfg.ExcludeGlobs); err != nil {
		return err
	}

	log.Info("scanning directory", zap.String("dir", cfg.Root))
	res, err := engine.ScanWithStats(cmd.Context(), cfg, rs)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	for _, f := range res.Findings {
		log.Debug("finding",
			zap.String("file", f.File), zap.Int("line", f.Line), zap.String("match", f.Match),
			zap.String("rule", f.RuleID), zap.String("severity", string(f.Severity)))
	}
	if len(res.Findings) == 0 {
		log.Info("no potential issues found")
	} else {
		log.Info("found potential issues", zap.Int("count", len(res.Findings)))
	}

	if out := pickString(flagJSONOut, fc.JSONOut); out != "" {
		log.Info("writing JSON report", zap.String("path", out))
		doc := report.NewJSONReport(flagCacheDir, res.Findings, time.Now())
		if err := report.WriteJSONFile(out, doc); err != nil {
			return fmt.Errorf("json report: %w", err)
		}
	}
	if out := pickString(flagSARIFOut, fc.SARIFOut); out != "" {
		log.Info("writing SARIF report", zap.String("path", out))
		if err := report.WriteSARIFFile(out, res.Findings, sarifOptions(log, flagCacheDir)); err != nil {
			return fmt.Errorf("sarif report: %w", err)
		}
	}

	if !flagQuiet {
		opts := report.PrintOptions{
			NoColor:      colorDisabled(pickBool(flagNoColor, fc.NoColor), os.Stdout),
			Duration:     res.Duration,
			FilesScanned: res.FilesScanned,
			SkippedLarge: res.SkippedLarge,
		}
		if err := report.PrintSummary(cmd.OutOrStdout(), res.Findings, opts); err != nil {
			return err
		}
	}

	if code := report.ExitCode(res.Findings, failOn); code != 0 {
		log.Debug("severity threshold reached", zap.String("fail_on", failOn), zap.Int("highest_rank", report.HighestRank(res.Findings)))
		_ = log.Sync()
		os.Exit(code)
	}
	return nil
}

// loadRules loads the built-in rules, or only the rules in path when set.
func loadRules(log *zap.Logger, path string, fc config.FileConfig) (rules.RuleSet, error) {
	if path != "" {
		if err := requireFile(path); err != nil {
			return nil, err
		}
	}
	timeout, err := fc.Timeout()
	if err != nil {
		return nil, err
	}
	source := "no extra"
	if path != "" {
		source = "external"
	}
	log.Info("loading rules", zap.String("config", source))
	l := rules.NewLoader(log)
	l.MatchTimeout = timeout
	rs, err := l.LoadDefault(path)
	if err != nil {
		return nil, err
	}
	log.Debug("loaded rules", zap.Int("count", rs.Len()), zap.Strings("ids", rs.IDs()))
	return rs, nil
}

func sarifOptions(log *zap.Logger, dir string) report.SARIFOptions {
	opts := report.SARIFOptions{
		ToolVersion:    version,
		InformationURI: "https://github.com/hermit-shells/hermit",
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return opts
	}
	prov, err := report.DetectProvenance(abs)
	if err != nil {
		log.Debug("no version control provenance", zap.Error(err))
		return opts
	}
	opts.Provenance = prov
	return opts
}

func requireDir(path string) error {
	if path == "" {
		return fmt.Errorf("--cache-dir is required")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("--cache-dir: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("--cache-dir: %s is not a directory", path)
	}
	return nil
}

func requireFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("--config: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("--config: %s is a directory", path)
	}
	return nil
}
