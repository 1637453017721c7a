package hermit

import (
	"fmt"
	"os"
	"strings"

	"github.com/hermit-shells/hermit/internal/config"
	"github.com/hermit-shells/hermit/internal/engine"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgOutput   string
	cfgFailOn   string
	cfgRules    string
	cfgThreads  int
	cfgMaxBytes int64
	cfgNoColor  bool
	cfgForce    bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .hermit.yml with the current defaults",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "", "default severity gate: HIGH | MEDIUM | LOW")
	initCmd.Flags().StringVar(&cfgRules, "rules", "", "external rules file to use in place of the built-in rules")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "files scanned concurrently (0 = sequential)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", engine.DefaultMaxBytes, "skip files larger than this")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if !cfgForce {
		if _, err := os.Stat(cfgOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
		}
	}
	fc := config.FileConfig{
		Rules:    optStrPtr(cfgRules),
		FailOn:   optStrPtr(strings.ToUpper(cfgFailOn)),
		Threads:  intPtr(cfgThreads),
		MaxBytes: int64Ptr(cfgMaxBytes),
		NoColor:  boolPtr(cfgNoColor),
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
