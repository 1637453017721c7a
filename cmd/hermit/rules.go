package hermit

import (
	"os"

	"github.com/hermit-shells/hermit/internal/logging"
	"github.com/hermit-shells/hermit/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	var path string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Load, validate and list the active rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New(flagVerbose, os.Stderr)
			defer func() { _ = log.Sync() }()

			cwd, _ := os.Getwd()
			ly, err := loadLayers(cwd)
			if err != nil {
				return err
			}
			fc := ly.merged()
			rs, err := loadRules(log, pickString(path, fc.Rules), fc)
			if err != nil {
				return err
			}
			noColor := colorDisabled(pickBool(flagNoColor, fc.NoColor), os.Stdout)
			return report.PrintRules(cmd.OutOrStdout(), rs, noColor)
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "external YAML rules file (replaces the built-in rules)")
	rootCmd.AddCommand(cmd)
}
