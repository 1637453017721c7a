package hermit

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	flagNoColor bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the hermit CLI.
var rootCmd = &cobra.Command{
	Use:           "hermit",
	Short:         "Find dangling cloud resource references",
	Long:          "hermit scans a directory for references to cloud resources that could be taken over and gates CI on their severity.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the hermit CLI. It should be called by the main package.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
}
