package main

import (
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	taglog "github.com/davetashner/sessiontag/internal/log"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for sessiontag.
var rootCmd = &cobra.Command{
	Use:   "sessiontag",
	Short: "Classify session logs as Conversion or Drop-Off with validated LLM output",
	Long: `Sessiontag feeds captured session logs through an LLM and validates the
response against a strict "Tag: Conversion|Drop-Off [reason]" format. Invalid
answers are retried with corrective prompts; when retries are exhausted a
deterministic heuristic produces a conservative label, so every log ends up
with a well-formed verdict.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Best-effort: a missing .env is the normal case.
		_ = godotenv.Load()
		taglog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(tallyCmd)
	rootCmd.AddCommand(versionCmd)
}
