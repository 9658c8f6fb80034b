package main

import (
	"os"

	"github.com/spf13/cobra"

	"jobassist-backend/internal/shared/config"
	"jobassist-backend/internal/shared/telemetry"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Parse résumés offline with the service pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			telemetry.Init(telemetry.Config{Level: level, Format: "console", Output: os.Stderr})
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline events to stderr")

	root.AddCommand(newParseCmd(config.Load), newTemplateCmd(config.Load))
	return root
}
