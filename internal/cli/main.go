// Package cli implements the clipfeed command line.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:           "clipfeed",
		Short:         "Turn long videos into vertical short clips and publish them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&ctx.logFormat, "log-format", "", "Log format override (console, json)")

	root.AddCommand(newRunCommand(ctx))
	root.AddCommand(newAnalyzeCommand(ctx))
	root.AddCommand(newServeCommand(ctx))
	root.AddCommand(newRunsCommand(ctx))
	root.AddCommand(newConfigCommand(ctx))
	return root
}
