package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/twolc/internal/cli"
	"github.com/aretw0/twolc/internal/presentation/tui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <grammar>",
	Short: "Print a compile report without storing anything",
	Long: `Compiles the grammar rule by rule and renders the alphabet, the rules
with their state counts and the detected conflicts as a report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		opts.Config.Store.Kind = "memory"
		compiler, closeFn, err := cli.NewCompiler(opts, cli.CreateLogger(opts.Debug))
		if err != nil {
			return err
		}
		defer closeFn()

		src, err := grammarSource(cmd, args[0])
		if err != nil {
			return err
		}
		rules, report, err := compiler.StorableRules(cmd.Context(), src, opts.Config.Compile)
		if err != nil {
			return err
		}
		return printReport(cmd, tui.ReportMarkdown(report, rules))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
