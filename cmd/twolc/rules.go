package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/twolc/internal/cli"
	"github.com/aretw0/twolc/internal/presentation/tui"
)

var rulesCmd = &cobra.Command{
	Use:   "rules <grammar>",
	Short: "Compile a grammar into one transducer per rule",
	Long: `Compiles the grammar without composing it and saves one transducer per
rule, named after the rule, in the configured store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		logger := cli.CreateLogger(opts.Debug)
		compiler, closeFn, err := cli.NewCompiler(opts, logger)
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
		for _, t := range rules {
			if err := compiler.Store().Save(cmd.Context(), t); err != nil {
				return fmt.Errorf("failed to store rule transducer %q: %w", t.Name, err)
			}
		}

		if r, _ := cmd.Flags().GetBool("report"); r {
			return printReport(cmd, tui.ReportMarkdown(report, rules))
		}
		if !opts.Config.Compile.Silent {
			for _, t := range rules {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", t)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().Bool("report", false, "Print a compile report instead of the transducer summaries")
}
