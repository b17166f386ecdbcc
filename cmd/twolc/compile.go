package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/cli"
	"github.com/aretw0/twolc/internal/presentation/tui"
	"github.com/aretw0/twolc/pkg/fst"
)

var compileCmd = &cobra.Command{
	Use:   "compile <grammar>...",
	Short: "Compile grammars into composed transducers",
	Long: `Compiles each grammar into one transducer, the intersection of its rules,
and saves it in the configured store under the grammar's name.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
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

		report, _ := cmd.Flags().GetBool("report")
		compileOne := func(ctx context.Context, src twolc.Source) error {
			t, r, err := compiler.CompileAndStore(ctx, src, opts.Config.Compile)
			if err != nil {
				return err
			}
			if report {
				return printReport(cmd, tui.ReportMarkdown(r, []*fst.Transducer{t}))
			}
			if !opts.Config.Compile.Silent {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", t)
			}
			return nil
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		var errs []error
		for _, arg := range args {
			src, err := grammarSource(cmd, arg)
			if err == nil {
				err = compileOne(ctx, src)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", arg, err))
			}
		}

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			loader, err := openLoader(cmd)
			if err != nil {
				return err
			}
			if loader == nil {
				return errors.New("--watch requires --repo")
			}
			tui.PrintBanner(cmd.OutOrStdout())
			for _, err := range errs {
				cli.PrintSystemMessage(cmd.ErrOrStderr(), "%v", err)
			}
			return cli.RunWatch(ctx, loader, func(ctx context.Context, id string) error {
				return compileOne(ctx, twolc.LoaderSource(loader, id))
			}, cmd.OutOrStdout(), logger)
		}
		return errors.Join(errs...)
	},
}

func printReport(cmd *cobra.Command, markdown string) error {
	out, err := tui.NewRenderer()(markdown)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().Bool("report", false, "Print a compile report instead of the transducer summary")
	compileCmd.Flags().BoolP("watch", "w", false, "Recompile grammars of --repo when they change")
}
