package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/twolc/internal/cli"
	"github.com/aretw0/twolc/internal/presentation/graph"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <grammar>",
	Short: "Export a transducer as a Mermaid diagram",
	Long: `Compiles the grammar and prints the composed transducer, or the one of
--rule, as a Mermaid flowchart (graph LR). --path highlights the states
visited while reading a space separated list of pairs.`,
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

		var t *fst.Transducer
		if rule, _ := cmd.Flags().GetString("rule"); rule != "" {
			rules, _, err := compiler.StorableRules(cmd.Context(), src, opts.Config.Compile)
			if err != nil {
				return err
			}
			for _, r := range rules {
				if r.Name == rule {
					t = r
					break
				}
			}
			if t == nil {
				return fmt.Errorf("rule %q: %w", rule, domain.ErrTransducerNotFound)
			}
		} else {
			if t, _, err = compiler.CompileAndStore(cmd.Context(), src, opts.Config.Compile); err != nil {
				return err
			}
		}

		var overlay *graph.GraphOverlay
		if path, _ := cmd.Flags().GetString("path"); path != "" {
			overlay = &graph.GraphOverlay{}
			for _, tok := range strings.Fields(path) {
				p, err := domain.ParsePair(tok)
				if err != nil {
					return err
				}
				overlay.Path = append(overlay.Path, p)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(t, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("rule", "", "Draw the transducer of this rule instead of the composed one")
	graphCmd.Flags().String("path", "", `Pairs to highlight, e.g. "x a:b"`)
}
