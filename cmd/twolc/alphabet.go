package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/twolc/internal/cli"
)

var alphabetCmd = &cobra.Command{
	Use:   "alphabet <grammar>",
	Short: "Resolve the alphabet of a grammar",
	Long: `Runs the preprocessor and the alphabet resolver only and prints the
feasible pairs and the non-alphabet symbols. With --stage3 it prints the
normalized compiler input instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		compiler, closeFn, err := cli.NewCompiler(opts, cli.CreateLogger(opts.Debug))
		if err != nil {
			return err
		}
		defer closeFn()

		src, err := grammarSource(cmd, args[0])
		if err != nil {
			return err
		}
		a, input, err := compiler.Alphabet(cmd.Context(), src)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if stage3, _ := cmd.Flags().GetBool("stage3"); stage3 {
			fmt.Fprint(out, input)
			return nil
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		}
		pairs := make([]string, len(a.Total))
		for i, p := range a.Total {
			pairs[i] = p.String()
		}
		fmt.Fprintf(out, "pairs: %s\n", strings.Join(pairs, " "))
		syms := make([]string, len(a.NonAlphabet))
		for i, s := range a.NonAlphabet {
			syms[i] = string(s)
		}
		fmt.Fprintf(out, "non-alphabet: %s\n", strings.Join(syms, " "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(alphabetCmd)
	alphabetCmd.Flags().Bool("stage3", false, "Print the normalized compiler input")
	alphabetCmd.Flags().Bool("json", false, "Print the alphabet as JSON")
}
