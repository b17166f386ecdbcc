package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/cli"
	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/pkg/adapters/loam"
	"github.com/aretw0/twolc/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "twolc",
	Short: "twolc compiles two-level rule grammars into finite-state transducers",
	Long: `twolc reads a two-level rule grammar, resolves its alphabet, detects and
optionally resolves rule conflicts, and writes the compiled transducers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The exit status follows the compile status: 1 for grammar or I/O errors,
// 2 for faults of the automaton library.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(twolc.Status(err))
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", config.DefaultPath, "Configuration file (YAML or JSON)")
	pf.String("repo", "", "Read grammars by ID from this Loam repository instead of files")
	pf.Bool("debug", false, "Log lifecycle events to stderr")
	pf.BoolP("verbose", "v", false, "Print per-rule diagnostics")
	pf.BoolP("silent", "s", false, "Print warnings and errors only")
	pf.Bool("resolve-left", false, "Resolve left-arrow conflicts instead of failing")
	pf.Bool("resolve-right", false, "Resolve right-arrow conflicts instead of failing")
	pf.String("variant", "", "Automaton variant: other (default) or closed")
	pf.String("store", "", "Transducer store: file, memory or redis (overrides config)")
	pf.StringP("out", "o", "", "Output directory of the file store (overrides config)")
	pf.String("format", "", "Transducer format: att or json (overrides config)")
}

// loadOptions reads the configuration file and applies the flags over it.
func loadOptions(cmd *cobra.Command) (cli.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cli.Options{}, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetBool("verbose"); flags.Changed("verbose") {
		cfg.Compile.Verbose = v
	}
	if v, _ := flags.GetBool("silent"); flags.Changed("silent") {
		cfg.Compile.Silent = v
	}
	if v, _ := flags.GetBool("resolve-left"); flags.Changed("resolve-left") {
		cfg.Compile.ResolveLeftConflicts = v
	}
	if v, _ := flags.GetBool("resolve-right"); flags.Changed("resolve-right") {
		cfg.Compile.ResolveRightConflicts = v
	}
	if v, _ := flags.GetString("variant"); flags.Changed("variant") {
		cfg.Compile.Variant = domain.Variant(v)
	}
	if v, _ := flags.GetString("store"); flags.Changed("store") {
		cfg.Store.Kind = v
	}
	if v, _ := flags.GetString("out"); flags.Changed("out") {
		cfg.Store.Dir = v
	}
	if v, _ := flags.GetString("format"); flags.Changed("format") {
		cfg.Store.Format = v
	}
	if cfg.Compile, err = cfg.Compile.Normalize(); err != nil {
		return cli.Options{}, err
	}

	debug, _ := flags.GetBool("debug")
	return cli.Options{
		Config:      cfg,
		Debug:       debug,
		Diagnostics: cmd.ErrOrStderr(),
	}, nil
}

// openLoader opens the --repo repository, or returns nil without one.
func openLoader(cmd *cobra.Command) (*loam.Loader, error) {
	repo, _ := cmd.Flags().GetString("repo")
	if repo == "" {
		return nil, nil
	}
	return loam.Open(repo)
}

// grammarSource resolves a command argument: a grammar ID with --repo,
// "-" for standard input, or a file path.
func grammarSource(cmd *cobra.Command, arg string) (twolc.Source, error) {
	loader, err := openLoader(cmd)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		return twolc.LoaderSource(loader, arg), nil
	}
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read grammar from stdin: %w", err)
		}
		return twolc.ScriptSource("stdin", string(data)), nil
	}
	return twolc.FileSource(arg), nil
}
