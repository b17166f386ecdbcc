package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/testutils"
)

// resetFlags restores every flag of cmd and its children to its default,
// since the command tree is shared between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeGrammar(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestCompileCommand_WritesTransducer(t *testing.T) {
	path := writeGrammar(t, "g.twolc", testutils.Grammar)
	out := t.TempDir()

	stdout, err := execute(t, "compile", path, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "g (")
	assert.FileExists(t, filepath.Join(out, "g.att"))

	_, err = execute(t, "compile", path, "--out", out, "--format", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "g.json"))
}

func TestCompileCommand_GrammarErrorStatus(t *testing.T) {
	path := writeGrammar(t, "bad.twolc", "Alphabet a:b ;\nRules\n\"r\" a:b => [ x _ ;\n")

	_, err := execute(t, "compile", path, "--out", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, twolc.StatusError, twolc.Status(err))
}

func TestCompileCommand_Report(t *testing.T) {
	path := writeGrammar(t, "g.twolc", testutils.Grammar)

	stdout, err := execute(t, "compile", path, "--store", "memory", "--report")
	require.NoError(t, err)
	assert.Contains(t, stdout, "r1")
	assert.Contains(t, stdout, "r2")
}

func TestRulesCommand_WritesOnePerRule(t *testing.T) {
	path := writeGrammar(t, "g.twolc", testutils.Grammar)
	out := t.TempDir()

	_, err := execute(t, "rules", path, "--out", out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "r1.att"))
	assert.FileExists(t, filepath.Join(out, "r2.att"))
	assert.NoFileExists(t, filepath.Join(out, "g.att"))
}

func TestAlphabetCommand(t *testing.T) {
	path := writeGrammar(t, "g.twolc", testutils.Grammar)

	stdout, err := execute(t, "alphabet", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "a:b")
	assert.Contains(t, stdout, "non-alphabet: x")

	stdout, err = execute(t, "alphabet", path, "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"x"`)
}

func TestGraphCommand(t *testing.T) {
	path := writeGrammar(t, "g.twolc", testutils.Grammar)

	stdout, err := execute(t, "graph", path, "--path", "x:x a:b")
	require.NoError(t, err)
	assert.Contains(t, stdout, "graph LR")
	assert.Contains(t, stdout, "class s0 visited;")

	stdout, err = execute(t, "graph", path, "--rule", "r1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "r1 (")

	_, err = execute(t, "graph", path, "--rule", "nope")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "twolc version")
}
