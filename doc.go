/*
Package twolc compiles two-level rule grammars into finite-state transducers.

A two-level grammar states correspondences between a lexical and a surface
string as rules over symbol pairs, each constrained by left and right
contexts. The compiler runs three stages: a preprocessor that expands sets,
definitions and rule variables, an alphabet resolver that closes the pair
alphabet, and the grammar compiler that builds one automaton per rule,
detects and resolves conflicts between rules and intersects the result.

# Grammar

	! a is realized as b after x, and only there
	Alphabet a:b ;
	Sets Vowel = a e ;
	Rules
	"a to b" a:b <=> x _ ;
	"no vowel deletion word-finally" Vowel:0 /<= _ .#. ;

Operators: => (only in context), <= (always in context), <=> (both) and
/<= (never in context).

# Usage

	c := twolc.New(twolc.WithStore(file.New("out")), twolc.WithDiagnostics(os.Stderr))
	status := c.Compile(ctx, twolc.FileSource("finnish.twolc"), domain.Config{})

	rules, err := c.CompileScriptAndGetStorableRules(ctx, "inline", text, domain.Config{})

A compile either succeeds completely or returns an error: a malformed rule or
an unresolved conflict never leaves a partial transducer in the store.
*/
package twolc
