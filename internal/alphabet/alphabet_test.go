package alphabet_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/twolc/internal/alphabet"
	"github.com/aretw0/twolc/internal/preprocess"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, src string) *alphabet.Resolver {
	t.Helper()
	out, err := preprocess.New(nil).Run("g", strings.NewReader(src))
	require.NoError(t, err)
	r := alphabet.New(nil)
	require.NoError(t, r.Resolve("g", out.Stream))
	r.Complete()
	return r
}

func TestSingleRuleAlphabet(t *testing.T) {
	r := resolve(t, `Rules "r1" a:b => x _ y ;`)
	assert.Equal(t, []domain.Pair{{Lex: "a", Surf: "b"}, domain.Identity("a"), domain.Identity("b")}, r.TotalAlphabet())
	assert.Equal(t, []domain.Symbol{"x", "y"}, r.NonAlphabet())
	assert.Equal(t, "Alphabet a:b a:a b:b ;\nNonAlphabet x y ;\nRules\n\"r1\" a:b => x _ y ;\n", r.Serialize())
}

func TestEmptyAlphabet(t *testing.T) {
	r := resolve(t, "")
	assert.Empty(t, r.TotalAlphabet())
	assert.Empty(t, r.NonAlphabet())
	assert.Equal(t, "Alphabet ;\nNonAlphabet ;\nRules\n", r.Serialize())
}

func TestClosure(t *testing.T) {
	r := resolve(t, `
Alphabet k g ;
Sets V = a e ;
Rules
"del" V:0 <=> _ .#. ;
"part" a:? => :u _ k ;
"ctx" k:g <= [ a | e ] _ z:z ;
`)
	total := r.TotalAlphabet()
	syms := map[domain.Symbol]bool{}
	seen := map[domain.Pair]bool{}
	for _, p := range total {
		assert.False(t, seen[p], "duplicate pair %s", p)
		seen[p] = true
		syms[p.Lex], syms[p.Surf] = true, true
	}
	// every pair symbol has its identity, except epsilon
	for s := range syms {
		if s != domain.Epsilon {
			assert.True(t, seen[domain.Identity(s)], "missing %s:%s", s, s)
		}
	}
	for _, s := range []domain.Symbol{"a", "e", "k", "g", "u", "z"} {
		assert.True(t, syms[s], "symbol %s missing from total alphabet", s)
	}
	assert.False(t, seen[domain.Identity(domain.Epsilon)])

	bare := r.NonAlphabet()
	assert.Equal(t, []domain.Symbol{"k", "a", "e"}, bare)
}

func TestCompleteIsIdempotent(t *testing.T) {
	r := resolve(t, `Rules "r" a:b => _ ;`)
	before := r.TotalAlphabet()
	r.Complete()
	assert.Equal(t, before, r.TotalAlphabet())
}

func TestMalformedStream(t *testing.T) {
	cases := map[string]string{
		"missing header":   "Rules\n",
		"no rules header":  "Alphabet a ;\n\"r\" a:b => _ ;\n",
		"no operator":      "Alphabet ;\nRules\n\"r\" a:b x _ ;\n",
		"no center marker": "Alphabet ;\nRules\n\"r\" a:b => x ;\n",
		"bare center":      "Alphabet ;\nRules\n\"r\" a => x _ ;\n",
		"partial alphabet": "Alphabet a:? ;\nRules\n",
	}
	for name, stream := range cases {
		t.Run(name, func(t *testing.T) {
			r := alphabet.New(nil)
			err := r.Resolve("g", stream)
			require.Error(t, err)
			var ge *domain.GrammarError
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, domain.StageAlphabet, ge.Stage)
			assert.Empty(t, r.TotalAlphabet())
		})
	}
}

func TestResetClearsResidue(t *testing.T) {
	r := alphabet.New(nil)
	require.NoError(t, r.Resolve("one", "Alphabet ;\nRules\n\"r\" a:b => _ ;\n"))
	require.NoError(t, r.Resolve("two", "Alphabet ;\nRules\n\"s\" c:d => _ ;\n"))
	r.Complete()
	assert.Contains(t, r.TotalAlphabet(), domain.Pair{Lex: "a", Surf: "b"}, "first stream leaks without reset")

	r.Reset()
	require.NoError(t, r.Resolve("two", "Alphabet ;\nRules\n\"s\" c:d => _ ;\n"))
	r.Complete()
	assert.NotContains(t, r.TotalAlphabet(), domain.Pair{Lex: "a", Surf: "b"})
}
