package grammar_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/twolc/internal/alphabet"
	"github.com/aretw0/twolc/internal/grammar"
	"github.com/aretw0/twolc/internal/preprocess"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stage3 runs the first two stages and returns the compiler input.
func stage3(t *testing.T, src string) string {
	t.Helper()
	out, err := preprocess.New(nil).Run("g", strings.NewReader(src))
	require.NoError(t, err)
	r := alphabet.New(nil)
	require.NoError(t, r.Resolve("g", out.Stream))
	r.Complete()
	return r.Serialize()
}

func parse(t *testing.T, src string, cfg domain.Config) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Parse("g", stage3(t, src), cfg, nil)
	require.NoError(t, err)
	return g
}

// pp parses "x:x a:b y" into pairs; a bare symbol is its identity pair.
func pp(s string) []domain.Pair {
	var out []domain.Pair
	for _, f := range strings.Fields(s) {
		p, err := domain.ParsePair(f)
		if err != nil {
			p = domain.Identity(domain.Symbol(f))
		}
		out = append(out, p)
	}
	return out
}

type memStore struct{ saved map[string]*fst.Transducer }

func (m *memStore) Save(_ context.Context, t *fst.Transducer) error {
	m.saved[t.Name] = t
	return nil
}
func (m *memStore) Load(_ context.Context, name string) (*fst.Transducer, error) {
	if t, ok := m.saved[name]; ok {
		return t, nil
	}
	return nil, domain.ErrTransducerNotFound
}
func (m *memStore) Delete(_ context.Context, name string) error { delete(m.saved, name); return nil }
func (m *memStore) List(context.Context) ([]string, error)       { return nil, nil }

const example1 = `Rules "r1" a:b => x _ y ;`

func TestExample1SingleRule(t *testing.T) {
	g := parse(t, example1, domain.Config{})

	rules, err := g.CompileAndGetStorableRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].Name)

	store := &memStore{saved: map[string]*fst.Transducer{}}
	require.NoError(t, g.CompileAndStore(context.Background(), store, "g"))
	composed := store.saved["g"]
	require.NotNil(t, composed)

	for _, tr := range []*fst.Transducer{rules[0], composed} {
		assert.True(t, tr.Accepts(pp("x a:b y")))
		assert.True(t, tr.Accepts(pp("a x a y")))
		assert.True(t, tr.Accepts(nil))
		assert.False(t, tr.Accepts(pp("a:b")))
		assert.False(t, tr.Accepts(pp("x a:b")))
		assert.False(t, tr.Accepts(pp("z a:b y")))
		// symbols outside the alphabet pass through as the other symbol
		assert.True(t, tr.Accepts(pp("q x a:b y q")))
	}
}

func TestExample2DisjointContexts(t *testing.T) {
	g := parse(t, `
Rules
"after x" a:b <= x _ ;
"not after y" a:b /<= y _ ;
`, domain.Config{})
	c, err := g.Compile()
	require.NoError(t, err)
	assert.Empty(t, c.Conflicts)

	tr := c.Compose("g")
	assert.True(t, tr.Accepts(pp("x a:b")))
	assert.False(t, tr.Accepts(pp("x a")))
	assert.False(t, tr.Accepts(pp("y a:b")))
	assert.True(t, tr.Accepts(pp("y a")))
}

func TestDisjointRestrictionsAreMerged(t *testing.T) {
	g := parse(t, `
Rules
"x" a:b => x _ ;
"y" a:b => y _ ;
`, domain.Config{})
	c, err := g.Compile()
	require.NoError(t, err)
	assert.Empty(t, c.Conflicts)
	tr := c.Compose("g")
	assert.True(t, tr.Accepts(pp("x a:b")))
	assert.True(t, tr.Accepts(pp("y a:b")))
	assert.False(t, tr.Accepts(pp("a:b")))
}

const example3 = `
Rules
"coerce after x" a:b <= x _ ;
"never after x or z" a:b /<= [ x | z ] _ ;
`

const example3Swapped = `
Rules
"never after x or z" a:b /<= [ x | z ] _ ;
"coerce after x" a:b <= x _ ;
`

func TestExample3LeftConflictFails(t *testing.T) {
	for _, src := range []string{example3, example3Swapped} {
		g := parse(t, src, domain.Config{})
		c, err := g.Compile()
		require.Error(t, err)
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, domain.ErrUnresolvedConflict))

		var ce *domain.ConflictError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, domain.SideLeft, ce.Conflict.Side)
		assert.Equal(t, "coerce after x", ce.Conflict.RuleA)
		assert.Equal(t, "never after x or z", ce.Conflict.RuleB)
		assert.Equal(t, []domain.Pair{{Lex: "a", Surf: "b"}}, ce.Conflict.Pairs)
		assert.Contains(t, err.Error(), "coerce after x")
		assert.Contains(t, err.Error(), "never after x or z")

		_, err = g.CompileAndGetStorableRules()
		assert.Error(t, err)
		store := &memStore{saved: map[string]*fst.Transducer{}}
		assert.Error(t, g.CompileAndStore(context.Background(), store, "g"))
		assert.Empty(t, store.saved)
	}
}

func TestExample4LeftConflictResolved(t *testing.T) {
	cfg := domain.Config{ResolveLeftConflicts: true}
	var composed []*fst.Transducer
	for _, src := range []string{example3, example3Swapped} {
		c, err := parse(t, src, cfg).Compile()
		require.NoError(t, err)
		require.Len(t, c.Conflicts, 1)
		assert.True(t, c.Conflicts[0].Resolved)
		assert.NotEmpty(t, c.Conflicts[0].Resolution)

		tr := c.Compose("g")
		assert.True(t, tr.Accepts(pp("x a:b")), "the more specific rule wins after x")
		assert.False(t, tr.Accepts(pp("x a")))
		assert.False(t, tr.Accepts(pp("z a:b")), "exclusion still holds after z")
		assert.True(t, tr.Accepts(pp("z a")))
		assert.True(t, tr.Accepts(pp("a:b")))
		composed = append(composed, tr)
	}
	assert.True(t, fst.Equivalent(composed[0], composed[1]), "resolution must not depend on rule order")
}

func TestOverlappingCoercionsNarrowBoth(t *testing.T) {
	src := `
Rules
"b after x" a:b <= x _ ;
"c before y" a:c <= _ y ;
`
	_, err := parse(t, src, domain.Config{}).Compile()
	require.Error(t, err)

	c, err := parse(t, src, domain.Config{ResolveLeftConflicts: true}).Compile()
	require.NoError(t, err)
	tr := c.Compose("g")
	assert.True(t, tr.Accepts(pp("x a:b")))
	assert.False(t, tr.Accepts(pp("x a:c")))
	assert.True(t, tr.Accepts(pp("a:c y")))
	// both contexts hold: neither rule applies any more
	assert.True(t, tr.Accepts(pp("x a y")))
	assert.True(t, tr.Accepts(pp("x a:b y")))
}

func TestRightConflict(t *testing.T) {
	src := `
Rules
"r1" a:b => x _ ;
"r2" a:b => [ x | y ] _ ;
`
	_, err := parse(t, src, domain.Config{}).Compile()
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, domain.SideRight, ce.Conflict.Side)

	c, err := parse(t, src, domain.Config{ResolveRightConflicts: true}).Compile()
	require.NoError(t, err)
	tr := c.Compose("g")
	assert.True(t, tr.Accepts(pp("x a:b")))
	assert.True(t, tr.Accepts(pp("y a:b")))
	assert.False(t, tr.Accepts(pp("a:b")))
}

func TestExample5EmptyGrammar(t *testing.T) {
	g := parse(t, "", domain.Config{})
	rules, err := g.CompileAndGetStorableRules()
	require.NoError(t, err)
	assert.Empty(t, rules)

	store := &memStore{saved: map[string]*fst.Transducer{}}
	require.NoError(t, g.CompileAndStore(context.Background(), store, "empty"))
	tr := store.saved["empty"]
	require.NotNil(t, tr)
	assert.True(t, tr.Accepts(nil))
	assert.True(t, tr.Accepts(pp("q r")), "identity over unknown symbols")

	closed := parse(t, "", domain.Config{Variant: domain.VariantClosed})
	c, err := closed.Compile()
	require.NoError(t, err)
	id := c.Compose("empty")
	assert.Empty(t, id.Labels)
	assert.True(t, id.Accepts(nil))
	assert.False(t, id.Accepts(pp("q")))
}

func TestOperators(t *testing.T) {
	c, err := parse(t, `Rules "bi" a:b <=> x _ ;`, domain.Config{}).Compile()
	require.NoError(t, err)
	tr := c.Compose("g")
	assert.True(t, tr.Accepts(pp("x a:b")))
	assert.False(t, tr.Accepts(pp("x a")))
	assert.False(t, tr.Accepts(pp("a:b")))
	assert.True(t, tr.Accepts(pp("a")))
}

func TestContextOperators(t *testing.T) {
	cases := []struct {
		src    string
		accept []string
		reject []string
	}{
		{`Rules "star" a:b => x y* _ ;`, []string{"x a:b", "x y y a:b"}, []string{"y a:b"}},
		{`Rules "plus" a:b => x y+ _ ;`, []string{"x y a:b"}, []string{"x a:b"}},
		{`Rules "opt" a:b => x ( y ) _ ;`, []string{"x a:b", "x y a:b"}, []string{"x y y a:b"}},
		{`Rules "any" a:b => ? _ ;`, []string{"q a:b", "a a:b"}, []string{"a:b"}},
		{`Rules "start" a:b => .#. _ ;`, []string{"a:b x"}, []string{"x a:b"}},
		{`Rules "end" a:b => _ .#. ;`, []string{"x a:b"}, []string{"a:b x"}},
		{`Rules "not x" a:b => .#. ~[ ?* x ] _ ;`, []string{"a:b", "y a:b"}, []string{"x a:b"}},
		{`Rules "surface" a:b => :c _ ;`, []string{"d:c a:b"}, []string{"d a:b"}},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			src := "Alphabet d:c ;\n" + tc.src
			c, err := parse(t, src, domain.Config{}).Compile()
			require.NoError(t, err)
			tr := c.Compose("g")
			for _, s := range tc.accept {
				assert.True(t, tr.Accepts(pp(s)), "should accept %q", s)
			}
			for _, s := range tc.reject {
				assert.False(t, tr.Accepts(pp(s)), "should reject %q", s)
			}
		})
	}
}

func TestModeEquivalence(t *testing.T) {
	src := `
Alphabet a:b e:0 ;
Rules
"r1" a:b => x _ ;
"r2" e:0 <=> _ .#. ;
"r3" a:b /<= y _ ;
`
	g := parse(t, src, domain.Config{})
	rules, err := g.CompileAndGetStorableRules()
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"r1", "r2", "r3"}, []string{rules[0].Name, rules[1].Name, rules[2].Name})

	store := &memStore{saved: map[string]*fst.Transducer{}}
	require.NoError(t, g.CompileAndStore(context.Background(), store, "g"))
	assert.True(t, fst.Equivalent(store.saved["g"], fst.Intersect("g", rules...)))
}

func TestDeterminism(t *testing.T) {
	src := `
Sets V = a e ;
Rules
"r1" V:0 => x _ ;
"r2" a:b <= _ y ;
`
	write := func() []byte {
		c, err := parse(t, src, domain.Config{ResolveLeftConflicts: true}).Compile()
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, c.Compose("g").WriteATT(&buf))
		return buf.Bytes()
	}
	first := write()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, write())
}

func TestUnknownSymbols(t *testing.T) {
	input := "Alphabet a:b a:a b:b ;\nNonAlphabet x ;\nRules\n\"r\" a:b => q _ ;\n"
	_, err := grammar.Parse("g", input, domain.Config{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownSymbol))
	var ge *domain.GrammarError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, domain.StageCompile, ge.Stage)
	assert.Equal(t, "r", ge.Rule)

	input = "Alphabet a:b a:a b:b ;\nNonAlphabet ;\nRules\n\"r\" c:d => _ ;\n"
	_, err = grammar.Parse("g", input, domain.Config{}, nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownSymbol))
}

func TestSyntaxErrors(t *testing.T) {
	for _, input := range []string{
		"Rules\n",
		"Alphabet ;\nNonAlphabet ;\nRules\n\"r\" a:b => x ;\n",
		"Alphabet a:b ;\nNonAlphabet ;\nRules\n\"r\" a:b => _ ; \"r\" a:b => _ ;\n",
	} {
		_, err := grammar.Parse("g", input, domain.Config{}, nil)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, domain.ErrSyntax), input)
	}
}

func TestPartialCenter(t *testing.T) {
	c, err := parse(t, "Alphabet a:b a:c ;\nRules \"r\" a: => x _ ;", domain.Config{}).Compile()
	require.NoError(t, err)
	assert.Len(t, c.Rules[0].Rule.Center, 3)
	tr := c.Compose("g")
	assert.True(t, tr.Accepts(pp("x a:c")))
	assert.False(t, tr.Accepts(pp("a")))
}
