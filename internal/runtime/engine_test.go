package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/twolc/internal/runtime"
	"github.com/aretw0/twolc/pkg/adapters/memory"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grammar = `
! a becomes b after x
Alphabet a:b ;
Rules
"r1" a:b => x _ ;
"r2" a:b <= x _ ;
`

func req(src string, mode domain.Mode) runtime.Request {
	return runtime.Request{Name: "g", Source: strings.NewReader(src), Mode: mode}
}

func TestEngine_StoreMode(t *testing.T) {
	store := memory.NewStore()
	r := req(grammar, domain.ModeStore)
	r.Store = store

	res, err := runtime.NewEngine().Compile(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, domain.StateComposed, res.Report.State)
	assert.Len(t, res.Report.Rules, 2)
	assert.Nil(t, res.Rules)

	saved, err := store.Load(context.Background(), "g")
	require.NoError(t, err)
	assert.True(t, fst.Equivalent(res.Transducer, saved))
	assert.True(t, saved.Accepts([]domain.Pair{domain.Identity("x"), {Lex: "a", Surf: "b"}}))
	assert.False(t, saved.Accepts([]domain.Pair{domain.Identity("x"), domain.Identity("a")}))
}

func TestEngine_StorableMode(t *testing.T) {
	res, err := runtime.NewEngine().Compile(context.Background(), req(grammar, domain.ModeStorable))
	require.NoError(t, err)
	assert.Equal(t, domain.StateStorableSet, res.Report.State)
	require.Len(t, res.Rules, 2)
	assert.Equal(t, "r1", res.Rules[0].Name)
	assert.Equal(t, "r2", res.Rules[1].Name)
	assert.Nil(t, res.Transducer)
}

func TestEngine_ModeEquivalence(t *testing.T) {
	e := runtime.NewEngine()
	composed, _, err := e.CompileText(context.Background(), "g", grammar, domain.Config{})
	require.NoError(t, err)
	rules, report, err := e.RulesText(context.Background(), "g", grammar, domain.Config{})
	require.NoError(t, err)
	assert.Equal(t, domain.StateStorableSet, report.State)
	assert.True(t, fst.Equivalent(composed, fst.Intersect("g", rules...)))
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}
	hooks := domain.LifecycleHooks{
		OnStageStart: func(_ context.Context, e *domain.StageEvent) { record("start:" + string(e.Stage)) },
		OnStageEnd: func(_ context.Context, e *domain.StageEvent) {
			assert.NoError(t, e.Err)
			record("end:" + string(e.Stage))
		},
		OnRuleCompiled: func(_ context.Context, e *domain.RuleEvent) {
			assert.Positive(t, e.States)
			record("rule:" + e.Rule)
		},
	}

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).
		Compile(context.Background(), req(grammar, domain.ModeStore))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"start:preprocess", "end:preprocess",
		"start:alphabet", "end:alphabet",
		"start:compile", "rule:r1", "rule:r2", "end:compile",
	}, events)
}

func TestEngine_ConflictHook(t *testing.T) {
	src := `
Rules
"coerce" a:b <= x _ ;
"exclude" a:b /<= x _ ;
`
	var conflicts []domain.Conflict
	var failedStage domain.Stage
	hooks := domain.LifecycleHooks{
		OnConflict: func(_ context.Context, e *domain.ConflictEvent) { conflicts = append(conflicts, e.Conflict) },
		OnStageEnd: func(_ context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				failedStage = e.Stage
			}
		},
	}
	e := runtime.NewEngine(runtime.WithLifecycleHooks(hooks))

	res, err := e.Compile(context.Background(), req(src, domain.ModeStore))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUnresolvedConflict)
	assert.Equal(t, domain.StageCompile, failedStage)
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.SideLeft, conflicts[0].Side)
	assert.False(t, conflicts[0].Resolved)

	conflicts = nil
	r := req(src, domain.ModeStore)
	r.Config.ResolveLeftConflicts = true
	res, err = e.Compile(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.True(t, conflicts[0].Resolved)
	assert.Equal(t, conflicts, res.Report.Conflicts)
}

func TestEngine_FailFast(t *testing.T) {
	store := memory.NewStore()
	var stages []domain.Stage
	hooks := domain.LifecycleHooks{
		OnStageStart: func(_ context.Context, e *domain.StageEvent) { stages = append(stages, e.Stage) },
	}
	r := req(`Rules "ok" a:b => x _ ; "broken" a:b => x ;`, domain.ModeStore)
	r.Store = store

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Compile(context.Background(), r)
	require.Error(t, err)
	var ge *domain.GrammarError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, domain.StagePreprocess, ge.Stage)
	assert.Equal(t, []domain.Stage{domain.StagePreprocess}, stages)

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEngine_UnknownSymbolPointsAtSourceRule(t *testing.T) {
	// A bare 0 is never a lexical symbol, so the compiler stage rejects it.
	src := "Alphabet a:b ;\n\nRules\n\n\"ok\" a:b => x _ ;\n\"eps\" a:b => 0 _ ;\n"
	var stages []domain.Stage
	hooks := domain.LifecycleHooks{
		OnStageEnd: func(_ context.Context, e *domain.StageEvent) { stages = append(stages, e.Stage) },
	}
	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Compile(context.Background(), req(src, domain.ModeStore))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownSymbol)

	var ge *domain.GrammarError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, domain.StageCompile, ge.Stage)
	assert.Equal(t, "eps", ge.Rule)
	assert.Equal(t, domain.Position{Source: "g", Line: 6, Col: 1}, ge.Pos)
	assert.Equal(t, []domain.Stage{domain.StagePreprocess, domain.StageAlphabet, domain.StageCompile}, stages)
}

func TestEngine_Resolve(t *testing.T) {
	e := runtime.NewEngine()
	a, err := e.AlphabetText(context.Background(), "g", grammar)
	require.NoError(t, err)
	assert.Equal(t, []domain.Pair{{Lex: "a", Surf: "b"}, domain.Identity("a"), domain.Identity("b")}, a.Total)
	assert.Equal(t, []domain.Symbol{"x"}, a.NonAlphabet)
}

func TestEngine_Diagnostics(t *testing.T) {
	var verbose, silent bytes.Buffer

	r := req(grammar, domain.ModeStore)
	r.Diagnostics = &verbose
	r.Config.Verbose = true
	_, err := runtime.NewEngine().Compile(context.Background(), r)
	require.NoError(t, err)
	assert.Contains(t, verbose.String(), "stage=compile")
	assert.Contains(t, verbose.String(), "rule compiled")

	r = req(grammar, domain.ModeStore)
	r.Diagnostics = &silent
	r.Config.Silent = true
	_, err = runtime.NewEngine().Compile(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, silent.String())
}

func TestEngine_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runtime.NewEngine().Compile(ctx, req(grammar, domain.ModeStore))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_InvalidConfig(t *testing.T) {
	r := req(grammar, domain.ModeStore)
	r.Config.Variant = "open"
	_, err := runtime.NewEngine().Compile(context.Background(), r)
	assert.Error(t, err)

	r = req(grammar, "stream")
	_, err = runtime.NewEngine().Compile(context.Background(), r)
	assert.Error(t, err)
}

func TestEngine_ConcurrentCompiles(t *testing.T) {
	e := runtime.NewEngine()
	want, _, err := e.CompileText(context.Background(), "g", grammar, domain.Config{})
	require.NoError(t, err)
	var wantATT bytes.Buffer
	require.NoError(t, want.WriteATT(&wantATT))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := grammar
			if i%2 == 1 {
				// Interleave failing compiles; they must not disturb the others.
				src = `Rules "broken" a:b => ;`
			}
			got, _, err := e.CompileText(context.Background(), "g", src, domain.Config{})
			if i%2 == 1 {
				if err == nil {
					errs <- fmt.Errorf("compile %d: expected error", i)
				}
				return
			}
			if err != nil {
				errs <- err
				return
			}
			var buf bytes.Buffer
			if err := got.WriteATT(&buf); err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(buf.Bytes(), wantATT.Bytes()) {
				errs <- fmt.Errorf("compile %d: output differs", i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
