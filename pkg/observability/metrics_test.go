package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	c := twolc.New(twolc.WithLifecycleHooks(m.Hooks()))
	ctx := context.Background()

	_, err := c.CompileScriptAndGetStorableRules(ctx, "ok", `Rules "r1" a:b => x _ ; "r2" a:b <= x _ ;`, domain.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compiles.WithLabelValues("ok")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.StageDuration))

	_, err = c.CompileScriptAndGetStorableRules(ctx, "bad", `Rules "r" a:b => ;`, domain.Config{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compiles.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("preprocess", "syntax")))

	conflicting := `Rules "c" a:b <= x _ ; "e" a:b /<= x _ ;`
	_, err = c.CompileScriptAndGetStorableRules(ctx, "conflict", conflicting, domain.Config{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("left", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("compile", "conflict")))

	_, err = c.CompileScriptAndGetStorableRules(ctx, "conflict", conflicting, domain.Config{ResolveLeftConflicts: true})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("left", "true")))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "unknown_symbol", observability.ErrorKind(&domain.GrammarError{Err: domain.ErrUnknownSymbol}))
	assert.Equal(t, "syntax", observability.ErrorKind(&domain.GrammarError{}))
	assert.Equal(t, "conflict", observability.ErrorKind(&domain.ConflictError{}))
	assert.Equal(t, "internal", observability.ErrorKind(&domain.InternalError{Cause: "boom"}))
	assert.Equal(t, "canceled", observability.ErrorKind(context.Canceled))
	assert.Equal(t, "other", observability.ErrorKind(errors.New("disk full")))
}
