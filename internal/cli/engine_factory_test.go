package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/internal/testutils"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

const sealKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func identity(name string) *fst.Transducer {
	return fst.Identity(name, []domain.Pair{domain.Identity("a")})
}

func TestOpenStore_File(t *testing.T) {
	dir := t.TempDir()
	store, closeFn, err := OpenStore(config.Store{Kind: "file", Dir: dir, Format: "json"})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Save(context.Background(), identity("g")))
	_, err = os.Stat(filepath.Join(dir, "g.json"))
	assert.NoError(t, err)
}

func TestOpenStore_Sealed(t *testing.T) {
	dir := t.TempDir()
	store, closeFn, err := OpenStore(config.Store{Kind: "file", Dir: dir, SealKey: sealKey})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Save(context.Background(), identity("g")))
	raw, err := os.ReadFile(filepath.Join(dir, "g.att"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "@_SEALED_@")

	got, err := store.Load(context.Background(), "g")
	require.NoError(t, err)
	assert.True(t, fst.Equivalent(identity("g"), got))
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, closeFn, err := OpenStore(config.Store{Kind: "redis", Redis: config.Redis{Addr: mr.Addr(), Prefix: "test:"}})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Save(context.Background(), identity("g")))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, names)
	// the lock is released after the write
	assert.False(t, mr.Exists("test:lock:g"))
	require.NoError(t, Ping(context.Background(), store))
}

func TestOpenStore_Errors(t *testing.T) {
	for name, cfg := range map[string]config.Store{
		"kind":     {Kind: "s3"},
		"format":   {Kind: "file", Format: "xml"},
		"seal key": {Kind: "memory", SealKey: "abcd"},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := OpenStore(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewCompiler_MetricsAndDiagnostics(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.Store{Kind: "memory"}
	reg := prometheus.NewRegistry()
	var diag strings.Builder

	c, closeFn, err := NewCompiler(Options{Config: cfg, Diagnostics: &diag, Registerer: reg}, logging.NewNop())
	require.NoError(t, err)
	defer closeFn()

	status := c.Compile(context.Background(), twolc.ScriptSource("g", testutils.Grammar), cfg.Compile)
	assert.Equal(t, twolc.StatusOK, status)
	_, err = c.Store().Load(context.Background(), "g")
	assert.NoError(t, err)
	n, err := testutil.GatherAndCount(reg, "twolc_compiles_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, diag.String(), "grammar compiled")
}
