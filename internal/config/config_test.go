package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "twolc.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twolc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compile:
  resolve_left_conflicts: true
  variant: closed
store:
  kind: redis
  redis:
    addr: localhost:6379
    ttl: 1h
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Compile.ResolveLeftConflicts)
	assert.Equal(t, domain.VariantClosed, cfg.Compile.Variant)
	assert.Equal(t, "redis", cfg.Store.Kind)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr, "unset keys keep defaults")
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twolc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"compile": {"verbose": true}, "store": {"format": "json"}}`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Compile.Verbose)
	assert.Equal(t, "json", cfg.Store.Format)
	assert.Equal(t, domain.VariantOther, cfg.Compile.Variant)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twolc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compile:\n  variant: open\n"), 0o644))
	_, err := config.Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("compile: [\n"), 0o644))
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	base := domain.Config{Verbose: true}
	cfg, err := config.Decode(map[string]any{
		"resolve_left_conflicts":  "true",
		"resolve_right_conflicts": true,
		"variant":                 "closed",
	}, base)
	require.NoError(t, err)
	assert.Equal(t, domain.Config{
		Verbose:               true,
		ResolveLeftConflicts:  true,
		ResolveRightConflicts: true,
		Variant:               domain.VariantClosed,
	}, cfg)

	cfg, err = config.Decode(nil, domain.Config{})
	require.NoError(t, err)
	assert.Equal(t, domain.VariantOther, cfg.Variant)

	_, err = config.Decode(map[string]any{"resolve_everything": true}, base)
	assert.Error(t, err)
	_, err = config.Decode(map[string]any{"variant": "open"}, base)
	assert.Error(t, err)
}
