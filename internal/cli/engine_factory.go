package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/pkg/adapters/file"
	"github.com/aretw0/twolc/pkg/adapters/memory"
	"github.com/aretw0/twolc/pkg/adapters/redis"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/observability"
	"github.com/aretw0/twolc/pkg/persistence/middleware"
	"github.com/aretw0/twolc/pkg/ports"
)

// lockTTL bounds how long a crashed writer holds a redis transducer lock.
const lockTTL = 30 * time.Second

// Options carries what the commands share when building a Compiler.
type Options struct {
	Config *config.File
	Debug  bool
	// Diagnostics receives compile diagnostics (usually stderr).
	Diagnostics io.Writer
	// Registerer, when set, records compile metrics.
	Registerer prometheus.Registerer
}

// OpenStore builds the transducer store selected by cfg. The returned
// close function releases its connections.
func OpenStore(cfg config.Store) (ports.TransducerStore, func() error, error) {
	noop := func() error { return nil }

	var (
		store   ports.TransducerStore
		closeFn = noop
		mws     []middleware.Middleware
	)
	switch cfg.Kind {
	case "", "file":
		format, err := fst.ParseFormat(cfg.Format)
		if err != nil {
			return nil, nil, err
		}
		store = file.New(cfg.Dir, file.WithFormat(format))
	case "memory":
		store = memory.NewStore()
	case "redis":
		opts := []redis.Option{}
		prefix := "twolc:"
		if cfg.Redis.Prefix != "" {
			prefix = cfg.Redis.Prefix
			opts = append(opts, redis.WithPrefix(prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		store, closeFn = rs, rs.Close
		mws = append(mws, middleware.NewLockingMiddleware(redis.NewLocker(rs.Client(), prefix), lockTTL))
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q (want file, memory or redis)", cfg.Kind)
	}

	if cfg.SealKey != "" {
		key, err := hex.DecodeString(cfg.SealKey)
		if err != nil || len(key) != 32 {
			_ = closeFn()
			return nil, nil, fmt.Errorf("seal_key must be 64 hex characters (AES-256)")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

// NewCompiler builds a Compiler writing to the configured store.
func NewCompiler(opts Options, logger *slog.Logger) (*twolc.Compiler, func() error, error) {
	store, closeFn, err := OpenStore(opts.Config.Store)
	if err != nil {
		return nil, nil, err
	}

	compilerOpts := []twolc.Option{
		twolc.WithLogger(logger),
		twolc.WithStore(store),
	}
	if opts.Diagnostics != nil {
		compilerOpts = append(compilerOpts, twolc.WithDiagnostics(opts.Diagnostics))
	}
	if opts.Debug {
		compilerOpts = append(compilerOpts, twolc.WithLifecycleHooks(DebugHooks(logger)))
	}
	if opts.Registerer != nil {
		compilerOpts = append(compilerOpts, twolc.WithLifecycleHooks(observability.NewMetrics(opts.Registerer).Hooks()))
	}
	return twolc.New(compilerOpts...), closeFn, nil
}

// Ping checks that the store answers, e.g. before serving.
func Ping(ctx context.Context, store ports.TransducerStore) error {
	if _, err := store.List(ctx); err != nil {
		return fmt.Errorf("transducer store unavailable: %w", err)
	}
	return nil
}
