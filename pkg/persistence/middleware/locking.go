package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

type lockingMiddleware struct {
	next   ports.TransducerStore
	locker ports.DistributedLocker
	ttl    time.Duration
}

// NewLockingMiddleware serializes writers of the same transducer name
// across processes. ttl bounds how long a crashed writer holds the lock.
func NewLockingMiddleware(locker ports.DistributedLocker, ttl time.Duration) Middleware {
	return func(next ports.TransducerStore) ports.TransducerStore {
		return &lockingMiddleware{next: next, locker: locker, ttl: ttl}
	}
}

func (m *lockingMiddleware) withLock(ctx context.Context, name string, fn func() error) (err error) {
	unlock, err := m.locker.Lock(ctx, name, m.ttl)
	if err != nil {
		return fmt.Errorf("failed to lock transducer %q: %w", name, err)
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil && err == nil {
			err = fmt.Errorf("failed to unlock transducer %q: %w", name, uerr)
		}
	}()
	return fn()
}

func (m *lockingMiddleware) Save(ctx context.Context, t *fst.Transducer) error {
	return m.withLock(ctx, t.Name, func() error { return m.next.Save(ctx, t) })
}

func (m *lockingMiddleware) Load(ctx context.Context, name string) (*fst.Transducer, error) {
	return m.next.Load(ctx, name)
}

func (m *lockingMiddleware) Delete(ctx context.Context, name string) error {
	return m.withLock(ctx, name, func() error { return m.next.Delete(ctx, name) })
}

func (m *lockingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
