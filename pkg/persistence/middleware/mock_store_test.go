package middleware_test

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*fst.Transducer
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*fst.Transducer),
	}
}

func (s *MockStore) Save(ctx context.Context, t *fst.Transducer) error {
	s.data[t.Name] = t
	return nil
}

func (s *MockStore) Load(ctx context.Context, name string) (*fst.Transducer, error) {
	t, ok := s.data[name]
	if !ok {
		return nil, domain.ErrTransducerNotFound
	}
	return t, nil
}

func (s *MockStore) Delete(ctx context.Context, name string) error {
	delete(s.data, name)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// MockLocker records lock calls and serializes holders in-process.
type MockLocker struct {
	mu    sync.Mutex
	held  sync.Mutex
	Locks []string
}

func (l *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.held.Lock()
	l.mu.Lock()
	l.Locks = append(l.Locks, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.held.Unlock()
		return nil
	}, nil
}
