package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// Store implements ports.TransducerStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*fst.Transducer
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*fst.Transducer),
	}
}

// Save keeps the transducer under its name. Transducers are immutable, so
// the store holds a renamed copy of the header only.
func (s *Store) Save(ctx context.Context, t *fst.Transducer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[t.Name] = t.Rename(t.Name)
	return nil
}

// Load retrieves a transducer by name.
func (s *Store) Load(ctx context.Context, name string) (*fst.Transducer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[name]
	if !ok {
		return nil, domain.ErrTransducerNotFound
	}
	return t, nil
}

// Delete removes the transducer.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the stored names in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
