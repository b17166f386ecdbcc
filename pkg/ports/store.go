package ports

import (
	"context"

	"github.com/aretw0/twolc/pkg/fst"
)

// TransducerStore defines the output sink of store-mode compiles.
type TransducerStore interface {
	// Save persists a transducer under its name, replacing any previous one.
	Save(ctx context.Context, t *fst.Transducer) error

	// Load retrieves a transducer by name.
	// Returns domain.ErrTransducerNotFound if it does not exist.
	Load(ctx context.Context, name string) (*fst.Transducer, error)

	// Delete removes a transducer. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored transducers.
	List(ctx context.Context) ([]string, error)
}
