package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contractLabels = []domain.Pair{{Lex: "a", Surf: "b"}, domain.Identity("a"), domain.Identity("x")}

// contractTransducer accepts strings where a:b only follows x:x.
func contractTransducer(name string) *fst.Transducer {
	n := len(contractLabels)
	sigma := fst.Universal(n)
	bad := fst.Set(n, 0).Concat(sigma).
		Union(sigma.Concat(fst.Set(n, 0, 1)).Concat(fst.Set(n, 0)).Concat(sigma))
	return fst.NewTransducer(name, contractLabels, bad.Complement())
}

// RunTransducerStoreContract runs a suite of tests to verify that a TransducerStore implementation
// adheres to the defined interface contract.
func RunTransducerStoreContract(t *testing.T, store TransducerStore) {
	ctx := context.Background()
	name := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tr := contractTransducer(name)

		err := store.Save(ctx, tr)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, name, loaded.Name)
		assert.True(t, loaded.Accepts([]domain.Pair{{Lex: "x", Surf: "x"}, {Lex: "a", Surf: "b"}}))
		assert.False(t, loaded.Accepts([]domain.Pair{{Lex: "a", Surf: "b"}}))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, fst.Identity(name, contractLabels)))
		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.True(t, loaded.Accepts([]domain.Pair{{Lex: "a", Surf: "b"}}))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrTransducerNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, contractTransducer(name))
		require.NoError(t, err)

		err = store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrTransducerNotFound, "Load after Delete should return ErrTransducerNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		_ = store.Save(ctx, contractTransducer(id1))
		_ = store.Save(ctx, contractTransducer(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})
}
