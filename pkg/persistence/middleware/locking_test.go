package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/twolc/pkg/persistence/middleware"
	"github.com/aretw0/twolc/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockingMiddleware(t *testing.T) {
	locker := &MockLocker{}
	store := middleware.NewLockingMiddleware(locker, time.Second)(NewMockStore())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sample("g")))
	_, err := store.Load(ctx, "g")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "g"))

	assert.Equal(t, []string{"g", "g"}, locker.Locks, "writes lock, reads do not")
}

func TestChain(t *testing.T) {
	locker := &MockLocker{}
	store := middleware.Chain(NewMockStore(),
		middleware.NewLockingMiddleware(locker, time.Second),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ports.RunTransducerStoreContract(t, store)
	assert.NotEmpty(t, locker.Locks)
}
