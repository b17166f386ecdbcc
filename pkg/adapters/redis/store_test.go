package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/twolc/pkg/adapters/redis"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunTransducerStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("lang:fi:"))
	tr := fst.Identity("g", []domain.Pair{domain.Identity("a")})

	require.NoError(t, store.Save(context.Background(), tr))
	assert.True(t, mr.Exists("lang:fi:g"))
	assert.True(t, mr.Exists("lang:fi:index"))
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, fst.Identity("short", []domain.Pair{domain.Identity("a")})))

	assert.Equal(t, time.Minute, mr.TTL("twolc:transducer:short"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrTransducerNotFound)
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "g", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:g"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:g"))
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := setup(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "g", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(ctxTimeout, "g", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))
	unlock2, err := locker2.Lock(ctx, "g", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
