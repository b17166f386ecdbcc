package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/twolc/pkg/adapters/file"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/persistence/middleware"
	"github.com/aretw0/twolc/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

var labels = []domain.Pair{{Lex: "secret", Surf: "b"}, domain.Identity("secret"), domain.Identity("b")}

func sample(name string) *fst.Transducer {
	// only secret:b is allowed
	return fst.NewTransducer(name, labels, fst.Set(len(labels), 0).Star())
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := NewMockStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, sample("g")))

	stored, err := underlying.Load(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "g", stored.Name, "names stay listable")
	for _, p := range stored.Labels {
		assert.NotContains(t, string(p.Lex)+string(p.Surf), "secret")
	}

	loaded, err := secure.Load(ctx, "g")
	require.NoError(t, err)
	assert.True(t, fst.Equivalent(sample("g"), loaded))
	assert.True(t, loaded.Accepts([]domain.Pair{{Lex: "secret", Surf: "b"}}))
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	key := generateKey(t)
	ports.RunTransducerStoreContract(t, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(NewMockStore()))
	// The envelope survives the AT&T container too.
	ports.RunTransducerStoreContract(t, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(file.New(t.TempDir())))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := NewMockStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, sample("g")))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	loaded, err := newStore.Load(ctx, "g")
	require.NoError(t, err, "fallback key decrypts old data")

	require.NoError(t, newStore.Save(ctx, loaded))
	_, err = oldStore.Load(ctx, "g")
	assert.Error(t, err, "old key cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainTransducer(t *testing.T) {
	underlying := NewMockStore()
	require.NoError(t, underlying.Save(context.Background(), sample("plain")))
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	_, err := secure.Load(context.Background(), "plain")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "envelope"))
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
