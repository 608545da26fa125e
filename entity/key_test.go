package entity_test

import (
	"testing"

	"github.com/plus3/entarena/entity"
	"github.com/stretchr/testify/assert"
)

func TestKeyPacking(t *testing.T) {
	key := entity.NewKey(42, 7)

	assert.Equal(t, uint32(42), key.Index())
	assert.Equal(t, uint32(7), key.Generation())
}

func TestKeyRawRoundTrip(t *testing.T) {
	key := entity.NewKey(123, 456)

	raw := key.Raw()
	assert.Equal(t, key, entity.KeyFromRaw(raw))
}

func TestKeyEquality(t *testing.T) {
	// Same index, different generation: a different logical allocation.
	a := entity.NewKey(5, 1)
	b := entity.NewKey(5, 2)
	c := entity.NewKey(5, 1)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.True(t, a < b)
}

func TestKeyZero(t *testing.T) {
	var key entity.Key

	assert.True(t, key.IsZero())
	assert.False(t, entity.NewKey(0, 1).IsZero())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "Key(3:2)", entity.NewKey(3, 2).String())
}

func TestReservedKeysAreDistinct(t *testing.T) {
	store := entity.NewStore()

	seen := make(map[entity.Key]bool)
	for i := 0; i < 100; i++ {
		_, key := entity.Reserve[Counter](store)
		assert.False(t, seen[key])
		assert.False(t, key.IsZero())
		seen[key] = true
	}
}
