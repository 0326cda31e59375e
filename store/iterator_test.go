package store

import (
	"testing"

	"github.com/iov-one/custody/weavetest/assert"
)

func TestCacheIteratorRelease(t *testing.T) {
	db := MemStore()
	assert.Nil(t, db.Set([]byte("a"), []byte("A")))
	cache := db.CacheWrap()

	it, err := cache.Iterator([]byte("a"), []byte("z"))
	if err != nil {
		t.Fatalf("cannot create iterator: %s", err)
	}
	// Release must be a synchronous operation.
	it.Release()
	assert.Nil(t, db.Delete([]byte("a")))
}

func TestCacheIteratorSnapshot(t *testing.T) {
	db := MemStore()
	assert.Nil(t, db.Set([]byte("a"), []byte("A")))
	assert.Nil(t, db.Set([]byte("b"), []byte("B")))
	cache := db.CacheWrap()

	it, err := cache.ReverseIterator(nil, nil)
	assert.Nil(t, err)
	defer it.Release()

	// Writes after the iterator was created are not visible to it.
	assert.Nil(t, cache.Set([]byte("c"), []byte("C")))

	key, _, err := it.Next()
	assert.Nil(t, err)
	assert.Equal(t, []byte("b"), key)
	key, _, err = it.Next()
	assert.Nil(t, err)
	assert.Equal(t, []byte("a"), key)
}
