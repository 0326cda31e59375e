package store

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest/assert"
)

// TestSliceIterator makes sure the basic slice iterator works.
func TestSliceIterator(t *testing.T) {
	const size = 10

	ks := randKeys(size, 8)
	vs := randKeys(size, 40)

	models := make([]Model, size)
	for i := 0; i < size; i++ {
		models[i].Key = ks[i]
		models[i].Value = vs[i]
	}

	it := NewSliceIterator(models)
	for i := 0; i < size; i++ {
		key, value, err := it.Next()
		assert.Nil(t, err)
		assert.Equal(t, ks[i], key)
		assert.Equal(t, vs[i], value)
	}
	_, _, err := it.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)

	released := NewSliceIterator(models)
	released.Release()
	_, _, err = released.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)
}

func TestEmptyKVStore(t *testing.T) {
	var db EmptyKVStore
	assert.Nil(t, db.Set([]byte("a"), []byte("b")))
	val, err := db.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, val)

	it, err := db.Iterator(nil, nil)
	assert.Nil(t, err)
	_, _, err = it.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)
}
