package orm

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestUniqueIndex(t *testing.T) {
	db := store.MemStore()
	idx := NewIndex("multisig", "authority", true)

	has, err := idx.Has(db, []byte("addr"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)

	assert.Nil(t, idx.Add(db, []byte("addr"), []byte("id1")))
	assert.IsErr(t, errors.ErrDuplicate, idx.Add(db, []byte("addr"), []byte("id2")))

	refs, err := idx.Refs(db, []byte("addr"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("id1")}, refs)

	refs, err = idx.Refs(db, []byte("missing"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(refs))
}

func TestMultiIndex(t *testing.T) {
	db := store.MemStore()
	idx := NewIndex("proposal", "multisig", false)

	assert.Nil(t, idx.Add(db, []byte("ms"), []byte{0, 2}))
	assert.Nil(t, idx.Add(db, []byte("ms"), []byte{0, 1}))
	// Adding the same reference twice is a noop.
	assert.Nil(t, idx.Add(db, []byte("ms"), []byte{0, 1}))
	// A longer key sharing the prefix is kept apart.
	assert.Nil(t, idx.Add(db, []byte("msx"), []byte{0, 3}))

	refs, err := idx.Refs(db, []byte("ms"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{{0, 1}, {0, 2}}, refs)

	has, err := idx.Has(db, []byte("m"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)

	assert.IsErr(t, errors.ErrEmpty, idx.Add(db, []byte("ms"), nil))
	assert.IsErr(t, errors.ErrInput, idx.Add(db, nil, []byte{1}))
}
