package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/custody/errors"
)

// DefaultFreeListSize is the node free list size of a new cache.
const DefaultFreeListSize = btree.DefaultFreeListSize

// BTreeCacheable gives any KVStore btree backed cache wraps.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns an empty in memory store. Nothing is persisted.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

// ShowOpser lists the operations written so far, in order.
type ShowOpser interface {
	ShowOps() []Op
}

// LogableStore returns an in memory store together with the log of every
// write made to it.
func LogableStore() (CacheableKVStore, ShowOpser) {
	e := EmptyKVStore{}
	b := NewNonAtomicBatch(e)
	return NewBTreeCacheWrap(e, b, nil), b
}

// BTreeCacheWrap keeps pending writes in a btree on top of a read only
// parent. Writes are mirrored into batch, which is flushed on Write.
type BTreeCacheWrap struct {
	bt     *btree.BTree
	free   *btree.FreeList
	parent ReadOnlyKVStore
	batch  Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over parent that writes into batch. A
// nil free list allocates a new one, nested caches share the free list of
// their parent.
func NewBTreeCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:     btree.NewWithFreeList(2, free),
		free:   free,
		parent: parent,
		batch:  batch,
	}
}

// CacheWrap nests another cache on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes all pending writes into the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all pending writes. The btree nodes go back to the free list.
func (b BTreeCacheWrap) Discard() {
	for b.bt.DeleteMin() != nil {
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrInput, "nil key")
	}
	b.bt.ReplaceOrInsert(setItem{bkey{key}, value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrInput, "nil key")
	}
	b.bt.ReplaceOrInsert(deletedItem{bkey{key}})
	return b.batch.Delete(key)
}

// cached returns the pending write for key, nil when there is none.
func (b BTreeCacheWrap) cached(key []byte) (btree.Item, error) {
	switch it := b.bt.Get(bkey{key}).(type) {
	case nil, setItem, deletedItem:
		return it, nil
	default:
		return nil, errors.Wrapf(errors.ErrDatabase, "unknown btree item %T", it)
	}
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	it, err := b.cached(key)
	if err != nil {
		return nil, err
	}
	switch it := it.(type) {
	case setItem:
		return it.value, nil
	case deletedItem:
		return nil, nil
	}
	return b.parent.Get(key)
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	it, err := b.cached(key)
	if err != nil {
		return false, err
	}
	switch it.(type) {
	case setItem:
		return true, nil
	case deletedItem:
		return false, nil
	}
	return b.parent.Has(key)
}

// Iterator returns the merged content of the cache and its parent in
// ascending key order.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	return b.iterate(start, end, false)
}

// ReverseIterator returns the merged content of the cache and its parent in
// descending key order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	return b.iterate(start, end, true)
}

func (b BTreeCacheWrap) iterate(start, end []byte, reverse bool) (Iterator, error) {
	var (
		parent Iterator
		err    error
	)
	if reverse {
		parent, err = b.parent.ReverseIterator(start, end)
	} else {
		parent, err = b.parent.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}
	defer parent.Release()

	items := rangeItems(b.bt, start, end)
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	models, err := mergeItems(items, parent, reverse)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(models), nil
}

// keyer is implemented by every btree item.
type keyer interface {
	Key() []byte
}

// bkey orders btree items by key. It is also the lookup item.
type bkey struct {
	key []byte
}

var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

func (k bkey) Less(other btree.Item) bool {
	return bytes.Compare(k.key, other.(keyer).Key()) < 0
}

type setItem struct {
	bkey
	value []byte
}

type deletedItem struct {
	bkey
}
