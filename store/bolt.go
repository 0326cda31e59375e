package store

import (
	"bytes"
	"time"

	"github.com/iov-one/custody/errors"
	bolt "go.etcd.io/bbolt"
)

// BoltBucket is the name of the bolt bucket holding all values.
var BoltBucket = []byte("custody")

// BoltDB is a persistent store backed by a single bbolt bucket. Each batch
// is written in one bolt update transaction.
type BoltDB struct {
	db *bolt.DB
}

var _ CommitKVStore = (*BoltDB)(nil)

// NewBoltDB opens (or creates) a database file at given path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open bolt %q: %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BoltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create bolt bucket: %s", err)
	}
	return &BoltDB{db: db}, nil
}

// Get returns nil if the key does not exist.
func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// Bolt values are valid only within the transaction.
		if v := tx.Bucket(BoltBucket).Get(key); v != nil {
			val = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "bolt get: %s", err)
	}
	return val, nil
}

func (b *BoltDB) Has(key []byte) (bool, error) {
	val, err := b.Get(key)
	return val != nil, err
}

func (b *BoltDB) Set(key, value []byte) error {
	return b.update([]Op{SetOp(key, value)})
}

func (b *BoltDB) Delete(key []byte) error {
	return b.update([]Op{DelOp(key)})
}

func (b *BoltDB) update(ops []Op) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BoltBucket)
		for _, op := range ops {
			if err := op.Apply(boltBucket{bucket}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "bolt update: %s", err)
	}
	return nil
}

// Iterator loads all values within [start, end) in ascending order.
func (b *BoltDB) Iterator(start, end []byte) (Iterator, error) {
	return b.iterate(start, end, false)
}

// ReverseIterator loads all values within [start, end) in descending order.
func (b *BoltDB) ReverseIterator(start, end []byte) (Iterator, error) {
	return b.iterate(start, end, true)
}

func (b *BoltDB) iterate(start, end []byte, reverse bool) (Iterator, error) {
	var models []Model
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(BoltBucket).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			models = append(models, Pair(append([]byte{}, k...), append([]byte{}, v...)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "bolt iterator: %s", err)
	}
	if reverse {
		for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
			models[i], models[j] = models[j], models[i]
		}
	}
	return NewSliceIterator(models), nil
}

// NewBatch returns a batch that is written in a single bolt transaction.
func (b *BoltDB) NewBatch() Batch {
	return &boltBatch{db: b}
}

// CacheWrap layers a btree cache on top of the database.
func (b *BoltDB) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), nil)
}

// Close releases the database file.
func (b *BoltDB) Close() error {
	if err := b.db.Close(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "bolt close: %s", err)
	}
	return nil
}

type boltBatch struct {
	db  *BoltDB
	ops []Op
}

func (b *boltBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *boltBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

func (b *boltBatch) Write() error {
	if err := b.db.update(b.ops); err != nil {
		return err
	}
	b.ops = nil
	return nil
}

// boltBucket adapts a bolt bucket to the SetDeleter interface.
type boltBucket struct {
	*bolt.Bucket
}

func (b boltBucket) Set(key, value []byte) error {
	return b.Put(key, value)
}
