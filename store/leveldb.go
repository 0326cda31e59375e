package store

import (
	"github.com/iov-one/custody/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a persistent store backed by a goleveldb database. Batches
// are written atomically, which makes it safe to use below a cache wrap.
type LevelDB struct {
	db *leveldb.DB
}

var _ CommitKVStore = (*LevelDB)(nil)

// NewLevelDB opens (or creates) a database in the given directory.
func NewLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open leveldb %q: %s", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// NewMemLevelDB returns a database that keeps all data in memory. Use it for
// tests only.
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open in memory leveldb: %s", err)
	}
	return &LevelDB{db: db}, nil
}

// Get returns nil if the key does not exist.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	switch err {
	case nil:
		return val, nil
	case leveldb.ErrNotFound:
		return nil, nil
	default:
		return nil, errors.Wrapf(errors.ErrDatabase, "leveldb get: %s", err)
	}
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	ok, err := l.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrapf(errors.ErrDatabase, "leveldb has: %s", err)
	}
	return ok, nil
}

func (l *LevelDB) Set(key, value []byte) error {
	if err := l.db.Put(key, value, nil); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "leveldb put: %s", err)
	}
	return nil
}

func (l *LevelDB) Delete(key []byte) error {
	if err := l.db.Delete(key, nil); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "leveldb delete: %s", err)
	}
	return nil
}

// Iterator loads all values within [start, end) in ascending order.
func (l *LevelDB) Iterator(start, end []byte) (Iterator, error) {
	return l.iterate(start, end, false)
}

// ReverseIterator loads all values within [start, end) in descending order.
func (l *LevelDB) ReverseIterator(start, end []byte) (Iterator, error) {
	return l.iterate(start, end, true)
}

func (l *LevelDB) iterate(start, end []byte, reverse bool) (Iterator, error) {
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	defer it.Release()

	var models []Model
	move, ok := it.Next, it.First()
	if reverse {
		move, ok = it.Prev, it.Last()
	}
	for ; ok; ok = move() {
		// Iterator buffers are reused, copy both key and value.
		key := append([]byte(nil), it.Key()...)
		value := append([]byte(nil), it.Value()...)
		models = append(models, Pair(key, value))
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "leveldb iterator: %s", err)
	}
	return NewSliceIterator(models), nil
}

// NewBatch returns a batch that is written in a single leveldb write.
func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch)}
}

// CacheWrap layers a btree cache on top of the database.
func (l *LevelDB) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(l, l.NewBatch(), nil)
}

// Close releases the database files.
func (l *LevelDB) Close() error {
	if err := l.db.Close(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "leveldb close: %s", err)
	}
	return nil
}

type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelBatch) Set(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelBatch) Write() error {
	if err := b.db.Write(b.batch, nil); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "leveldb batch write: %s", err)
	}
	b.batch.Reset()
	return nil
}
