package orm

import (
	"fmt"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Index references records of a bucket by a secondary key.
//
// A unique index maps every index key to exactly one reference and refuses
// to overwrite it. A non unique index can hold any number of references per
// index key, listed in the byte order of the references.
type Index struct {
	name   string
	prefix []byte
	unique bool
}

// NewIndex returns an index stored under the "_i.<bucket>_<name>:" prefix.
func NewIndex(bucket, name string, unique bool) Index {
	if !isBucketName(bucket) {
		panic(fmt.Sprintf("Illegal bucket: %s", bucket))
	}
	return Index{
		name:   name,
		prefix: []byte("_i." + bucket + "_" + name + ":"),
		unique: unique,
	}
}

// Add stores a reference under the index key.
func (i Index) Add(db custody.KVStore, key, ref []byte) error {
	if len(key) == 0 || len(key) > 255 {
		return errors.Wrapf(errors.ErrInput, "%s index key length %d", i.name, len(key))
	}
	if len(ref) == 0 {
		return errors.Wrapf(errors.ErrEmpty, "%s index reference", i.name)
	}
	if !i.unique {
		return db.Set(i.refKey(key, ref), ref)
	}

	dbkey := i.uniqueKey(key)
	switch has, err := db.Has(dbkey); {
	case err != nil:
		return errors.Wrap(err, "cannot check index")
	case has:
		return errors.Wrapf(errors.ErrDuplicate, "%s index key %X", i.name, key)
	}
	return db.Set(dbkey, ref)
}

// Has returns true if at least one reference is stored under the key.
func (i Index) Has(db custody.ReadOnlyKVStore, key []byte) (bool, error) {
	if i.unique {
		return db.Has(i.uniqueKey(key))
	}
	refs, err := i.Refs(db, key)
	return len(refs) > 0, err
}

// Refs returns all references stored under the index key.
func (i Index) Refs(db custody.ReadOnlyKVStore, key []byte) ([][]byte, error) {
	if i.unique {
		ref, err := db.Get(i.uniqueKey(key))
		if err != nil || ref == nil {
			return nil, err
		}
		return [][]byte{ref}, nil
	}

	models, err := queryPrefix(db, i.refPrefix(key))
	if err != nil {
		return nil, err
	}
	refs := make([][]byte, len(models))
	for n, m := range models {
		refs[n] = m.Value
	}
	return refs, nil
}

func (i Index) uniqueKey(key []byte) []byte {
	out := make([]byte, 0, len(i.prefix)+len(key))
	out = append(out, i.prefix...)
	return append(out, key...)
}

// refPrefix encodes the key length so that keys of different length never
// share a prefix.
func (i Index) refPrefix(key []byte) []byte {
	out := make([]byte, 0, len(i.prefix)+1+len(key))
	out = append(out, i.prefix...)
	out = append(out, byte(len(key)))
	return append(out, key...)
}

func (i Index) refKey(key, ref []byte) []byte {
	return append(i.refPrefix(key), ref...)
}
