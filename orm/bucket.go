package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

const (
	// SeqID is a constant to use to get a default ID sequence
	SeqID = "id"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,12}$`).MatchString
)

// Model is anything that can be stored in a RecordBucket.
type Model interface {
	custody.Persistent
	Validate() error
}

// RecordBucket is a prefixed subspace of the DB holding fixed capacity
// records of a single type.
//
// This is a generic building block that should generally
// be embedded in a type-safe wrapper to ensure all data
// is the same type.
type RecordBucket struct {
	name   string
	prefix []byte
}

var _ custody.QueryHandler = RecordBucket{}

// NewRecordBucket creates a bucket to store records. It panics if the name
// is not valid.
func NewRecordBucket(name string) RecordBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return RecordBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of the bucket.
func (b RecordBucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b RecordBucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Create allocates a new cell of given capacity and stores the initial
// value in it. It fails with ErrDuplicate if the key is already in use and
// with ErrCapacityExceeded if the value does not fit.
func (b RecordBucket) Create(db custody.KVStore, key []byte, capacity uint32, value Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if capacity > MaxCapacity {
		return errors.Wrapf(errors.ErrCapacityExceeded, "capacity %d is above the limit", capacity)
	}
	dbkey := b.DBKey(key)
	switch has, err := db.Has(dbkey); {
	case err != nil:
		return errors.Wrap(err, "cannot check record")
	case has:
		return errors.Wrapf(errors.ErrDuplicate, "%s record %X", b.name, key)
	}
	payload, err := marshal(value)
	if err != nil {
		return err
	}
	cell, err := encodeCell(capacity, payload)
	if err != nil {
		return errors.Wrapf(err, "create %s record", b.name)
	}
	return db.Set(dbkey, cell)
}

// Save overwrites the payload of an existing record. The new payload must fit
// into the capacity reserved at creation.
func (b RecordBucket) Save(db custody.KVStore, key []byte, value Model) error {
	dbkey := b.DBKey(key)
	capacity, _, err := b.load(db, dbkey)
	if err != nil {
		return err
	}
	payload, err := marshal(value)
	if err != nil {
		return err
	}
	cell, err := encodeCell(capacity, payload)
	if err != nil {
		return errors.Wrapf(err, "save %s record", b.name)
	}
	return db.Set(dbkey, cell)
}

// Load reads the record stored under the key into dest. It fails with
// ErrNotFound if no record exists.
func (b RecordBucket) Load(db custody.ReadOnlyKVStore, key []byte, dest Model) error {
	_, payload, err := b.load(db, b.DBKey(key))
	if err != nil {
		return err
	}
	if err := dest.Unmarshal(payload); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %s record: %s", b.name, err)
	}
	return nil
}

// Capacity returns the payload capacity reserved for the record.
func (b RecordBucket) Capacity(db custody.ReadOnlyKVStore, key []byte) (uint32, error) {
	capacity, _, err := b.load(db, b.DBKey(key))
	return capacity, err
}

// Has returns true if a record is stored under the key.
func (b RecordBucket) Has(db custody.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

func (b RecordBucket) load(db custody.ReadOnlyKVStore, dbkey []byte) (uint32, []byte, error) {
	raw, err := db.Get(dbkey)
	if err != nil {
		return 0, nil, errors.Wrap(err, "cannot load record")
	}
	if raw == nil {
		return 0, nil, errors.Wrapf(errors.ErrNotFound, "%s record %X", b.name, dbkey[len(b.prefix):])
	}
	return decodeCell(raw)
}

// Register registers this bucket for queries under the given name. When
// name is empty, the bucket name is used.
func (b RecordBucket) Register(name string, r custody.QueryRouter) {
	if name == "" {
		name = b.name
	}
	r.Register("/"+name, b)
}

// Query handles queries from the QueryRouter. Returned values are the
// record payloads, without the cell layout.
func (b RecordBucket) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	switch mod {
	case custody.KeyQueryMod:
		dbkey := b.DBKey(data)
		raw, err := db.Get(dbkey)
		if err != nil {
			return nil, err
		}
		// return nothing on miss
		if raw == nil {
			return nil, nil
		}
		_, payload, err := decodeCell(raw)
		if err != nil {
			return nil, err
		}
		return []custody.Model{custody.Pair(dbkey, payload)}, nil
	case custody.PrefixQueryMod:
		models, err := queryPrefix(db, b.DBKey(data))
		if err != nil {
			return nil, err
		}
		for i, m := range models {
			_, payload, err := decodeCell(m.Value)
			if err != nil {
				return nil, err
			}
			models[i].Value = payload
		}
		return models, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

func marshal(value Model) ([]byte, error) {
	if err := value.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid record")
	}
	payload, err := value.Marshal()
	if err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return payload, nil
}
