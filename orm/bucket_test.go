package orm

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest/assert"
)

// blob is a record holding raw bytes.
type blob struct {
	Data []byte
}

func (b *blob) Validate() error {
	if len(b.Data) == 0 {
		return errors.Wrap(errors.ErrEmpty, "data")
	}
	return nil
}

func (b *blob) Marshal() ([]byte, error) { return b.Data, nil }

func (b *blob) Unmarshal(raw []byte) error {
	b.Data = append([]byte{}, raw...)
	return nil
}

func TestRecordBucketLifecycle(t *testing.T) {
	db := store.MemStore()
	b := NewRecordBucket("blobs")
	key := []byte("one")

	assert.IsErr(t, errors.ErrNotFound, b.Load(db, key, &blob{}))

	assert.Nil(t, b.Create(db, key, 16, &blob{Data: []byte("hello")}))
	assert.IsErr(t, errors.ErrDuplicate, b.Create(db, key, 32, &blob{Data: []byte("again")}))

	capacity, err := b.Capacity(db, key)
	assert.Nil(t, err)
	assert.Equal(t, uint32(16), capacity)

	var got blob
	assert.Nil(t, b.Load(db, key, &got))
	assert.Equal(t, []byte("hello"), got.Data)

	// A shorter value does not leak bytes of the previous one.
	assert.Nil(t, b.Save(db, key, &blob{Data: []byte("hi")}))
	assert.Nil(t, b.Load(db, key, &got))
	assert.Equal(t, []byte("hi"), got.Data)

	// Exactly the capacity still fits.
	full := []byte("0123456789abcdef")
	assert.Nil(t, b.Save(db, key, &blob{Data: full}))
	assert.Nil(t, b.Load(db, key, &got))
	assert.Equal(t, full, got.Data)

	// One byte more does not, and the record is left unchanged.
	assert.IsErr(t, errors.ErrCapacityExceeded, b.Save(db, key, &blob{Data: append(full, 'x')}))
	assert.Nil(t, b.Load(db, key, &got))
	assert.Equal(t, full, got.Data)

	// Capacity never grows.
	capacity, err = b.Capacity(db, key)
	assert.Nil(t, err)
	assert.Equal(t, uint32(16), capacity)

	// Stored cell is always header plus the full capacity.
	raw, err := db.Get(b.DBKey(key))
	assert.Nil(t, err)
	assert.Equal(t, CellHeaderSize+16, len(raw))
}

func TestRecordBucketCreateErrors(t *testing.T) {
	cases := map[string]struct {
		key      []byte
		capacity uint32
		value    *blob
		wantErr  *errors.Error
	}{
		"value too big": {
			key:      []byte("a"),
			capacity: 2,
			value:    &blob{Data: []byte("abc")},
			wantErr:  errors.ErrCapacityExceeded,
		},
		"capacity above limit": {
			key:      []byte("a"),
			capacity: MaxCapacity + 1,
			value:    &blob{Data: []byte("abc")},
			wantErr:  errors.ErrCapacityExceeded,
		},
		"invalid value": {
			key:      []byte("a"),
			capacity: 10,
			value:    &blob{},
			wantErr:  errors.ErrEmpty,
		},
		"missing key": {
			capacity: 10,
			value:    &blob{Data: []byte("abc")},
			wantErr:  errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			b := NewRecordBucket("blobs")
			assert.IsErr(t, tc.wantErr, b.Create(db, tc.key, tc.capacity, tc.value))
			if len(tc.key) > 0 {
				has, err := b.Has(db, tc.key)
				assert.Nil(t, err)
				assert.Equal(t, false, has)
			}
		})
	}
}

func TestRecordBucketSaveMissing(t *testing.T) {
	db := store.MemStore()
	b := NewRecordBucket("blobs")
	assert.IsErr(t, errors.ErrNotFound, b.Save(db, []byte("nope"), &blob{Data: []byte("x")}))
}

func TestRecordBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewRecordBucket("blobs")
	other := NewRecordBucket("others")

	assert.Nil(t, b.Create(db, []byte("aa"), 8, &blob{Data: []byte("first")}))
	assert.Nil(t, b.Create(db, []byte("ab"), 8, &blob{Data: []byte("second")}))
	assert.Nil(t, b.Create(db, []byte("b"), 8, &blob{Data: []byte("third")}))
	assert.Nil(t, other.Create(db, []byte("aa"), 8, &blob{Data: []byte("other")}))

	qr := custody.NewQueryRouter()
	b.Register("", qr)
	h := qr.Handler("/blobs")
	assert.NotNil(t, h)

	res, err := h.Query(db, custody.KeyQueryMod, []byte("ab"))
	assert.Nil(t, err)
	assert.Equal(t, []custody.Model{custody.Pair(b.DBKey([]byte("ab")), []byte("second"))}, res)

	res, err = h.Query(db, custody.KeyQueryMod, []byte("zz"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(res))

	res, err = h.Query(db, custody.PrefixQueryMod, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []custody.Model{
		custody.Pair(b.DBKey([]byte("aa")), []byte("first")),
		custody.Pair(b.DBKey([]byte("ab")), []byte("second")),
	}, res)

	_, err = h.Query(db, "range", nil)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestIllegalBucketName(t *testing.T) {
	assert.Panics(t, func() { NewRecordBucket("B") })
	assert.Panics(t, func() { NewIndex("no-dash", "x", false) })
}

func TestPrefixRange(t *testing.T) {
	cases := map[string]struct {
		prefix []byte
		end    []byte
	}{
		"empty":        {nil, nil},
		"simple":       {[]byte("abc"), []byte("abd")},
		"overflow":     {[]byte{1, 0xff}, []byte{2, 0}},
		"all overflow": {[]byte{0xff, 0xff}, nil},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			start, end := PrefixRange(tc.prefix)
			assert.Equal(t, tc.prefix, start)
			assert.Equal(t, tc.end, end)
		})
	}
}
