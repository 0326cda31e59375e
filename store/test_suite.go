package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest/assert"
)

// TestSuite runs the same set of tests against any CacheableKVStore
// implementation. It is used by the memory, LevelDB and BoltDB backends.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and the function releasing it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// RunAll runs every test of the suite as a subtest.
func (s *TestSuite) RunAll(t *testing.T) {
	t.Run("get set", s.GetSet)
	t.Run("cache conflicts", s.CacheConflicts)
	t.Run("fuzz iterator", s.FuzzIterator)
	t.Run("iterator with conflicts", s.IteratorWithConflicts)
	t.Run("discarded wrap", s.DiscardedWrap)
}

// GetSet checks that cache wrap writes are isolated until written.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	ms := []Model{
		Pair([]byte("multisig:1"), []byte("owners a b c")),
		Pair([]byte("proposal:1"), []byte("transfer")),
		Pair([]byte("proposal:2"), []byte("set owners")),
	}

	s.AssertGetHas(t, base, ms[0].Key, nil, false)
	assert.Nil(t, base.Set(ms[0].Key, ms[0].Value))
	s.AssertGetHas(t, base, ms[0].Key, ms[0].Value, true)

	// A cache reads through to its parent, its writes stay local.
	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, ms[0].Key, ms[0].Value, true)
	assert.Nil(t, cache.Set(ms[1].Key, ms[1].Value))
	s.AssertGetHas(t, cache, ms[1].Key, ms[1].Value, true)
	s.AssertGetHas(t, base, ms[1].Key, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, ms[0].Key, ms[0].Value, true)
	s.AssertGetHas(t, base, ms[1].Key, ms[1].Value, true)

	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(ms[2].Key, ms[2].Value))
	discarded.Discard()
	s.AssertGetHas(t, base, ms[2].Key, nil, false)

	deleting := base.CacheWrap()
	assert.Nil(t, deleting.Delete(ms[0].Key))
	s.AssertGetHas(t, deleting, ms[0].Key, nil, false)
	s.AssertGetHas(t, base, ms[0].Key, ms[0].Value, true)
	assert.Nil(t, deleting.Write())

	s.AssertGetHas(t, base, ms[0].Key, nil, false)
	s.AssertGetHas(t, base, ms[1].Key, ms[1].Value, true)
	s.AssertGetHas(t, base, ms[2].Key, nil, false)
}

// CacheConflicts checks overwrites and deletes of parent values.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 40)

	cases := map[string]struct {
		parentOps []Op
		childOps  []Op
		// Key is queried, Value is expected. A nil value means missing.
		parentWant []Model
		childWant  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:  []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:   []Op{SetOp(ks[1], vs[3]), SetOp(ks[3], vs[0]), DelOp(ks[2])},
			parentWant: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childWant:  []Model{Pair(ks[1], vs[3]), Pair(ks[2], nil), Pair(ks[3], vs[0])},
		},
		"delete then set again": {
			parentOps:  []Op{SetOp(ks[0], vs[0])},
			childOps:   []Op{DelOp(ks[0]), SetOp(ks[0], vs[1])},
			parentWant: []Model{Pair(ks[0], vs[0])},
			childWant:  []Model{Pair(ks[0], vs[1])},
		},
		"delete a missing key": {
			childOps:   []Op{DelOp(ks[0])},
			parentWant: []Model{Pair(ks[0], nil)},
			childWant:  []Model{Pair(ks[0], nil)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			applyOps(t, parent, tc.parentOps)
			child := parent.CacheWrap()
			applyOps(t, child, tc.childOps)

			for _, q := range tc.parentWant {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childWant {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childWant {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// FuzzIterator iterates random content, with deletes of missing keys mixed
// in, over every kind of range.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 50

	child := randModels(size, 8, 40)
	parent := randModels(size, 8, 40)
	childOps := append(makeSetOps(child...), makeDelOps(randModels(20, 8, 40)...)...)
	parentOps := append(makeSetOps(parent...), makeDelOps(randModels(20, 8, 40)...)...)

	cases := map[string]iterCase{
		"child with an empty parent": {
			child:   childOps,
			queries: rangeQueries(sortModels(child)),
		},
		"child and parent combined": {
			pre:     parentOps,
			child:   childOps,
			queries: rangeQueries(sortModels(append(child, parent...))),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// rangeQueries returns open, half open and closed ranges over the sorted
// models, in both directions.
func rangeQueries(sorted []Model) []rangeQuery {
	n := len(sorted)
	return []rangeQuery{
		{nil, nil, false, sorted},
		{sorted[10].Key, nil, false, sorted[10:]},
		{nil, sorted[n-8].Key, false, sorted[:n-8]},
		{sorted[17].Key, sorted[28].Key, false, sorted[17:28]},

		{nil, nil, true, reverse(sorted)},
		{sorted[34].Key, nil, true, reverse(sorted[34:])},
		{nil, sorted[19].Key, true, reverse(sorted[:19])},
		{sorted[6].Key, sorted[26].Key, true, reverse(sorted[6:26])},
	}
}

// IteratorWithConflicts iterates over children that overwrite or delete
// the parent content.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(6, 20, 100)
	a, a2, b, b2, c, d := ms[0], ms[1], ms[2], ms[3], ms[4], ms[5]
	a2.Key = a.Key
	b2.Key = b.Key

	abc := sortModels([]Model{a, b, c})
	overwritten := sortModels([]Model{a2, b2, c, d})

	cases := map[string]iterCase{
		"child only": {
			child: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, abc},
				{abc[1].Key, abc[2].Key, false, abc[1:2]},
				{nil, nil, true, reverse(abc)},
			},
		},
		"parent only": {
			pre: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, abc},
				{abc[1].Key, abc[2].Key, false, abc[1:2]},
				{nil, nil, true, reverse(abc)},
			},
		},
		"split between parent and child": {
			pre:   makeSetOps(a, b),
			child: makeSetOps(c),
			queries: []rangeQuery{
				{nil, nil, false, abc},
				{abc[1].Key, abc[2].Key, false, abc[1:2]},
				{nil, nil, true, reverse(abc)},
			},
		},
		"child values win": {
			pre:   makeSetOps(a, b, c),
			child: makeSetOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, false, overwritten},
				{overwritten[1].Key, overwritten[3].Key, false, overwritten[1:3]},
				{nil, nil, true, reverse(overwritten)},
			},
		},
		"child deletes are skipped": {
			pre:   makeSetOps(a, c, d),
			child: makeDelOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, false, []Model{c}},
				{nil, c.Key, false, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// DiscardedWrap checks that a discarded wrap leaves no trace in the
// underlying store, while a written one lands there completely.
func (s *TestSuite) DiscardedWrap(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	ms := randModels(5, 12, 30)
	applyOps(t, base, makeSetOps(ms[:2]...))

	changes := append(makeDelOps(ms[0]), makeSetOps(ms[2:]...)...)

	failed := base.CacheWrap()
	applyOps(t, failed, changes)
	failed.Discard()

	s.AssertGetHas(t, base, ms[0].Key, ms[0].Value, true)
	for _, m := range ms[2:] {
		s.AssertGetHas(t, base, m.Key, nil, false)
	}

	ok := base.CacheWrap()
	applyOps(t, ok, changes)
	assert.Nil(t, ok.Write())

	s.AssertGetHas(t, base, ms[0].Key, nil, false)
	s.AssertGetHas(t, base, ms[1].Key, ms[1].Value, true)
	for _, m := range ms[2:] {
		s.AssertGetHas(t, base, m.Key, m.Value, true)
	}
}

// AssertGetHas checks both Get and Has for the key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (tc iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	applyOps(t, base, tc.pre)
	child := base.CacheWrap()
	applyOps(t, child, tc.child)

	for _, q := range tc.queries {
		var (
			it  Iterator
			err error
		)
		if q.reverse {
			it, err = child.ReverseIterator(q.start, q.end)
		} else {
			it, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for i, want := range q.expected {
			key, value, err := it.Next()
			assert.Nil(t, err)
			if !bytes.Equal(want.Key, key) {
				t.Fatalf("want key %d to be %X, got %X", i, want.Key, key)
			}
			assert.Equal(t, want.Value, value)
		}
		if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
			t.Fatalf("want iterator done, got %+v", err)
		}
		it.Release()
	}
}

func applyOps(t testing.TB, db SetDeleter, ops []Op) {
	t.Helper()
	for _, op := range ops {
		assert.Nil(t, op.Apply(db))
	}
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
