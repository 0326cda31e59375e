package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/custody/errors"
)

// rangeItems returns all btree items with a key in [start, end) in
// ascending order. A nil bound means no limit.
func rangeItems(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(item btree.Item) bool {
		items = append(items, item.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// mergeItems combines the cached items with the content of the parent
// iterator. Both sources must be ordered in the same direction. Cached
// items take precedence over parent values with the same key and deleted
// items hide them.
func mergeItems(items []keyer, parent Iterator, reverse bool) ([]Model, error) {
	// before returns true if a comes first in the iteration order.
	before := func(a, b []byte) bool {
		cmp := bytes.Compare(a, b)
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	}

	var res []Model
	pkey, pval, err := parent.Next()
	parentDone, err := iterDone(err)
	if err != nil {
		return nil, err
	}

	for len(items) > 0 || !parentDone {
		if !parentDone && (len(items) == 0 || before(pkey, items[0].Key())) {
			res = append(res, Pair(pkey, pval))
			pkey, pval, err = parent.Next()
			if parentDone, err = iterDone(err); err != nil {
				return nil, err
			}
			continue
		}

		item := items[0]
		items = items[1:]
		// Same key in both sources, cached item shadows the parent.
		if !parentDone && bytes.Equal(pkey, item.Key()) {
			pkey, pval, err = parent.Next()
			if parentDone, err = iterDone(err); err != nil {
				return nil, err
			}
		}
		if set, ok := item.(setItem); ok {
			res = append(res, Pair(set.Key(), set.value))
		}
	}
	return res, nil
}

// iterDone converts the ErrIteratorDone into a flag. Any other error is
// returned unchanged.
func iterDone(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.ErrIteratorDone.Is(err) {
		return true, nil
	}
	return false, err
}
