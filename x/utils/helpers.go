package utils

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store"
)

// CacheWrap returns a cache wrap of the store. A store that cannot be cache
// wrapped on its own is wrapped by a btree cache.
func CacheWrap(db custody.KVStore) custody.KVCacheWrap {
	if c, ok := db.(custody.CacheableKVStore); ok {
		return c.CacheWrap()
	}
	return store.BTreeCacheable{KVStore: db}.CacheWrap()
}
