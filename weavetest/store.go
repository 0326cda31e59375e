package weavetest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store"
)

// CommitKVStore returns a store instance that is using a filesystem backend
// engine to store the data.
// This implementation should be used instead of MemStore when you want the
// exact same storage implementation as the production instance is using.
func CommitKVStore(t testing.TB) (db custody.CommitKVStore, cleanup func()) {
	t.Helper()
	dbpath, err := ioutil.TempDir("", "custody")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	ldb, err := store.NewLevelDB(dbpath)
	if err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot open database: %s", err)
	}
	return ldb, func() {
		ldb.Close()
		os.RemoveAll(dbpath)
	}
}
