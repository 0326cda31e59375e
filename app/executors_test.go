package app

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestExecutorRouter(t *testing.T) {
	r := NewExecutorRouter()
	ok := &weavetest.Executor{Key: []byte("payload")}
	broken := &weavetest.Executor{Err: errors.Wrap(errors.ErrState, "broken")}

	r.RegisterExecutor("test/ok", ok)
	r.RegisterExecutor("test/broken", broken)

	assert.Panics(t, func() { r.RegisterExecutor("test/ok", ok) })
	assert.Panics(t, func() { r.RegisterExecutor("x", ok) })
	assert.Panics(t, func() { r.RegisterExecutor("test/with space", ok) })
	assert.Equal(t, []string{"test/broken", "test/ok"}, r.Names())

	ctx := context.Background()
	db := store.MemStore()

	inv := &custody.Invocation{Executor: "test/ok", Payload: []byte("data")}
	assert.Nil(t, r.Invoke(ctx, db, inv))
	assert.Equal(t, 1, ok.CallCount())
	got, err := db.Get([]byte("payload"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("data"), got)

	err = r.Invoke(ctx, db, &custody.Invocation{Executor: "test/broken"})
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, 1, broken.CallCount())

	err = r.Invoke(ctx, db, &custody.Invocation{Executor: "test/unknown"})
	assert.IsErr(t, errors.ErrNotFound, err)
}
