package multisig

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest"
)

// executors is a minimal executor router used by the tests.
type executors map[string]custody.Executor

var _ custody.ExecutorRegistry = executors{}

func (e executors) RegisterExecutor(name string, ex custody.Executor) {
	e[name] = ex
}

func (e executors) Invoke(ctx custody.Context, db custody.KVStore, inv *custody.Invocation) error {
	ex, ok := e[inv.Executor]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "executor %q", inv.Executor)
	}
	return ex.Invoke(ctx, db, inv)
}

// newController returns a controller with the governance executor and a
// mock executor registered as "test/exec".
func newController() (*Controller, *weavetest.Executor) {
	router := executors{}
	ctrl := NewController(router)
	RegisterExecutors(router, ctrl)
	mock := &weavetest.Executor{Key: []byte("test/exec")}
	router.RegisterExecutor("test/exec", mock)
	return ctrl, mock
}

func newOwners(t testing.TB, n int) []custody.Address {
	t.Helper()
	owners := make([]custody.Address, n)
	for i := range owners {
		owners[i] = weavetest.NewCondition().Address()
	}
	return owners
}

func testTarget(t testing.TB, payload string, accounts ...custody.Address) *Target {
	t.Helper()
	target := &Target{Executor: "test/exec", Payload: []byte(payload)}
	for _, a := range accounts {
		target.Accounts = append(target.Accounts, custody.AccountMeta{Address: a, IsWritable: true})
	}
	return target
}

func testContext() custody.Context {
	return custody.WithChainID(context.Background(), "test-chain")
}
