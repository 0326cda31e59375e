package app

import (
	"fmt"
	"sort"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// ExecutorRouter dispatches delegated invocations to the executor registered
// under the invocation executor identifier.
type ExecutorRouter struct {
	executors map[string]custody.Executor
}

var _ custody.ExecutorRegistry = (*ExecutorRouter)(nil)
var _ custody.Executor = (*ExecutorRouter)(nil)

// NewExecutorRouter returns a router with no executors.
func NewExecutorRouter() *ExecutorRouter {
	return &ExecutorRouter{
		executors: make(map[string]custody.Executor),
	}
}

// RegisterExecutor adds an executor under the given identifier. This function
// panics if the identifier is not valid or is already taken.
func (r *ExecutorRouter) RegisterExecutor(name string, e custody.Executor) {
	if !custody.IsValidExecutor(name) {
		panic(fmt.Sprintf("invalid executor name: %s", name))
	}
	if _, ok := r.executors[name]; ok {
		panic(fmt.Sprintf("re-registering executor: %s", name))
	}
	r.executors[name] = e
}

// Invoke runs the invocation using the executor it names. An unknown
// executor results in ErrNotFound.
func (r *ExecutorRouter) Invoke(ctx custody.Context, db custody.KVStore, inv *custody.Invocation) error {
	e, ok := r.executors[inv.Executor]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "no executor %q", inv.Executor)
	}
	return e.Invoke(custody.WithLogInfo(ctx, "executor", inv.Executor), db, inv)
}

// Names returns all registered executor identifiers in alphabetical order.
func (r *ExecutorRouter) Names() []string {
	names := make([]string, 0, len(r.executors))
	for n := range r.executors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
