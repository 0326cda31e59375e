package weavetest

import (
	"sync"

	"github.com/iov-one/custody"
)

// Executor is a mock implementation of the custody.Executor interface.
//
// Every invocation is recorded. When Err is set it is returned and nothing
// is written. Otherwise, when Key is set, the payload is written under Key
// so that tests can observe the state change.
type Executor struct {
	mu          sync.Mutex
	invocations []custody.Invocation

	// Err if set is returned by every invocation.
	Err error
	// Key if set is used to store the invocation payload.
	Key []byte
	// Fn if set is called after the invocation is recorded and its result
	// is returned.
	Fn func(custody.Context, custody.KVStore, *custody.Invocation) error
}

var _ custody.Executor = (*Executor)(nil)

func (e *Executor) Invoke(ctx custody.Context, db custody.KVStore, inv *custody.Invocation) error {
	e.mu.Lock()
	cpy := *inv
	cpy.Accounts = append([]custody.AccountMeta(nil), inv.Accounts...)
	e.invocations = append(e.invocations, cpy)
	e.mu.Unlock()

	if e.Err != nil {
		return e.Err
	}
	if e.Key != nil {
		if err := db.Set(e.Key, inv.Payload); err != nil {
			return err
		}
	}
	if e.Fn != nil {
		return e.Fn(ctx, db, inv)
	}
	return nil
}

// CallCount returns the number of invocations.
func (e *Executor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.invocations)
}

// Invocations returns a copy of all recorded invocations, in call order.
func (e *Executor) Invocations() []custody.Invocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]custody.Invocation(nil), e.invocations...)
}
