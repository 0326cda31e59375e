package custody

import (
	"encoding/json"

	"github.com/iov-one/custody/errors"
)

// Handler is a core engine that can process a few specific messages
// This could represent "create multisig", or "approve proposal"
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication, or logging, to many Handlers
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// CheckResult captures any non-error information we want to return
// from a dry run of a transaction.
type CheckResult struct {
	// Data is a machine-parseable return value
	Data []byte
	// Log is human-readable informational string
	Log string
}

// DeliverResult captures any non-error information we want to return
// from a delivered transaction.
type DeliverResult struct {
	// Data is a machine-parseable return value, like the id of a
	// created record
	Data []byte
	// Log is human-readable informational string
	Log string
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	Handle(path string, h Handler)
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "options %q: %s", key, err)
	}
	return nil
}

// Stream expects an array of json elements under the given key and returns
// a function that decodes one element into obj on each call.
//
// When all elements were consumed, ErrEmpty is returned. Any call after that
// returns ErrState. A missing key results in ErrEmpty from Stream itself.
func (o Options) Stream(key string) (func(obj interface{}) error, error) {
	msg := o[key]
	if len(msg) == 0 {
		return nil, errors.Wrapf(errors.ErrEmpty, "no %q key", key)
	}

	var (
		items   []json.RawMessage
		decoded bool
		done    bool
	)
	next := func(obj interface{}) error {
		if done {
			return errors.Wrap(errors.ErrState, "stream closed")
		}
		if !decoded {
			if err := json.Unmarshal(msg, &items); err != nil {
				done = true
				return errors.Wrapf(errors.ErrInput, "%q is not a list: %s", key, err)
			}
			decoded = true
		}
		if len(items) == 0 {
			done = true
			return errors.Wrap(errors.ErrEmpty, "end of stream")
		}
		raw := items[0]
		items = items[1:]
		if err := json.Unmarshal(raw, obj); err != nil {
			return errors.Wrapf(errors.ErrInput, "cannot decode %q element: %s", key, err)
		}
		return nil
	}
	return next, nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
