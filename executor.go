package custody

import (
	"fmt"
	"regexp"

	"github.com/iov-one/custody/errors"
)

// IsValidExecutor checks the format of an executor identifier. It follows
// the message path convention, ie. "multisig/governance".
var IsValidExecutor = regexp.MustCompile(`^[a-zA-Z0-9_\-]{2,32}(/[a-zA-Z0-9_\-]{2,32})?$`).MatchString

// AccountMeta describes a single participant of a delegated action.
type AccountMeta struct {
	// Address of the participant.
	Address Address
	// IsSigner is true when the participant authorizes the action.
	IsSigner bool
	// IsWritable is true when the action may mutate the participant state.
	IsWritable bool
}

// Validate returns an error if the participant is malformed.
func (a AccountMeta) Validate() error {
	if err := a.Address.Validate(); err != nil {
		return errors.Wrap(err, "account address")
	}
	return nil
}

func (a AccountMeta) String() string {
	return fmt.Sprintf("%s(signer=%t, writable=%t)", a.Address, a.IsSigner, a.IsWritable)
}

// Invocation is a request to run an action on behalf of a delegated
// authority.
type Invocation struct {
	// Executor is the identifier used to locate the executor.
	Executor string
	// Accounts is the ordered participant list.
	Accounts []AccountMeta
	// Payload is opaque to everyone but the executor.
	Payload []byte
	// Authority is the derivation seed of the delegated authority. An
	// executor that wants to trust the IsSigner flag of an account can
	// verify it by comparing the account address with the authority
	// address.
	Authority Condition
}

// Signers returns the addresses of all accounts flagged as authorizers.
func (inv *Invocation) Signers() []Address {
	var res []Address
	for _, a := range inv.Accounts {
		if a.IsSigner {
			res = append(res, a.Address)
		}
	}
	return res
}

// Executor is the external collaborator that runs the delegated actions.
//
// A returned error is opaque to the caller, it is never retried
// automatically. An executor must not leave partial state changes behind
// when it fails.
type Executor interface {
	Invoke(ctx Context, db KVStore, inv *Invocation) error
}

// ExecutorFunc allows to use a function as an Executor.
type ExecutorFunc func(ctx Context, db KVStore, inv *Invocation) error

// Invoke calls the function itself.
func (fn ExecutorFunc) Invoke(ctx Context, db KVStore, inv *Invocation) error {
	return fn(ctx, db, inv)
}

// ExecutorRegistry is the setup side of an executor router.
type ExecutorRegistry interface {
	RegisterExecutor(name string, e Executor)
}
