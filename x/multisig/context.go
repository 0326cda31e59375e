package multisig

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/x"
)

type contextKey int // local to the multisig module

const (
	contextKeyAuthority contextKey = iota
)

// withAuthority is a private method, as only this module can add an
// authority condition to the context.
func withAuthority(ctx custody.Context, cond custody.Condition) custody.Context {
	return context.WithValue(ctx, contextKeyAuthority, cond)
}

// AuthorityFromContext returns the delegated authority an executor was
// invoked with, if any.
func AuthorityFromContext(ctx custody.Context) custody.Condition {
	cond, _ := ctx.Value(contextKeyAuthority).(custody.Condition)
	return cond
}

// Authenticate gets/sets permissions on the given context key
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the delegated authority condition if an executor is
// running on behalf of a multisig.
func (a Authenticate) GetConditions(ctx custody.Context) []custody.Condition {
	cond := AuthorityFromContext(ctx)
	if cond == nil {
		return nil
	}
	return []custody.Condition{cond}
}

// HasAddress returns true iff this address is the address of the delegated
// authority in the context.
func (a Authenticate) HasAddress(ctx custody.Context, addr custody.Address) bool {
	cond := AuthorityFromContext(ctx)
	if cond == nil {
		return false
	}
	return addr.Equals(cond.Address())
}
