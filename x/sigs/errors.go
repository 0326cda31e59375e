package sigs

import "github.com/iov-one/custody/errors"

// ErrInvalidSequence is returned when a signature carries a sequence that
// is not the next expected one for its signer.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")
