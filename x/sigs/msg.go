package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

const (
	pathBumpSequenceMsg = "sigs/bump_sequence"

	maxSequenceIncrement = 1000
	minSequenceIncrement = 1
)

var _ custody.Msg = (*BumpSequenceMsg)(nil)

// BumpSequenceMsg increments the sequence of the main signer. It allows to
// invalidate signed requests that were never submitted.
type BumpSequenceMsg struct {
	Metadata  *custody.Metadata
	Increment uint32
}

func (msg *BumpSequenceMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if msg.Increment < minSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must be at least %d", minSequenceIncrement)
	}
	if msg.Increment > maxSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must not be greater than %d", maxSequenceIncrement)
	}
	return nil
}

func (BumpSequenceMsg) Path() string {
	return pathBumpSequenceMsg
}

func (msg *BumpSequenceMsg) Marshal() ([]byte, error) {
	var b []byte
	if msg.Metadata != nil {
		var err error
		if b, err = codec.AppendMessage(b, 1, msg.Metadata); err != nil {
			return nil, err
		}
	}
	return codec.AppendVarint(b, 2, uint64(msg.Increment)), nil
}

func (msg *BumpSequenceMsg) Unmarshal(raw []byte) error {
	*msg = BumpSequenceMsg{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			msg.Metadata = &custody.Metadata{}
			err = f.Unmarshal(msg.Metadata)
		case 2:
			msg.Increment, err = f.Uint32()
		}
		return err
	})
}
