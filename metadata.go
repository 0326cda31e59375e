package custody

import (
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// Metadata is carried by every persisted model. Schema is the version of
// the model layout and allows for future migrations.
type Metadata struct {
	Schema uint32
}

// Validate returns an error if the metadata is not usable.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema must be at least 1")
	}
	return nil
}

// Copy returns a copy of this object.
func (m *Metadata) Copy() *Metadata {
	cpy := *m
	return &cpy
}

func (m *Metadata) Marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return codec.AppendVarint(nil, 1, uint64(m.Schema)), nil
}

func (m *Metadata) Unmarshal(raw []byte) error {
	*m = Metadata{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		if f.Num == 1 {
			m.Schema, err = f.Uint32()
		}
		return err
	})
}
