/*
Package codec provides the helpers used to hand write protobuf wire format
encoders and decoders for the persisted models and messages.

Encoding follows proto3 rules: zero values (empty bytes, false, 0) are
omitted from the output and repeated scalars are packed. Decoding skips
unknown fields and accepts both packed and unpacked repeated booleans.
*/
package codec

import (
	"math"

	"github.com/iov-one/custody/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Number is a protobuf field number.
type Number = protowire.Number

// Marshaler is implemented by nested messages.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// AppendBytes appends a length delimited field. Empty values are omitted.
func AppendBytes(b []byte, num Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendRepeatedBytes appends one length delimited field per value. Unlike
// AppendBytes, empty values are kept to preserve the list length.
func AppendRepeatedBytes(b []byte, num Number, vs [][]byte) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	return b
}

// AppendString appends a string field. Empty values are omitted.
func AppendString(b []byte, num Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// AppendVarint appends an unsigned integer field. Zero is omitted.
func AppendVarint(b []byte, num Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendBool appends a boolean field. False is omitted.
func AppendBool(b []byte, num Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

// AppendPackedBools appends a packed repeated boolean field. An empty list is
// omitted.
func AppendPackedBools(b []byte, num Number, vs []bool) []byte {
	if len(vs) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(vs)))
	for _, v := range vs {
		b = protowire.AppendVarint(b, protowire.EncodeBool(v))
	}
	return b
}

// AppendMessage appends a nested message. A nil message is omitted, an empty
// one is kept so that its presence survives a round trip.
func AppendMessage(b []byte, num Number, m Marshaler) ([]byte, error) {
	if m == nil {
		return b, nil
	}
	raw, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, raw), nil
}

// SizeBytesField returns the encoded size of a length delimited field
// holding n bytes.
func SizeBytesField(num Number, n int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(n)
}

// SizeVarintField returns the encoded size of a varint field holding v.
func SizeVarintField(num Number, v uint64) int {
	return protowire.SizeTag(num) + protowire.SizeVarint(v)
}

// SizePackedBools returns the encoded size of a packed list of n booleans.
func SizePackedBools(num Number, n int) int {
	// Every boolean is a single byte varint.
	return SizeBytesField(num, n)
}

// Field is a single decoded field.
type Field struct {
	Num  Number
	Type protowire.Type
	// Varint holds the value of varint fields.
	Varint uint64
	// Bytes holds the value of length delimited fields. It references the
	// decoded buffer.
	Bytes []byte
}

// Bool returns the value of a varint field as a boolean.
func (f Field) Bool() (bool, error) {
	if f.Type != protowire.VarintType {
		return false, errors.Wrapf(errors.ErrInput, "field %d: want varint", f.Num)
	}
	return protowire.DecodeBool(f.Varint), nil
}

// Uint64 returns the value of a varint field.
func (f Field) Uint64() (uint64, error) {
	if f.Type != protowire.VarintType {
		return 0, errors.Wrapf(errors.ErrInput, "field %d: want varint", f.Num)
	}
	return f.Varint, nil
}

// Uint32 returns the value of a varint field, failing on overflow.
func (f Field) Uint32() (uint32, error) {
	v, err := f.Uint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, errors.Wrapf(errors.ErrOverflow, "field %d: %d", f.Num, v)
	}
	return uint32(v), nil
}

// Copy returns a copy of a length delimited value.
func (f Field) Copy() ([]byte, error) {
	if f.Type != protowire.BytesType {
		return nil, errors.Wrapf(errors.ErrInput, "field %d: want bytes", f.Num)
	}
	return append([]byte{}, f.Bytes...), nil
}

// Text returns a length delimited value as a string.
func (f Field) Text() (string, error) {
	if f.Type != protowire.BytesType {
		return "", errors.Wrapf(errors.ErrInput, "field %d: want bytes", f.Num)
	}
	return string(f.Bytes), nil
}

// Bools decodes a repeated boolean field. Packed and unpacked encodings are
// both accepted.
func (f Field) Bools() ([]bool, error) {
	switch f.Type {
	case protowire.VarintType:
		return []bool{protowire.DecodeBool(f.Varint)}, nil
	case protowire.BytesType:
		var res []bool
		raw := f.Bytes
		for len(raw) > 0 {
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return nil, errors.Wrapf(errors.ErrInput, "field %d: %s", f.Num, protowire.ParseError(n))
			}
			res = append(res, protowire.DecodeBool(v))
			raw = raw[n:]
		}
		return res, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "field %d: want bools", f.Num)
	}
}

// Unmarshal decodes a nested message.
func (f Field) Unmarshal(dst interface{ Unmarshal([]byte) error }) error {
	if f.Type != protowire.BytesType {
		return errors.Wrapf(errors.ErrInput, "field %d: want message", f.Num)
	}
	return dst.Unmarshal(f.Bytes)
}

// Decode calls fn for every field found in raw, in order. Groups and fixed
// size fields are skipped, as no model uses them.
func Decode(raw []byte, fn func(Field) error) error {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return errors.Wrapf(errors.ErrInput, "tag: %s", protowire.ParseError(n))
		}
		raw = raw[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(raw)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(raw)
		default:
			n = protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: %s", num, protowire.ParseError(n))
			}
			raw = raw[n:]
			continue
		}
		if n < 0 {
			return errors.Wrapf(errors.ErrInput, "field %d: %s", num, protowire.ParseError(n))
		}
		raw = raw[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
