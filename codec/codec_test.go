package codec

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest/assert"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestZeroValuesAreOmitted(t *testing.T) {
	var b []byte
	b = AppendBytes(b, 1, nil)
	b = AppendString(b, 2, "")
	b = AppendVarint(b, 3, 0)
	b = AppendBool(b, 4, false)
	b = AppendPackedBools(b, 5, nil)
	assert.Equal(t, 0, len(b))
}

func TestDecodeFields(t *testing.T) {
	var b []byte
	b = AppendBytes(b, 1, []byte("id"))
	b = AppendString(b, 2, "multisig/governance")
	b = AppendVarint(b, 3, 7)
	b = AppendBool(b, 4, true)
	b = AppendPackedBools(b, 5, []bool{true, false, true})
	b = AppendRepeatedBytes(b, 6, [][]byte{[]byte("a"), nil})
	// unknown fixed size field is skipped
	b = protowire.AppendTag(b, 9, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 11)

	var (
		id       []byte
		executor string
		num      uint32
		flag     bool
		bits     []bool
		list     [][]byte
	)
	err := Decode(b, func(f Field) error {
		var err error
		switch f.Num {
		case 1:
			id, err = f.Copy()
		case 2:
			executor, err = f.Text()
		case 3:
			num, err = f.Uint32()
		case 4:
			flag, err = f.Bool()
		case 5:
			bits, err = f.Bools()
		case 6:
			var v []byte
			v, err = f.Copy()
			list = append(list, v)
		default:
			t.Fatalf("unexpected field %d", f.Num)
		}
		return err
	})
	assert.Nil(t, err)
	assert.Equal(t, []byte("id"), id)
	assert.Equal(t, "multisig/governance", executor)
	assert.Equal(t, uint32(7), num)
	assert.Equal(t, true, flag)
	assert.Equal(t, []bool{true, false, true}, bits)
	assert.Equal(t, [][]byte{[]byte("a"), {}}, list)
}

func TestUnpackedBools(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 0)

	var bits []bool
	assert.Nil(t, Decode(b, func(f Field) error {
		v, err := f.Bools()
		bits = append(bits, v...)
		return err
	}))
	assert.Equal(t, []bool{true, false}, bits)
}

func TestDecodeErrors(t *testing.T) {
	// truncated length delimited field
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendVarint(b, 10)
	err := Decode(append(b, 1, 2), func(Field) error { return nil })
	assert.IsErr(t, errors.ErrInput, err)

	// overflow of a 32 bit value
	b = AppendVarint(nil, 1, 1<<40)
	err = Decode(b, func(f Field) error {
		_, err := f.Uint32()
		return err
	})
	assert.IsErr(t, errors.ErrOverflow, err)

	// type mismatch
	b = AppendVarint(nil, 1, 5)
	err = Decode(b, func(f Field) error {
		_, err := f.Copy()
		return err
	})
	assert.IsErr(t, errors.ErrInput, err)
}

func TestSizes(t *testing.T) {
	b := AppendBytes(nil, 1, make([]byte, 200))
	assert.Equal(t, len(b), SizeBytesField(1, 200))

	b = AppendVarint(nil, 2, 300)
	assert.Equal(t, len(b), SizeVarintField(2, 300))

	b = AppendPackedBools(nil, 3, make([]bool, 8))
	assert.Equal(t, len(b), SizePackedBools(3, 8))
}
