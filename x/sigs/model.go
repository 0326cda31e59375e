package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// userCapacity fits the largest encoded UserData: a metadata message, an
// ed25519 public key and a 10 byte sequence varint.
const userCapacity = (1 + 1 + 1 + 5) + (1 + 1 + 32) + (1 + 10)

// maxSequenceValue is limited by the client. The greatest supported
// nonce value at client side is
//   Number.MAX_SAFE_INTEGER = 9007199254740991 = 2^53 - 1
const maxSequenceValue = (1 << 53) - 1

// UserData is the signature state of a single public key.
type UserData struct {
	Metadata *custody.Metadata
	Pubkey   crypto.PublicKey
	Sequence int64
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", u.Metadata.Validate())
	if seq := u.Sequence; seq < 0 {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	} else if seq > 0 && u.Pubkey == nil {
		errs = errors.Append(errs, errors.Field("Sequence", ErrInvalidSequence, "needs Pubkey"))
	}
	if u.Pubkey != nil {
		errs = errors.AppendField(errs, "Pubkey", u.Pubkey.Validate())
	}
	return errs
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
// Before incrementing the sequence, this function is testing for a value
// overflow.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

func (u *UserData) Marshal() ([]byte, error) {
	var b []byte
	if u.Metadata != nil {
		var err error
		if b, err = codec.AppendMessage(b, 1, u.Metadata); err != nil {
			return nil, err
		}
	}
	b = codec.AppendBytes(b, 2, u.Pubkey)
	b = codec.AppendVarint(b, 3, uint64(u.Sequence))
	return b, nil
}

func (u *UserData) Unmarshal(raw []byte) error {
	*u = UserData{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			u.Metadata = &custody.Metadata{}
			err = f.Unmarshal(u.Metadata)
		case 2:
			var key []byte
			key, err = f.Copy()
			u.Pubkey = key
		case 3:
			var v uint64
			v, err = f.Uint64()
			u.Sequence = int64(v)
		}
		return err
	})
}

// NewUser returns the initial state of a public key.
func NewUser(pubkey crypto.PublicKey) *UserData {
	return &UserData{
		Metadata: &custody.Metadata{Schema: 1},
		Pubkey:   pubkey,
	}
}

// Bucket stores UserData under the address of its public key.
type Bucket struct {
	orm.RecordBucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{
		RecordBucket: orm.NewRecordBucket(BucketName),
	}
}

// GetUser returns the state stored under the address, or nil if none.
func (b Bucket) GetUser(db custody.ReadOnlyKVStore, addr custody.Address) (*UserData, error) {
	var u UserData
	switch err := b.Load(db, addr, &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// GetOrCreate initializes a UserData if none exist for that key
func (b Bucket) GetOrCreate(db custody.ReadOnlyKVStore, pubkey crypto.PublicKey) (*UserData, error) {
	u, err := b.GetUser(db, pubkey.Address())
	if err == nil && u == nil {
		u = NewUser(pubkey)
	}
	return u, err
}

// Put stores the user state, creating the record if needed.
func (b Bucket) Put(db custody.KVStore, u *UserData) error {
	addr := u.Pubkey.Address()
	has, err := b.Has(db, addr)
	if err != nil {
		return err
	}
	if has {
		return b.Save(db, addr, u)
	}
	return b.Create(db, addr, userCapacity, u)
}
