package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// AuthorityCondition returns the derivation seed of the delegated authority
// for the multisig with given ID and nonce. The authority identifier is the
// address of the returned condition.
//
// The function is pure. Distinct (id, nonce) pairs produce distinct seeds
// and the address collision resistance follows from sha256.
func AuthorityCondition(multisigID []byte, nonce uint32) custody.Condition {
	data := make([]byte, 0, len(multisigID)+1)
	data = append(data, multisigID...)
	data = append(data, byte(nonce))
	return custody.NewCondition("multisig", "authority", data)
}

// Derive returns the delegated authority identifier of the multisig.
func Derive(multisigID []byte, nonce uint32) custody.Address {
	return AuthorityCondition(multisigID, nonce).Address()
}

// Authority returns the derivation seed of the multisig stored under id.
func (m *Multisig) Authority(id []byte) custody.Condition {
	return AuthorityCondition(id, m.AuthorityNonce)
}

// VerifyAuthority returns an error unless cond is a well formed multisig
// authority seed deriving addr. Executors use it to check the proof handed
// with an invocation.
func VerifyAuthority(cond custody.Condition, addr custody.Address) error {
	if _, _, err := SplitAuthority(cond); err != nil {
		return err
	}
	if !cond.Address().Equals(addr) {
		return errors.Wrapf(errors.ErrUnauthorized, "authority %s does not derive %s", cond, addr)
	}
	return nil
}

// SplitAuthority returns the multisig ID and the nonce a seed was derived
// from.
func SplitAuthority(cond custody.Condition) ([]byte, uint32, error) {
	ext, typ, data, err := cond.Parse()
	if err != nil {
		return nil, 0, errors.Wrap(err, "authority")
	}
	if ext != "multisig" || typ != "authority" || len(data) != 9 {
		return nil, 0, errors.Wrapf(errors.ErrUnauthorized, "%s is not a multisig authority", cond)
	}
	return data[:8], uint32(data[8]), nil
}

// RecordAddress returns the address of the multisig record stored under id.
// It names the record and is distinct from the delegated authority.
func RecordAddress(multisigID []byte) custody.Address {
	return custody.NewCondition("multisig", "record", multisigID).Address()
}
