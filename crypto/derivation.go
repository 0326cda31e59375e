package crypto

import (
	"fmt"

	"github.com/iov-one/custody/errors"
	"github.com/stellar/go/exp/crypto/derivation"
)

// CoinType is the SLIP-0044 coin type used in owner key derivation paths.
const CoinType = 234

// DerivationPath returns the hardened derivation path for the owner key with
// given index.
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'", CoinType, index)
}

// DeriveKey deterministically derives an owner private key from a master
// seed, following SLIP-0010 for ed25519. The same seed and path always
// produce the same key.
func DeriveKey(seed []byte, path string) (*PrivateKey, error) {
	key, err := derivation.DeriveForPath(path, seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "derive %q: %s", path, err)
	}
	return PrivateKeyFromSeed(key.Key)
}
