package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Genesis file format. Both JSON and YAML documents are accepted.
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState custody.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return ParseGenesis(raw)
}

// ParseGenesis decodes the genesis document. YAML is converted to JSON first,
// so every extension reads its options as JSON.
func ParseGenesis(raw []byte) (*Genesis, error) {
	js, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot parse genesis: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(js, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot unmarshal genesis: %s", err)
	}
	if !custody.IsValidChainID(gen.ChainID) {
		return nil, errors.Wrapf(errors.ErrInput, "invalid chain id %q", gen.ChainID)
	}
	return &gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...custody.Initializer) custody.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []custody.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, db); err != nil {
			return err
		}
	}
	return nil
}

const chainIDKey = "_c:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(db custody.ReadOnlyKVStore) (string, error) {
	v, err := db.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "cannot load chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(db custody.KVStore, chainID string) error {
	if !custody.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %s", chainID)
	}
	k := []byte(chainIDKey)
	switch has, err := db.Has(k); {
	case err != nil:
		return errors.Wrap(err, "cannot check chain id")
	case has:
		return errors.Wrap(errors.ErrState, "chain id already set")
	}
	return db.Set(k, []byte(chainID))
}
