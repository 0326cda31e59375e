package multisig

import (
	"encoding/json"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file.
type Initializer struct{}

var _ custody.Initializer = (*Initializer)(nil)

// genesisMultisig is the genesis representation of a multisig.
type genesisMultisig struct {
	Owners    []custody.Address `json:"owners"`
	Threshold uint32            `json:"threshold"`
}

// FromGenesis stores the multisig configuration found under conf.multisig,
// then creates every multisig listed under the multisig key. Multisigs are
// created in order, so their IDs follow the genesis order.
func (*Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	if hasConf(opts) {
		if err := gconf.InitConfig(db, opts, configurationPkg, &Configuration{}); err != nil {
			return errors.Wrap(err, "init config")
		}
	}

	next, err := opts.Stream("multisig")
	switch {
	case errors.ErrEmpty.Is(err):
		return nil
	case err != nil:
		return err
	}

	ctrl := NewController(nil)
	for i := 0; ; i++ {
		var g genesisMultisig
		switch err := next(&g); {
		case errors.ErrEmpty.Is(err):
			return nil
		case err != nil:
			return errors.Wrapf(err, "genesis multisig #%d", i)
		}
		if _, _, err := ctrl.CreateMultisig(db, g.Owners, g.Threshold); err != nil {
			return errors.Wrapf(err, "cannot create genesis multisig #%d", i)
		}
	}
}

func hasConf(opts custody.Options) bool {
	var conf map[string]json.RawMessage
	if err := opts.ReadOptions("conf", &conf); err != nil {
		// Let InitConfig report the malformed configuration.
		return true
	}
	_, ok := conf[configurationPkg]
	return ok
}
