package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const configurationPkg = "multisig"

// Configuration holds the limits enforced by the multisig extension.
type Configuration struct {
	Metadata *custody.Metadata
	// Owner is the address allowed to update the configuration.
	Owner custody.Address
	// OwnersMax limits the owner set size. It cannot be above OwnersMax,
	// as multisig records reserve capacity for that many owners.
	OwnersMax uint32
	// MaxAccounts limits the participant list of a proposal target.
	MaxAccounts uint32
	// MaxPayloadSize limits the payload of a proposal target.
	MaxPayloadSize uint32
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

// DefaultConfiguration is used when no configuration was stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata:       &custody.Metadata{Schema: 1},
		OwnersMax:      OwnersMax,
		MaxAccounts:    32,
		MaxPayloadSize: 64 * 1024,
	}
}

func (c *Configuration) GetOwner() custody.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	var errs error
	if len(c.Owner) != 0 {
		errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	}
	if c.OwnersMax < 2 || c.OwnersMax > OwnersMax {
		errs = errors.AppendField(errs, "OwnersMax",
			errors.Wrapf(errors.ErrInput, "%d not in range 2 to %d", c.OwnersMax, OwnersMax))
	}
	if c.MaxAccounts == 0 {
		errs = errors.AppendField(errs, "MaxAccounts", errors.ErrEmpty)
	}
	if c.MaxPayloadSize == 0 {
		errs = errors.AppendField(errs, "MaxPayloadSize", errors.ErrEmpty)
	}
	return errs
}

func (c *Configuration) Marshal() ([]byte, error) {
	b, err := appendMetadata(nil, c.Metadata)
	if err != nil {
		return nil, err
	}
	b = codec.AppendBytes(b, 2, c.Owner)
	b = codec.AppendVarint(b, 3, uint64(c.OwnersMax))
	b = codec.AppendVarint(b, 4, uint64(c.MaxAccounts))
	b = codec.AppendVarint(b, 5, uint64(c.MaxPayloadSize))
	return b, nil
}

func (c *Configuration) Unmarshal(raw []byte) error {
	*c = Configuration{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			c.Metadata, err = decodeMetadata(f)
		case 2:
			var owner []byte
			owner, err = f.Copy()
			c.Owner = owner
		case 3:
			c.OwnersMax, err = f.Uint32()
		case 4:
			c.MaxAccounts, err = f.Uint32()
		case 5:
			c.MaxPayloadSize, err = f.Uint32()
		}
		return err
	})
}

// loadConf returns the stored configuration, or the default one when none
// was stored.
func loadConf(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, configurationPkg, &conf); {
	case err == nil:
		return conf, nil
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	default:
		return conf, errors.Wrap(err, "load configuration")
	}
}

// checkTarget enforces the configured target limits.
func (c Configuration) checkTarget(t *Target) error {
	if n := len(t.Accounts); n > int(c.MaxAccounts) {
		return errors.Wrapf(errors.ErrInput, "%d accounts, at most %d allowed", n, c.MaxAccounts)
	}
	if n := len(t.Payload); n > int(c.MaxPayloadSize) {
		return errors.Wrapf(errors.ErrInput, "%d payload bytes, at most %d allowed", n, c.MaxPayloadSize)
	}
	return nil
}

// checkOwners enforces the configured owner set size.
func (c Configuration) checkOwners(owners []custody.Address) error {
	if n := len(owners); n > int(c.OwnersMax) {
		return errors.Wrapf(errors.ErrInvalidOwnersLen, "%d owners, at most %d allowed", n, c.OwnersMax)
	}
	return nil
}
