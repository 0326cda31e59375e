package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	pathCreateMsg              = "multisig/create"
	pathCreateTransactionMsg   = "multisig/propose"
	pathApproveMsg             = "multisig/approve"
	pathExecuteMsg             = "multisig/execute"
	pathSetOwnersMsg           = "multisig/set_owners"
	pathChangeThresholdMsg     = "multisig/change_threshold"
	pathUpdateConfigurationMsg = "multisig/update_configuration"
)

var (
	_ custody.Msg = (*CreateMsg)(nil)
	_ custody.Msg = (*CreateTransactionMsg)(nil)
	_ custody.Msg = (*ApproveMsg)(nil)
	_ custody.Msg = (*ExecuteMsg)(nil)
	_ custody.Msg = (*SetOwnersMsg)(nil)
	_ custody.Msg = (*ChangeThresholdMsg)(nil)
	_ custody.Msg = (*UpdateConfigurationMsg)(nil)
)

// CreateMsg creates a new multisig.
type CreateMsg struct {
	Metadata  *custody.Metadata
	Owners    []custody.Address
	Threshold uint32
}

func (CreateMsg) Path() string {
	return pathCreateMsg
}

func (m *CreateMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateCreate(m.Owners, m.Threshold)
}

// validateCreate checks the owner count, then the threshold, then the owner
// uniqueness.
func validateCreate(owners []custody.Address, threshold uint32) error {
	if n := len(owners); n == 0 || n > OwnersMax {
		return errors.Wrapf(errors.ErrInvalidOwnersLen, "%d owners, want 1 to %d", n, OwnersMax)
	}
	if err := ValidateThreshold(threshold, len(owners)); err != nil {
		return err
	}
	return AssertUniqueOwners(owners)
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	b, err := appendMetadata(nil, m.Metadata)
	if err != nil {
		return nil, err
	}
	b = codec.AppendRepeatedBytes(b, 2, addressBytes(m.Owners))
	b = codec.AppendVarint(b, 3, uint64(m.Threshold))
	return b, nil
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	*m = CreateMsg{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata, err = decodeMetadata(f)
		case 2:
			var owner []byte
			owner, err = f.Copy()
			m.Owners = append(m.Owners, owner)
		case 3:
			m.Threshold, err = f.Uint32()
		}
		return err
	})
}

// ValidateThreshold checks the threshold of a multisig being created. The
// threshold must be strictly lower than the owner count.
func ValidateThreshold(threshold uint32, owners int) error {
	if threshold == 0 || int(threshold) >= owners {
		return errors.Wrapf(errors.ErrInvalidThreshold,
			"threshold %d with %d owners, want 0 < threshold < owners", threshold, owners)
	}
	return nil
}

// CreateTransactionMsg creates a new proposal for a multisig. The signer
// must be an owner of the multisig.
type CreateTransactionMsg struct {
	Metadata   *custody.Metadata
	MultisigID []byte
	Target     *Target
	// Capacity is the record capacity to reserve. Zero reserves the
	// planned capacity.
	Capacity uint32
}

func (CreateTransactionMsg) Path() string {
	return pathCreateTransactionMsg
}

func (m *CreateTransactionMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	var errs error
	errs = errors.AppendField(errs, "MultisigID", orm.ValidateSequence(m.MultisigID))
	if m.Target == nil {
		errs = errors.AppendField(errs, "Target", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Target", m.Target.Validate())
	}
	if m.Capacity > orm.MaxCapacity {
		errs = errors.AppendField(errs, "Capacity", errors.Wrapf(errors.ErrCapacityExceeded, "%d above the limit", m.Capacity))
	}
	return errs
}

func (m *CreateTransactionMsg) Marshal() ([]byte, error) {
	b, err := appendMetadata(nil, m.Metadata)
	if err != nil {
		return nil, err
	}
	b = codec.AppendBytes(b, 2, m.MultisigID)
	if m.Target != nil {
		if b, err = codec.AppendMessage(b, 3, m.Target); err != nil {
			return nil, err
		}
	}
	b = codec.AppendVarint(b, 4, uint64(m.Capacity))
	return b, nil
}

func (m *CreateTransactionMsg) Unmarshal(raw []byte) error {
	*m = CreateTransactionMsg{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata, err = decodeMetadata(f)
		case 2:
			m.MultisigID, err = f.Copy()
		case 3:
			m.Target = &Target{}
			err = f.Unmarshal(m.Target)
		case 4:
			m.Capacity, err = f.Uint32()
		}
		return err
	})
}

// ApproveMsg adds the signer approval to a proposal.
type ApproveMsg struct {
	Metadata   *custody.Metadata
	ProposalID []byte
}

func (ApproveMsg) Path() string {
	return pathApproveMsg
}

func (m *ApproveMsg) Validate() error {
	return validateProposalRef(m.Metadata, m.ProposalID)
}

func (m *ApproveMsg) Marshal() ([]byte, error) {
	return marshalProposalRef(m.Metadata, m.ProposalID)
}

func (m *ApproveMsg) Unmarshal(raw []byte) error {
	*m = ApproveMsg{}
	return unmarshalProposalRef(raw, &m.Metadata, &m.ProposalID)
}

// ExecuteMsg runs the action of an approved proposal.
type ExecuteMsg struct {
	Metadata   *custody.Metadata
	ProposalID []byte
}

func (ExecuteMsg) Path() string {
	return pathExecuteMsg
}

func (m *ExecuteMsg) Validate() error {
	return validateProposalRef(m.Metadata, m.ProposalID)
}

func (m *ExecuteMsg) Marshal() ([]byte, error) {
	return marshalProposalRef(m.Metadata, m.ProposalID)
}

func (m *ExecuteMsg) Unmarshal(raw []byte) error {
	*m = ExecuteMsg{}
	return unmarshalProposalRef(raw, &m.Metadata, &m.ProposalID)
}

func validateProposalRef(meta *custody.Metadata, id []byte) error {
	if err := meta.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return errors.AppendField(nil, "ProposalID", orm.ValidateSequence(id))
}

func marshalProposalRef(meta *custody.Metadata, id []byte) ([]byte, error) {
	b, err := appendMetadata(nil, meta)
	if err != nil {
		return nil, err
	}
	return codec.AppendBytes(b, 2, id), nil
}

func unmarshalProposalRef(raw []byte, meta **custody.Metadata, id *[]byte) error {
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			*meta, err = decodeMetadata(f)
		case 2:
			*id, err = f.Copy()
		}
		return err
	})
}

// SetOwnersMsg replaces the owner set of a multisig. It is only accepted as
// a governance action executed with the multisig authority.
type SetOwnersMsg struct {
	Metadata   *custody.Metadata
	MultisigID []byte
	Owners     []custody.Address
}

func (SetOwnersMsg) Path() string {
	return pathSetOwnersMsg
}

func (m *SetOwnersMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := orm.ValidateSequence(m.MultisigID); err != nil {
		return errors.Field("MultisigID", err, "invalid multisig ID")
	}
	return AssertUniqueOwners(m.Owners)
}

func (m *SetOwnersMsg) Marshal() ([]byte, error) {
	b, err := appendMetadata(nil, m.Metadata)
	if err != nil {
		return nil, err
	}
	b = codec.AppendBytes(b, 2, m.MultisigID)
	b = codec.AppendRepeatedBytes(b, 3, addressBytes(m.Owners))
	return b, nil
}

func (m *SetOwnersMsg) Unmarshal(raw []byte) error {
	*m = SetOwnersMsg{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata, err = decodeMetadata(f)
		case 2:
			m.MultisigID, err = f.Copy()
		case 3:
			var owner []byte
			owner, err = f.Copy()
			m.Owners = append(m.Owners, owner)
		}
		return err
	})
}

// ChangeThresholdMsg updates the threshold of a multisig. It is only
// accepted as a governance action executed with the multisig authority.
type ChangeThresholdMsg struct {
	Metadata   *custody.Metadata
	MultisigID []byte
	Threshold  uint32
}

func (ChangeThresholdMsg) Path() string {
	return pathChangeThresholdMsg
}

func (m *ChangeThresholdMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := orm.ValidateSequence(m.MultisigID); err != nil {
		return errors.Field("MultisigID", err, "invalid multisig ID")
	}
	if m.Threshold == 0 {
		return errors.Wrap(errors.ErrInvalidThreshold, "threshold must be greater than zero")
	}
	return nil
}

func (m *ChangeThresholdMsg) Marshal() ([]byte, error) {
	b, err := appendMetadata(nil, m.Metadata)
	if err != nil {
		return nil, err
	}
	b = codec.AppendBytes(b, 2, m.MultisigID)
	b = codec.AppendVarint(b, 3, uint64(m.Threshold))
	return b, nil
}

func (m *ChangeThresholdMsg) Unmarshal(raw []byte) error {
	*m = ChangeThresholdMsg{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata, err = decodeMetadata(f)
		case 2:
			m.MultisigID, err = f.Copy()
		case 3:
			m.Threshold, err = f.Uint32()
		}
		return err
	})
}

// UpdateConfigurationMsg patches the multisig configuration. It must be
// signed by the configuration owner.
type UpdateConfigurationMsg struct {
	Metadata *custody.Metadata
	Patch    *Configuration
}

func (UpdateConfigurationMsg) Path() string {
	return pathUpdateConfigurationMsg
}

func (m *UpdateConfigurationMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Patch == nil {
		return errors.Field("Patch", errors.ErrEmpty, "patch is required")
	}
	// Zero fields of a patch are not applied, so the patch alone is not
	// validated. The patched configuration is.
	return nil
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error) {
	b, err := appendMetadata(nil, m.Metadata)
	if err != nil {
		return nil, err
	}
	if m.Patch != nil {
		if b, err = codec.AppendMessage(b, 2, m.Patch); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error {
	*m = UpdateConfigurationMsg{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata, err = decodeMetadata(f)
		case 2:
			m.Patch = &Configuration{}
			err = f.Unmarshal(m.Patch)
		}
		return err
	})
}

func appendMetadata(b []byte, meta *custody.Metadata) ([]byte, error) {
	if meta == nil {
		return b, nil
	}
	return codec.AppendMessage(b, 1, meta)
}

func decodeMetadata(f codec.Field) (*custody.Metadata, error) {
	var meta custody.Metadata
	if err := f.Unmarshal(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
