package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// GovernanceExecutorName is the executor identifier of the governance
// actions that modify a multisig.
const GovernanceExecutorName = "multisig/governance"

// GovernanceAction is the payload of a governance proposal. Exactly one of
// the actions must be set.
type GovernanceAction struct {
	SetOwners       *SetOwnersMsg
	ChangeThreshold *ChangeThresholdMsg
}

func (a *GovernanceAction) Validate() error {
	switch {
	case a.SetOwners != nil && a.ChangeThreshold != nil:
		return errors.Wrap(errors.ErrInput, "more than one action")
	case a.SetOwners != nil:
		return a.SetOwners.Validate()
	case a.ChangeThreshold != nil:
		return a.ChangeThreshold.Validate()
	default:
		return errors.Wrap(errors.ErrEmpty, "action")
	}
}

// MultisigID returns the ID of the multisig the action modifies.
func (a *GovernanceAction) MultisigID() []byte {
	if a.SetOwners != nil {
		return a.SetOwners.MultisigID
	}
	if a.ChangeThreshold != nil {
		return a.ChangeThreshold.MultisigID
	}
	return nil
}

func (a *GovernanceAction) Marshal() ([]byte, error) {
	var b []byte
	var err error
	if a.SetOwners != nil {
		if b, err = codec.AppendMessage(b, 1, a.SetOwners); err != nil {
			return nil, err
		}
	}
	if a.ChangeThreshold != nil {
		if b, err = codec.AppendMessage(b, 2, a.ChangeThreshold); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (a *GovernanceAction) Unmarshal(raw []byte) error {
	*a = GovernanceAction{}
	return codec.Decode(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			a.SetOwners = &SetOwnersMsg{}
			return f.Unmarshal(a.SetOwners)
		case 2:
			a.ChangeThreshold = &ChangeThresholdMsg{}
			return f.Unmarshal(a.ChangeThreshold)
		}
		return nil
	})
}

// SetOwnersTarget returns the proposal target replacing the owner set of the
// multisig. The multisig authority is the only participant.
func SetOwnersTarget(multisigID []byte, authority custody.Address, owners []custody.Address) (*Target, error) {
	return governanceTarget(authority, &GovernanceAction{
		SetOwners: &SetOwnersMsg{
			Metadata:   &custody.Metadata{Schema: 1},
			MultisigID: multisigID,
			Owners:     owners,
		},
	})
}

// ChangeThresholdTarget returns the proposal target changing the threshold
// of the multisig. The multisig authority is the only participant.
func ChangeThresholdTarget(multisigID []byte, authority custody.Address, threshold uint32) (*Target, error) {
	return governanceTarget(authority, &GovernanceAction{
		ChangeThreshold: &ChangeThresholdMsg{
			Metadata:   &custody.Metadata{Schema: 1},
			MultisigID: multisigID,
			Threshold:  threshold,
		},
	})
}

func governanceTarget(authority custody.Address, action *GovernanceAction) (*Target, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	payload, err := action.Marshal()
	if err != nil {
		return nil, err
	}
	return &Target{
		Executor: GovernanceExecutorName,
		Accounts: []custody.AccountMeta{
			{Address: authority, IsSigner: false, IsWritable: true},
		},
		Payload: payload,
	}, nil
}

// GovernanceExecutor applies governance actions. An action is accepted only
// when invoked with the delegated authority of the multisig it modifies, so
// the owner set and the threshold can only change through an executed
// proposal of that multisig.
type GovernanceExecutor struct {
	ctrl *Controller
}

var _ custody.Executor = GovernanceExecutor{}

// NewGovernanceExecutor returns an executor applying governance actions with
// given controller.
func NewGovernanceExecutor(ctrl *Controller) GovernanceExecutor {
	return GovernanceExecutor{ctrl: ctrl}
}

// RegisterExecutors registers the governance executor.
func RegisterExecutors(r custody.ExecutorRegistry, ctrl *Controller) {
	r.RegisterExecutor(GovernanceExecutorName, NewGovernanceExecutor(ctrl))
}

func (e GovernanceExecutor) Invoke(ctx custody.Context, db custody.KVStore, inv *custody.Invocation) error {
	var action GovernanceAction
	if err := action.Unmarshal(inv.Payload); err != nil {
		return errors.Wrap(err, "governance payload")
	}
	if err := action.Validate(); err != nil {
		return errors.Wrap(err, "governance action")
	}
	id := action.MultisigID()
	ms, err := e.ctrl.multisigs.GetMultisig(db, id)
	if err != nil {
		return err
	}

	authority := ms.Authority(id)
	if !authority.Equals(AuthorityFromContext(ctx)) || !authority.Equals(inv.Authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "multisig %X authority required", id)
	}
	if err := VerifyAuthority(inv.Authority, authority.Address()); err != nil {
		return err
	}
	if !hasSigner(inv, authority.Address()) {
		return errors.Wrap(errors.ErrUnauthorized, "authority is not a signing participant")
	}

	switch {
	case action.SetOwners != nil:
		_, err = e.ctrl.SetOwners(db, id, action.SetOwners.Owners)
	case action.ChangeThreshold != nil:
		_, err = e.ctrl.ChangeThreshold(db, id, action.ChangeThreshold.Threshold)
	}
	return err
}

func hasSigner(inv *custody.Invocation, addr custody.Address) bool {
	for _, s := range inv.Signers() {
		if s.Equals(addr) {
			return true
		}
	}
	return false
}
