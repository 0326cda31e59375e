package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	// OwnersMax is the largest owner set a multisig can hold. Multisig
	// records always reserve capacity for this many owners.
	OwnersMax = 8

	// AuthorityNonceMax is the first nonce tried when deriving the
	// authority of a new multisig.
	AuthorityNonceMax = 255
)

// Multisig is a group of owners that jointly control a delegated authority.
type Multisig struct {
	Metadata *custody.Metadata
	// Owners is the ordered list of distinct owner addresses.
	Owners []custody.Address
	// Threshold is the number of approvals required to execute a proposal.
	Threshold uint32
	// AuthorityNonce fixes the authority derivation. It is assigned at
	// creation and never changes.
	AuthorityNonce uint32
	// OwnerSetSeqno is incremented on every owner set replacement.
	OwnerSetSeqno uint64
}

var _ orm.Model = (*Multisig)(nil)

// Validate checks the record invariants. A stored multisig threshold may be
// equal to the owner count, see ValidateThreshold for the creation rule.
func (m *Multisig) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := AssertUniqueOwners(m.Owners); err != nil {
		return err
	}
	if m.Threshold == 0 || int(m.Threshold) > len(m.Owners) {
		return errors.Wrapf(errors.ErrInvalidThreshold,
			"threshold %d with %d owners", m.Threshold, len(m.Owners))
	}
	if m.AuthorityNonce > AuthorityNonceMax {
		return errors.Wrapf(errors.ErrModel, "authority nonce %d", m.AuthorityNonce)
	}
	return nil
}

// Copy returns a deep copy of the multisig.
func (m *Multisig) Copy() *Multisig {
	owners := make([]custody.Address, len(m.Owners))
	for i, o := range m.Owners {
		owners[i] = append(custody.Address{}, o...)
	}
	var meta *custody.Metadata
	if m.Metadata != nil {
		meta = m.Metadata.Copy()
	}
	return &Multisig{
		Metadata:       meta,
		Owners:         owners,
		Threshold:      m.Threshold,
		AuthorityNonce: m.AuthorityNonce,
		OwnerSetSeqno:  m.OwnerSetSeqno,
	}
}

// OwnerIndex returns the slot of the address in the owner list or -1.
func (m *Multisig) OwnerIndex(addr custody.Address) int {
	for i, o := range m.Owners {
		if o.Equals(addr) {
			return i
		}
	}
	return -1
}

func (m *Multisig) Marshal() ([]byte, error) {
	var b []byte
	var err error
	if m.Metadata != nil {
		if b, err = codec.AppendMessage(b, 1, m.Metadata); err != nil {
			return nil, err
		}
	}
	b = codec.AppendRepeatedBytes(b, 2, addressBytes(m.Owners))
	b = codec.AppendVarint(b, 3, uint64(m.Threshold))
	b = codec.AppendVarint(b, 4, uint64(m.AuthorityNonce))
	b = codec.AppendVarint(b, 5, m.OwnerSetSeqno)
	return b, nil
}

func (m *Multisig) Unmarshal(raw []byte) error {
	*m = Multisig{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &custody.Metadata{}
			err = f.Unmarshal(m.Metadata)
		case 2:
			var owner []byte
			owner, err = f.Copy()
			m.Owners = append(m.Owners, owner)
		case 3:
			m.Threshold, err = f.Uint32()
		case 4:
			m.AuthorityNonce, err = f.Uint32()
		case 5:
			m.OwnerSetSeqno, err = f.Uint64()
		}
		return err
	})
}

// Proposal is a request to run an action with the authority of a
// multisig. It is bound to the owner set version it was created for.
type Proposal struct {
	Metadata *custody.Metadata
	// MultisigID references the owning multisig.
	MultisigID []byte
	// Target is the action to execute.
	Target *Target
	// Signers holds one approval flag per owner slot, as the owners were
	// listed when the proposal was created.
	Signers []bool
	// Executed is set once and never reset.
	Executed bool
	// OwnerSetSeqno is the multisig owner set version at creation.
	OwnerSetSeqno uint64
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	var errs error
	errs = errors.AppendField(errs, "MultisigID", orm.ValidateSequence(p.MultisigID))
	if p.Target == nil {
		errs = errors.AppendField(errs, "Target", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Target", p.Target.Validate())
	}
	if n := len(p.Signers); n == 0 || n > OwnersMax {
		errs = errors.AppendField(errs, "Signers", errors.Wrapf(errors.ErrInvalidOwnersLen, "%d signer slots", n))
	}
	return errs
}

// Copy returns a deep copy of the proposal.
func (p *Proposal) Copy() *Proposal {
	var meta *custody.Metadata
	if p.Metadata != nil {
		meta = p.Metadata.Copy()
	}
	var target *Target
	if p.Target != nil {
		target = p.Target.Copy()
	}
	return &Proposal{
		Metadata:      meta,
		MultisigID:    append([]byte{}, p.MultisigID...),
		Target:        target,
		Signers:       append([]bool{}, p.Signers...),
		Executed:      p.Executed,
		OwnerSetSeqno: p.OwnerSetSeqno,
	}
}

// Approvals returns the number of owner slots that approved.
func (p *Proposal) Approvals() int {
	var n int
	for _, s := range p.Signers {
		if s {
			n++
		}
	}
	return n
}

func (p *Proposal) Marshal() ([]byte, error) {
	var b []byte
	var err error
	if p.Metadata != nil {
		if b, err = codec.AppendMessage(b, 1, p.Metadata); err != nil {
			return nil, err
		}
	}
	b = codec.AppendBytes(b, 2, p.MultisigID)
	if p.Target != nil {
		if b, err = codec.AppendMessage(b, 3, p.Target); err != nil {
			return nil, err
		}
	}
	b = codec.AppendPackedBools(b, 4, p.Signers)
	b = codec.AppendBool(b, 5, p.Executed)
	b = codec.AppendVarint(b, 6, p.OwnerSetSeqno)
	return b, nil
}

func (p *Proposal) Unmarshal(raw []byte) error {
	*p = Proposal{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			p.Metadata = &custody.Metadata{}
			err = f.Unmarshal(p.Metadata)
		case 2:
			p.MultisigID, err = f.Copy()
		case 3:
			p.Target = &Target{}
			err = f.Unmarshal(p.Target)
		case 4:
			var bits []bool
			bits, err = f.Bools()
			p.Signers = append(p.Signers, bits...)
		case 5:
			p.Executed, err = f.Bool()
		case 6:
			p.OwnerSetSeqno, err = f.Uint64()
		}
		return err
	})
}

// Target describes the action a proposal executes.
type Target struct {
	// Executor identifies the executor that runs the action.
	Executor string
	// Accounts is the ordered participant list.
	Accounts []custody.AccountMeta
	// Payload is opaque to the multisig.
	Payload []byte
}

func (t *Target) Validate() error {
	var errs error
	if !custody.IsValidExecutor(t.Executor) {
		errs = errors.AppendField(errs, "Executor", errors.Wrapf(errors.ErrInput, "invalid executor %q", t.Executor))
	}
	for i, a := range t.Accounts {
		if err := a.Validate(); err != nil {
			errs = errors.AppendField(errs, "Accounts", errors.Wrapf(err, "account %d", i))
		}
	}
	return errs
}

// Copy returns a deep copy of the target.
func (t *Target) Copy() *Target {
	accounts := make([]custody.AccountMeta, len(t.Accounts))
	for i, a := range t.Accounts {
		accounts[i] = custody.AccountMeta{
			Address:    append(custody.Address{}, a.Address...),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}
	return &Target{
		Executor: t.Executor,
		Accounts: accounts,
		Payload:  append([]byte{}, t.Payload...),
	}
}

func (t *Target) Marshal() ([]byte, error) {
	var b []byte
	b = codec.AppendString(b, 1, t.Executor)
	for _, a := range t.Accounts {
		b = codec.AppendRepeatedBytes(b, 2, [][]byte{marshalAccount(a)})
	}
	b = codec.AppendBytes(b, 3, t.Payload)
	return b, nil
}

func (t *Target) Unmarshal(raw []byte) error {
	*t = Target{}
	return codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			t.Executor, err = f.Text()
		case 2:
			var raw []byte
			if raw, err = f.Copy(); err != nil {
				return err
			}
			var a custody.AccountMeta
			a, err = unmarshalAccount(raw)
			t.Accounts = append(t.Accounts, a)
		case 3:
			t.Payload, err = f.Copy()
		}
		return err
	})
}

func marshalAccount(a custody.AccountMeta) []byte {
	var b []byte
	b = codec.AppendBytes(b, 1, a.Address)
	b = codec.AppendBool(b, 2, a.IsSigner)
	b = codec.AppendBool(b, 3, a.IsWritable)
	return b
}

func unmarshalAccount(raw []byte) (custody.AccountMeta, error) {
	var a custody.AccountMeta
	err := codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			var addr []byte
			addr, err = f.Copy()
			a.Address = addr
		case 2:
			a.IsSigner, err = f.Bool()
		case 3:
			a.IsWritable, err = f.Bool()
		}
		return err
	})
	return a, err
}

func addressBytes(addrs []custody.Address) [][]byte {
	res := make([][]byte, len(addrs))
	for i, a := range addrs {
		res[i] = a
	}
	return res
}

// AssertUniqueOwners returns an error if the owner list is empty, longer than
// OwnersMax or contains the same address twice.
func AssertUniqueOwners(owners []custody.Address) error {
	if n := len(owners); n == 0 || n > OwnersMax {
		return errors.Wrapf(errors.ErrInvalidOwnersLen, "%d owners, want 1 to %d", n, OwnersMax)
	}
	for i, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner %d", i)
		}
		for _, other := range owners[:i] {
			if o.Equals(other) {
				return errors.Wrapf(errors.ErrDuplicateOwner, "owner %s", o)
			}
		}
	}
	return nil
}
