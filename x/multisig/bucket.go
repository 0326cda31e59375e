package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// MultisigBucket stores multisig records under their sequence ID. Every
// delegated authority address is indexed so that no two multisigs derive
// the same authority.
type MultisigBucket struct {
	orm.RecordBucket
	seq         orm.Sequence
	authorities orm.Index
}

// NewMultisigBucket returns a bucket for managing multisig records.
func NewMultisigBucket() MultisigBucket {
	return MultisigBucket{
		RecordBucket: orm.NewRecordBucket("multisig"),
		seq:          orm.NewSequence("multisig", orm.SeqID),
		authorities:  orm.NewIndex("multisig", "authority", true),
	}
}

// NextID reserves a new multisig ID.
func (b MultisigBucket) NextID(db custody.KVStore) ([]byte, error) {
	id, err := b.seq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "multisig sequence")
	}
	return id, nil
}

// Create stores a new multisig under id, reserving room for OwnersMax
// owners, and indexes its delegated authority.
func (b MultisigBucket) Create(db custody.KVStore, id []byte, m *Multisig) error {
	if err := b.RecordBucket.Create(db, id, MultisigCapacity(OwnersMax), m); err != nil {
		return err
	}
	if err := b.authorities.Add(db, Derive(id, m.AuthorityNonce), id); err != nil {
		return errors.Wrap(err, "authority index")
	}
	return nil
}

// GetMultisig loads the multisig stored under id.
func (b MultisigBucket) GetMultisig(db custody.ReadOnlyKVStore, id []byte) (*Multisig, error) {
	var m Multisig
	if err := b.Load(db, id, &m); err != nil {
		return nil, errors.Wrapf(err, "multisig %X", id)
	}
	return &m, nil
}

// AuthorityInUse returns true if a multisig already derives given authority
// address.
func (b MultisigBucket) AuthorityInUse(db custody.ReadOnlyKVStore, addr custody.Address) (bool, error) {
	return b.authorities.Has(db, addr)
}

// ByAuthority returns the ID of the multisig deriving given authority
// address. It fails with ErrNotFound when there is none.
func (b MultisigBucket) ByAuthority(db custody.ReadOnlyKVStore, addr custody.Address) ([]byte, error) {
	refs, err := b.authorities.Refs(db, addr)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "authority %s", addr)
	}
	return refs[0], nil
}

// ProposalBucket stores proposal records under their sequence ID and keeps
// track of the proposals created for each multisig.
type ProposalBucket struct {
	orm.RecordBucket
	seq        orm.Sequence
	byMultisig orm.Index
}

// NewProposalBucket returns a bucket for managing proposal records.
func NewProposalBucket() ProposalBucket {
	return ProposalBucket{
		RecordBucket: orm.NewRecordBucket("proposal"),
		seq:          orm.NewSequence("proposal", orm.SeqID),
		byMultisig:   orm.NewIndex("proposal", "multisig", false),
	}
}

// Create stores a new proposal with given capacity and returns its ID.
func (b ProposalBucket) Create(db custody.KVStore, p *Proposal, capacity uint32) ([]byte, error) {
	id, err := b.seq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "proposal sequence")
	}
	if err := b.RecordBucket.Create(db, id, capacity, p); err != nil {
		return nil, err
	}
	if err := b.byMultisig.Add(db, p.MultisigID, id); err != nil {
		return nil, errors.Wrap(err, "multisig index")
	}
	return id, nil
}

// GetProposal loads the proposal stored under id.
func (b ProposalBucket) GetProposal(db custody.ReadOnlyKVStore, id []byte) (*Proposal, error) {
	var p Proposal
	if err := b.Load(db, id, &p); err != nil {
		return nil, errors.Wrapf(err, "proposal %X", id)
	}
	return &p, nil
}

// ByMultisig returns the IDs of all proposals created for the multisig, in
// creation order.
func (b ProposalBucket) ByMultisig(db custody.ReadOnlyKVStore, multisigID []byte) ([][]byte, error) {
	return b.byMultisig.Refs(db, multisigID)
}
