package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/metrics"
	"github.com/iov-one/custody/x/utils"
)

// Controller implements the multisig state transitions. Every method expects
// to run inside a transaction that serializes access to the store.
type Controller struct {
	multisigs MultisigBucket
	proposals ProposalBucket
	executor  custody.Executor
}

// NewController returns a controller that runs executed proposals with
// given executor, usually an executor router.
func NewController(executor custody.Executor) *Controller {
	return &Controller{
		multisigs: NewMultisigBucket(),
		proposals: NewProposalBucket(),
		executor:  executor,
	}
}

// Multisigs returns the bucket holding the multisig records.
func (c *Controller) Multisigs() MultisigBucket {
	return c.multisigs
}

// Proposals returns the bucket holding the proposal records.
func (c *Controller) Proposals() ProposalBucket {
	return c.proposals
}

// CreateMultisig registers a new multisig with a freshly derived authority.
// The threshold must be strictly lower than the owner count.
func (c *Controller) CreateMultisig(db custody.KVStore, owners []custody.Address, threshold uint32) ([]byte, *Multisig, error) {
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if err := validateCreate(owners, threshold); err != nil {
		return nil, nil, err
	}
	if err := conf.checkOwners(owners); err != nil {
		return nil, nil, err
	}

	id, err := c.multisigs.NextID(db)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := c.authorityNonce(db, id)
	if err != nil {
		return nil, nil, err
	}
	ms := &Multisig{
		Metadata:       &custody.Metadata{Schema: 1},
		Owners:         copyOwners(owners),
		Threshold:      threshold,
		AuthorityNonce: nonce,
		OwnerSetSeqno:  0,
	}
	if err := c.multisigs.Create(db, id, ms); err != nil {
		return nil, nil, errors.Wrap(err, "cannot store multisig")
	}
	return id, ms, nil
}

// authorityNonce returns the first nonce, counting down from
// AuthorityNonceMax, that derives an authority no other multisig uses.
func (c *Controller) authorityNonce(db custody.ReadOnlyKVStore, id []byte) (uint32, error) {
	for nonce := AuthorityNonceMax; nonce >= 0; nonce-- {
		used, err := c.multisigs.AuthorityInUse(db, Derive(id, uint32(nonce)))
		if err != nil {
			return 0, errors.Wrap(err, "authority index")
		}
		if !used {
			return uint32(nonce), nil
		}
	}
	return 0, errors.Wrapf(errors.ErrState, "no authority nonce available for multisig %X", id)
}

// SetOwners replaces the owner set of the multisig. The threshold is lowered
// to the new owner count when needed and the owner set version is bumped,
// which makes every outstanding proposal stale.
//
// This method does not authenticate the caller. It must only be reachable
// through the governance executor.
func (c *Controller) SetOwners(db custody.KVStore, multisigID []byte, owners []custody.Address) (*Multisig, error) {
	ms, err := c.multisigs.GetMultisig(db, multisigID)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if err := AssertUniqueOwners(owners); err != nil {
		return nil, err
	}
	if err := conf.checkOwners(owners); err != nil {
		return nil, err
	}

	ms.Owners = copyOwners(owners)
	if n := uint32(len(owners)); ms.Threshold > n {
		ms.Threshold = n
	}
	ms.OwnerSetSeqno++
	if err := c.multisigs.Save(db, multisigID, ms); err != nil {
		return nil, errors.Wrap(err, "cannot save multisig")
	}
	return ms, nil
}

// ChangeThreshold updates the threshold of the multisig. Any value from one
// to the owner count is accepted.
//
// This method does not authenticate the caller. It must only be reachable
// through the governance executor.
func (c *Controller) ChangeThreshold(db custody.KVStore, multisigID []byte, threshold uint32) (*Multisig, error) {
	ms, err := c.multisigs.GetMultisig(db, multisigID)
	if err != nil {
		return nil, err
	}
	if threshold == 0 || int(threshold) > len(ms.Owners) {
		return nil, errors.Wrapf(errors.ErrInvalidThreshold,
			"threshold %d with %d owners, want 1 to %d", threshold, len(ms.Owners), len(ms.Owners))
	}
	ms.Threshold = threshold
	if err := c.multisigs.Save(db, multisigID, ms); err != nil {
		return nil, errors.Wrap(err, "cannot save multisig")
	}
	return ms, nil
}

// CreateTransaction stores a new proposal bound to the current owner set of
// the multisig. The proposer must be an owner and the proposal counts as
// their approval. A zero capacity reserves the planned capacity.
func (c *Controller) CreateTransaction(
	db custody.KVStore,
	proposer custody.Address,
	multisigID []byte,
	target *Target,
	capacity uint32,
) ([]byte, *Proposal, error) {
	ms, err := c.multisigs.GetMultisig(db, multisigID)
	if err != nil {
		return nil, nil, err
	}
	idx := ms.OwnerIndex(proposer)
	if idx < 0 {
		return nil, nil, errors.Wrapf(errors.ErrNotAnOwner, "%s", proposer)
	}
	if err := target.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "target")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if err := conf.checkTarget(target); err != nil {
		return nil, nil, err
	}
	capacity, err = PlanProposal(target, len(ms.Owners), capacity)
	if err != nil {
		return nil, nil, err
	}

	signers := make([]bool, len(ms.Owners))
	signers[idx] = true
	p := &Proposal{
		Metadata:      &custody.Metadata{Schema: 1},
		MultisigID:    multisigID,
		Target:        target.Copy(),
		Signers:       signers,
		Executed:      false,
		OwnerSetSeqno: ms.OwnerSetSeqno,
	}
	id, err := c.proposals.Create(db, p, capacity)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot store proposal")
	}
	return id, p, nil
}

// Approve flags the owner slot of the proposal as approved. Approving twice
// is a no-op.
func (c *Controller) Approve(db custody.KVStore, proposalID []byte, owner custody.Address) (*Proposal, error) {
	p, ms, err := c.load(db, proposalID)
	if err != nil {
		return nil, err
	}
	idx := ms.OwnerIndex(owner)
	if idx < 0 {
		return nil, errors.Wrapf(errors.ErrNotAnOwner, "%s", owner)
	}
	if p.OwnerSetSeqno != ms.OwnerSetSeqno {
		return nil, staleErr(p, ms)
	}
	if p.Executed {
		return nil, errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %X", proposalID)
	}
	if idx >= len(p.Signers) {
		return nil, errors.Wrapf(errors.ErrState, "owner slot %d of %d", idx, len(p.Signers))
	}
	if p.Signers[idx] {
		return p, nil
	}
	p.Signers[idx] = true
	if err := c.proposals.Save(db, proposalID, p); err != nil {
		return nil, errors.Wrap(err, "cannot save proposal")
	}
	return p, nil
}

// ExecuteTransaction runs the action of the proposal with the delegated
// authority of its multisig. The proposal must not be executed nor stale and
// must have reached the threshold.
//
// Every account whose address is the multisig authority is flagged as a
// signer. The executor runs inside a savepoint: when it fails, all its
// changes are dropped, the proposal stays pending and ErrExecutorFailed is
// returned. The proposal is flagged as executed before the executor runs, so
// an executor cannot execute it a second time.
func (c *Controller) ExecuteTransaction(ctx custody.Context, db custody.KVStore, proposalID []byte) (*Proposal, error) {
	p, ms, err := c.executable(db, proposalID)
	if err != nil {
		return nil, err
	}

	cond := ms.Authority(p.MultisigID)
	authority := cond.Address()
	inv := &custody.Invocation{
		Executor:  p.Target.Executor,
		Accounts:  make([]custody.AccountMeta, len(p.Target.Accounts)),
		Payload:   p.Target.Payload,
		Authority: cond,
	}
	for i, a := range p.Target.Accounts {
		if a.Address.Equals(authority) {
			a.IsSigner = true
		}
		inv.Accounts[i] = a
	}

	cache := utils.CacheWrap(db)
	p.Executed = true
	if err := c.proposals.Save(cache, proposalID, p); err != nil {
		cache.Discard()
		return nil, errors.Wrap(err, "cannot save proposal")
	}

	logger := custody.GetLogger(ctx).With("proposal", proposalID, "executor", inv.Executor)
	if err := c.executor.Invoke(withAuthority(ctx, cond), cache, inv); err != nil {
		cache.Discard()
		metrics.ExecutorFailed(inv.Executor)
		logger.Info("delegated invocation failed", "err", err)
		return nil, errors.Wrapf(errors.ErrExecutorFailed, "%s: %s", inv.Executor, err)
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "cannot write savepoint")
	}
	metrics.ProposalExecuted()
	logger.Debug("proposal executed")
	return p, nil
}

// CanExecute returns the error ExecuteTransaction would fail with before
// invoking the executor.
func (c *Controller) CanExecute(db custody.ReadOnlyKVStore, proposalID []byte) error {
	_, _, err := c.executable(db, proposalID)
	return err
}

func (c *Controller) executable(db custody.ReadOnlyKVStore, proposalID []byte) (*Proposal, *Multisig, error) {
	p, ms, err := c.load(db, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if p.Executed {
		return nil, nil, errors.Wrapf(errors.ErrAlreadyExecuted, "proposal %X", proposalID)
	}
	if p.OwnerSetSeqno != ms.OwnerSetSeqno {
		return nil, nil, staleErr(p, ms)
	}
	if n := p.Approvals(); n < int(ms.Threshold) {
		return nil, nil, errors.Wrapf(errors.ErrNotEnoughSigners, "%d of %d approvals", n, ms.Threshold)
	}
	return p, ms, nil
}

func (c *Controller) load(db custody.ReadOnlyKVStore, proposalID []byte) (*Proposal, *Multisig, error) {
	p, err := c.proposals.GetProposal(db, proposalID)
	if err != nil {
		return nil, nil, err
	}
	ms, err := c.multisigs.GetMultisig(db, p.MultisigID)
	if err != nil {
		return nil, nil, err
	}
	return p, ms, nil
}

func staleErr(p *Proposal, ms *Multisig) error {
	return errors.Wrapf(errors.ErrOwnerSetChanged,
		"proposal created for owner set %d, current is %d", p.OwnerSetSeqno, ms.OwnerSetSeqno)
}

func copyOwners(owners []custody.Address) []custody.Address {
	res := make([]custody.Address, len(owners))
	for i, o := range owners {
		res[i] = append(custody.Address{}, o...)
	}
	return res
}
