package multisig

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
	"github.com/iov-one/custody/x"
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, ctrl *Controller) {
	r.Handle(pathCreateMsg, CreateMultisigHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCreateTransactionMsg, CreateTransactionHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathApproveMsg, ApproveHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathExecuteMsg, ExecuteHandler{ctrl: ctrl})
	r.Handle(pathUpdateConfigurationMsg, gconf.NewUpdateConfigurationHandler(configurationPkg, &Configuration{}, auth, nil))
}

// RegisterQuery register queries from buckets in this package.
func RegisterQuery(qr custody.QueryRouter) {
	NewMultisigBucket().Register("multisigs", qr)
	proposals := NewProposalBucket()
	proposals.Register("proposals", qr)
	qr.Register("/proposals/multisig", ProposalsByMultisigQuery{bucket: proposals})
}

// CreateMultisigHandler creates multisigs. Any authenticated caller can
// create one, the caller does not have to be an owner.
type CreateMultisigHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ custody.Handler = CreateMultisigHandler{}

func (h CreateMultisigHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h CreateMultisigHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	id, ms, err := h.ctrl.CreateMultisig(db, msg.Owners, msg.Threshold)
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{
		Data: id,
		Log:  "authority " + ms.Authority(id).Address().String(),
	}, nil
}

func (h CreateMultisigHandler) validate(ctx custody.Context, tx custody.Tx) (*CreateMsg, error) {
	var msg CreateMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	return &msg, nil
}

// CreateTransactionHandler creates proposals. The caller must be an owner of
// the multisig.
type CreateTransactionHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ custody.Handler = CreateTransactionHandler{}

func (h CreateTransactionHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h CreateTransactionHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, _, err := h.ctrl.CreateTransaction(db, proposer, msg.MultisigID, msg.Target, msg.Capacity)
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: id}, nil
}

func (h CreateTransactionHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*CreateTransactionMsg, custody.Address, error) {
	var msg CreateTransactionMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	ms, err := h.ctrl.multisigs.GetMultisig(db, msg.MultisigID)
	if err != nil {
		return nil, nil, err
	}
	owners, err := signingOwners(ctx, h.auth, ms)
	if err != nil {
		return nil, nil, err
	}
	return &msg, owners[0], nil
}

// ApproveHandler adds the approval of every owner that signed the request.
type ApproveHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ custody.Handler = ApproveHandler{}

func (h ApproveHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h ApproveHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, owners, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	for _, o := range owners {
		if _, err := h.ctrl.Approve(db, msg.ProposalID, o); err != nil {
			return nil, err
		}
	}
	return &custody.DeliverResult{Data: msg.ProposalID}, nil
}

func (h ApproveHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*ApproveMsg, []custody.Address, error) {
	var msg ApproveMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	_, ms, err := h.ctrl.load(db, msg.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	owners, err := signingOwners(ctx, h.auth, ms)
	if err != nil {
		return nil, nil, err
	}
	return &msg, owners, nil
}

// ExecuteHandler executes proposals that reached their threshold. Anyone can
// trigger the execution, the approvals authorize it.
type ExecuteHandler struct {
	ctrl *Controller
}

var _ custody.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	var msg ExecuteMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := h.ctrl.CanExecute(db, msg.ProposalID); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h ExecuteHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	var msg ExecuteMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.ctrl.ExecuteTransaction(ctx, db, msg.ProposalID); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: msg.ProposalID}, nil
}

// signingOwners returns the owners of the multisig that signed the request,
// in owner order.
func signingOwners(ctx custody.Context, auth x.Authenticator, ms *Multisig) ([]custody.Address, error) {
	if x.MainSigner(ctx, auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	var owners []custody.Address
	for _, o := range ms.Owners {
		if auth.HasAddress(ctx, o) {
			owners = append(owners, o)
		}
	}
	if len(owners) == 0 {
		return nil, errors.Wrap(errors.ErrNotAnOwner, "no owner signature")
	}
	return owners, nil
}

// ProposalsByMultisigQuery lists the proposals of a multisig. The query data
// is the multisig ID.
type ProposalsByMultisigQuery struct {
	bucket ProposalBucket
}

var _ custody.QueryHandler = ProposalsByMultisigQuery{}

func (q ProposalsByMultisigQuery) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	if mod != custody.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	ids, err := q.bucket.ByMultisig(db, data)
	if err != nil {
		return nil, err
	}
	res := make([]custody.Model, 0, len(ids))
	for _, id := range ids {
		p, err := q.bucket.GetProposal(db, id)
		if err != nil {
			return nil, err
		}
		raw, err := p.Marshal()
		if err != nil {
			return nil, err
		}
		res = append(res, custody.Pair(q.bucket.DBKey(id), raw))
	}
	return res, nil
}
