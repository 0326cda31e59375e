package multisig

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/iov-one/custody/x"
	"github.com/stretchr/testify/require"
)

// newContextWithAuth creates a context with perms as signers.
func newContextWithAuth(perms ...custody.Condition) (custody.Context, x.Authenticator) {
	auth := &weavetest.CtxAuth{Key: "authKey"}
	return auth.SetConditions(testContext(), perms...), auth
}

func addresses(conds ...custody.Condition) []custody.Address {
	res := make([]custody.Address, len(conds))
	for i, c := range conds {
		res[i] = c.Address()
	}
	return res
}

var meta = &custody.Metadata{Schema: 1}

func TestCreateMultisigHandler(t *testing.T) {
	a, b, c := weavetest.NewCondition(), weavetest.NewCondition(), weavetest.NewCondition()

	cases := map[string]struct {
		signers    []custody.Condition
		msg        custody.Msg
		wantCheck  *errors.Error
		wantDelive *errors.Error
	}{
		"owner creates": {
			signers: []custody.Condition{a},
			msg:     &CreateMsg{Metadata: meta, Owners: addresses(a, b, c), Threshold: 2},
		},
		"stranger creates": {
			signers: []custody.Condition{weavetest.NewCondition()},
			msg:     &CreateMsg{Metadata: meta, Owners: addresses(a, b, c), Threshold: 1},
		},
		"unsigned": {
			msg:        &CreateMsg{Metadata: meta, Owners: addresses(a, b, c), Threshold: 2},
			wantCheck:  errors.ErrUnauthorized,
			wantDelive: errors.ErrUnauthorized,
		},
		"invalid threshold": {
			signers:    []custody.Condition{a},
			msg:        &CreateMsg{Metadata: meta, Owners: addresses(a, b), Threshold: 2},
			wantCheck:  errors.ErrInvalidThreshold,
			wantDelive: errors.ErrInvalidThreshold,
		},
		"wrong message": {
			signers:    []custody.Condition{a},
			msg:        &ApproveMsg{Metadata: meta, ProposalID: weavetest.SequenceID(1)},
			wantCheck:  errors.ErrType,
			wantDelive: errors.ErrType,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctx, auth := newContextWithAuth(tc.signers...)
			ctrl, _ := newController()
			h := CreateMultisigHandler{auth: auth, ctrl: ctrl}
			tx := &weavetest.Tx{Msg: tc.msg}

			cache := db.CacheWrap()
			_, err := h.Check(ctx, cache, tx)
			assert.IsErr(t, tc.wantCheck, err)
			cache.Discard()

			res, err := h.Deliver(ctx, db, tx)
			assert.IsErr(t, tc.wantDelive, err)
			if tc.wantDelive != nil {
				return
			}
			ms, err := ctrl.Multisigs().GetMultisig(db, res.Data)
			require.NoError(t, err)
			assert.Equal(t, "authority "+ms.Authority(res.Data).Address().String(), res.Log)
		})
	}
}

func TestProposalHandlers(t *testing.T) {
	a, b, c := weavetest.NewCondition(), weavetest.NewCondition(), weavetest.NewCondition()
	stranger := weavetest.NewCondition()

	db := store.MemStore()
	ctrl, mock := newController()
	msID, ms, err := ctrl.CreateMultisig(db, addresses(a, b, c), 2)
	require.NoError(t, err)
	target := testTarget(t, "move funds", ms.Authority(msID).Address())

	deliver := func(h custody.Handler, msg custody.Msg, signers ...custody.Condition) (*custody.DeliverResult, error) {
		ctx, _ := newContextWithAuth(signers...)
		tx := &weavetest.Tx{Msg: msg}
		if _, err := h.Check(ctx, db.CacheWrap(), tx); err != nil {
			return nil, err
		}
		return h.Deliver(ctx, db, tx)
	}
	_, auth := newContextWithAuth()
	propose := CreateTransactionHandler{auth: auth, ctrl: ctrl}
	approve := ApproveHandler{auth: auth, ctrl: ctrl}
	execute := ExecuteHandler{ctrl: ctrl}

	_, err = deliver(propose, &CreateTransactionMsg{Metadata: meta, MultisigID: msID, Target: target}, stranger)
	assert.IsErr(t, errors.ErrNotAnOwner, err)
	_, err = deliver(propose, &CreateTransactionMsg{Metadata: meta, MultisigID: msID, Target: target})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	res, err := deliver(propose, &CreateTransactionMsg{Metadata: meta, MultisigID: msID, Target: target}, stranger, b)
	require.NoError(t, err)
	pid := res.Data

	p, err := ctrl.Proposals().GetProposal(db, pid)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, p.Signers)

	_, err = deliver(execute, &ExecuteMsg{Metadata: meta, ProposalID: pid}, stranger)
	assert.IsErr(t, errors.ErrNotEnoughSigners, err)
	_, err = deliver(approve, &ApproveMsg{Metadata: meta, ProposalID: pid}, stranger)
	assert.IsErr(t, errors.ErrNotAnOwner, err)

	// A single request signed by two owners approves for both.
	res, err = deliver(approve, &ApproveMsg{Metadata: meta, ProposalID: pid}, a, c)
	require.NoError(t, err)
	assert.Equal(t, pid, res.Data)
	p, err = ctrl.Proposals().GetProposal(db, pid)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Approvals())

	// Anyone can trigger the execution.
	_, err = deliver(execute, &ExecuteMsg{Metadata: meta, ProposalID: pid}, stranger)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.CallCount())

	_, err = deliver(execute, &ExecuteMsg{Metadata: meta, ProposalID: pid})
	assert.IsErr(t, errors.ErrAlreadyExecuted, err)
	_, err = deliver(approve, &ApproveMsg{Metadata: meta, ProposalID: weavetest.SequenceID(99)}, a)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestUpdateConfigurationHandler(t *testing.T) {
	admin := weavetest.NewCondition()
	db := store.MemStore()
	ctrl, _ := newController()

	conf := DefaultConfiguration()
	conf.Owner = admin.Address()
	opts := custody.Options{"conf": []byte(`{"multisig": {
		"Metadata": {"Schema": 1},
		"Owner": "` + conf.Owner.String() + `",
		"OwnersMax": 8, "MaxAccounts": 32, "MaxPayloadSize": 65536}}`)}
	require.NoError(t, (&Initializer{}).FromGenesis(opts, db))

	reg := routes{}
	_, auth := newContextWithAuth()
	RegisterRoutes(reg, auth, ctrl)
	h := reg[pathUpdateConfigurationMsg]
	require.NotNil(t, h)

	msg := &UpdateConfigurationMsg{Metadata: meta, Patch: &Configuration{Metadata: meta, MaxAccounts: 2}}

	ctx, _ := newContextWithAuth(weavetest.NewCondition())
	_, err := h.Deliver(ctx, db, &weavetest.Tx{Msg: msg})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	ctx, _ = newContextWithAuth(admin)
	_, err = h.Deliver(ctx, db, &weavetest.Tx{Msg: msg})
	require.NoError(t, err)

	got, err := loadConf(db)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.MaxAccounts)
	assert.Equal(t, uint32(8), got.OwnersMax)

	msID, _, err := ctrl.CreateMultisig(db, addresses(admin, weavetest.NewCondition()), 1)
	require.NoError(t, err)
	accounts := []custody.Address{weavetest.RandomAddr(t), weavetest.RandomAddr(t), weavetest.RandomAddr(t)}
	_, _, err = ctrl.CreateTransaction(db, admin.Address(), msID, testTarget(t, "x", accounts...), 0)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestProposalsByMultisigQuery(t *testing.T) {
	db := store.MemStore()
	ctrl, _ := newController()
	owners := newOwners(t, 2)
	first, _, err := ctrl.CreateMultisig(db, owners, 1)
	require.NoError(t, err)
	second, _, err := ctrl.CreateMultisig(db, owners, 1)
	require.NoError(t, err)

	for _, id := range [][]byte{first, second, first} {
		_, _, err := ctrl.CreateTransaction(db, owners[0], id, testTarget(t, "x"), 0)
		require.NoError(t, err)
	}

	qr := custody.NewQueryRouter()
	RegisterQuery(qr)
	h := qr.Handler("/proposals/multisig")
	require.NotNil(t, h)

	models, err := h.Query(db, custody.KeyQueryMod, first)
	require.NoError(t, err)
	require.Len(t, models, 2)
	for i, want := range [][]byte{weavetest.SequenceID(1), weavetest.SequenceID(3)} {
		assert.Equal(t, ctrl.Proposals().DBKey(want), models[i].Key)
		var p Proposal
		require.NoError(t, p.Unmarshal(models[i].Value))
		assert.Equal(t, first, p.MultisigID)
	}

	_, err = h.Query(db, custody.PrefixQueryMod, first)
	assert.IsErr(t, errors.ErrInput, err)

	require.NotNil(t, qr.Handler("/multisigs"))
	require.NotNil(t, qr.Handler("/proposals"))
}

// routes is a minimal handler registry used by the tests.
type routes map[string]custody.Handler

func (r routes) Handle(path string, h custody.Handler) {
	r[path] = h
}
