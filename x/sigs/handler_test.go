package sigs

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestBumpSequence(t *testing.T) {
	var (
		key1 = weavetest.NewKey().PublicKey()
		key2 = weavetest.NewKey().PublicKey()
		meta = &custody.Metadata{Schema: 1}
	)

	cases := map[string]struct {
		// Before performing the test, initialize the database with given user data.
		InitData       []*UserData
		Msg            BumpSequenceMsg
		Signers        []custody.Condition
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
		// Sequences are one smaller than the requested increment, as
		// transaction processing additionally increments them.
		WantSequences []*UserData
	}{
		"great success": {
			InitData: []*UserData{
				{Metadata: meta, Pubkey: key1, Sequence: 1},
				{Metadata: meta, Pubkey: key2, Sequence: 9},
			},
			Signers: []custody.Condition{key1.Condition()},
			Msg:     BumpSequenceMsg{Metadata: meta, Increment: 2},
			WantSequences: []*UserData{
				{Metadata: meta, Pubkey: key1, Sequence: 2},
				{Metadata: meta, Pubkey: key2, Sequence: 9},
			},
		},
		"incrementing sequence of the main signer": {
			InitData: []*UserData{
				{Metadata: meta, Pubkey: key1, Sequence: 1},
				{Metadata: meta, Pubkey: key2, Sequence: 9},
			},
			Signers: []custody.Condition{
				key2.Condition(), // Main signer.
				key1.Condition(),
			},
			Msg: BumpSequenceMsg{Metadata: meta, Increment: 2},
			WantSequences: []*UserData{
				{Metadata: meta, Pubkey: key1, Sequence: 1},
				{Metadata: meta, Pubkey: key2, Sequence: 10},
			},
		},
		"transaction with a missing signature is rejected": {
			Msg:            BumpSequenceMsg{Metadata: meta, Increment: 1},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
		"message with a zero sequence increment is invalid": {
			InitData:       []*UserData{{Metadata: meta, Pubkey: key1, Sequence: 1}},
			Signers:        []custody.Condition{key1.Condition()},
			Msg:            BumpSequenceMsg{Metadata: meta, Increment: 0},
			WantCheckErr:   errors.ErrMsg,
			WantDeliverErr: errors.ErrMsg,
		},
		"user that we increment the sequence of must exist": {
			InitData:       []*UserData{{Metadata: meta, Pubkey: key2, Sequence: 4}},
			Signers:        []custody.Condition{key1.Condition()},
			Msg:            BumpSequenceMsg{Metadata: meta, Increment: 5},
			WantCheckErr:   errors.ErrNotFound,
			WantDeliverErr: errors.ErrNotFound,
		},
		"sequence overflow": {
			InitData:       []*UserData{{Metadata: meta, Pubkey: key1, Sequence: maxSequenceValue - 1}},
			Signers:        []custody.Condition{key1.Condition()},
			Msg:            BumpSequenceMsg{Metadata: meta, Increment: 10},
			WantCheckErr:   errors.ErrOverflow,
			WantDeliverErr: errors.ErrOverflow,
		},
		"increment of one is a no-op": {
			InitData: []*UserData{{Metadata: meta, Pubkey: key1, Sequence: 3}},
			Signers:  []custody.Condition{key1.Condition()},
			Msg:      BumpSequenceMsg{Metadata: meta, Increment: 1},
			WantSequences: []*UserData{
				{Metadata: meta, Pubkey: key1, Sequence: 3},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			auth := &weavetest.Auth{Signers: tc.Signers}
			rt := routes{}
			RegisterRoutes(rt, auth)
			h := rt[pathBumpSequenceMsg]
			require.NotNil(t, h)

			db := store.MemStore()
			b := NewBucket()
			for _, u := range tc.InitData {
				require.NoError(t, b.Put(db, u))
			}

			ctx := context.Background()
			tx := &weavetest.Tx{Msg: &tc.Msg}

			cache := db.CacheWrap()
			_, err := h.Check(ctx, cache, tx)
			assert.IsErr(t, tc.WantCheckErr, err)
			cache.Discard()

			_, err = h.Deliver(ctx, db, tx)
			assert.IsErr(t, tc.WantDeliverErr, err)

			for _, want := range tc.WantSequences {
				got, err := b.GetUser(db, want.Pubkey.Address())
				require.NoError(t, err)
				assert.Equal(t, want.Sequence, got.Sequence)
			}
		})
	}
}

type routes map[string]custody.Handler

func (r routes) Handle(path string, h custody.Handler) {
	r[path] = h
}
