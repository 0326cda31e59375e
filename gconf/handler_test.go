package gconf

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestUpdateConfigurationHandler(t *testing.T) {
	cond := weavetest.NewCondition()
	admin := weavetest.NewCondition()

	cases := map[string]struct {
		// If Init is provided, initialize the database before running
		// handler code. Use nil to not provide initial state.
		Init *myconfig

		Msg            custody.Msg
		MsgConditions  []custody.Condition
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error

		// When not nil database state will be tested to contain the
		// exact version of the configuration.
		WantConfig *myconfig
	}{
		"success": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 333, Str: "boing!"},
			},
			MsgConditions: []custody.Condition{cond},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 333, Str: "boing!"},
		},
		"message must be signed by the configuration owner": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 1},
			},
			MsgConditions:  []custody.Condition{weavetest.NewCondition()},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
			WantConfig:     &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
		},
		"zero values are not updating the configuration": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Str: "new"},
			},
			MsgConditions: []custody.Condition{cond},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 5125, Str: "new"},
		},
		"invalid configuration is not accepted": {
			Init: &myconfig{Owner: cond.Address(), Num: 5125},
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: custody.Address("short")},
			},
			MsgConditions:  []custody.Condition{cond},
			WantCheckErr:   errors.ErrInput,
			WantDeliverErr: errors.ErrInput,
		},
		"missing configuration can be created by the admin": {
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 7},
			},
			MsgConditions: []custody.Condition{admin},
			WantConfig:    &myconfig{Owner: cond.Address(), Num: 7},
		},
		"missing configuration cannot be created by anyone else": {
			Msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 7},
			},
			MsgConditions:  []custody.Condition{cond},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()

			if tc.Init != nil {
				if err := Save(db, "mypkg", tc.Init); err != nil {
					t.Fatalf("cannot save initial configuration: %s", err)
				}
			}

			auth := &weavetest.CtxAuth{Key: "auth"}
			initAdmin := func(custody.ReadOnlyKVStore) (custody.Address, error) {
				return admin.Address(), nil
			}
			handler := NewUpdateConfigurationHandler("mypkg", &myconfig{}, auth, initAdmin)

			ctx := custody.WithChainID(context.Background(), "mychain-123")
			ctx = auth.SetConditions(ctx, tc.MsgConditions...)

			tx := &weavetest.Tx{Msg: tc.Msg}

			cache := db.CacheWrap()
			if _, err := handler.Check(ctx, cache, tx); !tc.WantCheckErr.Is(err) {
				t.Fatal(err)
			}
			cache.Discard()

			if _, err := handler.Deliver(ctx, db, tx); !tc.WantDeliverErr.Is(err) {
				t.Fatal(err)
			}

			if tc.WantConfig != nil {
				var got myconfig
				if err := Load(db, "mypkg", &got); err != nil {
					t.Fatalf("cannot load configuration from the database: %s", err)
				}
				assert.Equal(t, tc.WantConfig, &got)
			}
		})
	}
}

func TestPatchPayloadRequiresPatchField(t *testing.T) {
	_, err := patchPayload(&weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "x"}})
	if !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %v", err)
	}
}
