package main

import (
	"os"
	"path/filepath"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/multisig"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the authentication used by all handlers. Owners
// authenticate with their signatures, executors with the multisig authority.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, multisig.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// on Check, bad requests don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on Deliver, a failed message keeps the signer sequence
		// increment
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns the message router together with the executor router used
// by the multisig controller.
func Router(auth x.Authenticator) (*app.Router, *app.ExecutorRouter) {
	executors := app.NewExecutorRouter()
	ctrl := multisig.NewController(executors)
	multisig.RegisterExecutors(executors, ctrl)

	r := app.NewRouter()
	multisig.RegisterRoutes(r, auth, ctrl)
	sigs.RegisterRoutes(r, auth)
	return r, executors
}

// QueryRouter returns a query router allowing access to "/multisigs",
// "/proposals", "/proposals/multisig" and "/auth".
func QueryRouter() custody.QueryRouter {
	r := custody.NewQueryRouter()
	r.RegisterAll(
		multisig.RegisterQuery,
		sigs.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator chain.
func Stack() (custody.Handler, *app.ExecutorRouter) {
	auth := Authenticator()
	r, executors := Router(auth)
	return Chain().WithHandler(r), executors
}

// NewEngine returns an engine over the given store with all custody
// extensions registered.
func NewEngine(db custody.CacheableKVStore, logger log.Logger) (*app.Engine, *app.ExecutorRouter, error) {
	h, executors := Stack()
	e, err := app.NewEngine(db, TxDecoder, h, QueryRouter(), &multisig.Initializer{})
	if err != nil {
		return nil, nil, err
	}
	return e.WithLogger(logger), executors, nil
}

// openStore opens the persistent store of the given backend kind, located in
// the home directory.
func openStore(home, backend string) (custody.CommitKVStore, error) {
	if err := os.MkdirAll(home, 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot create home: %s", err)
	}
	var (
		db  custody.CommitKVStore
		err error
	)
	switch backend {
	case "leveldb":
		db, err = store.NewLevelDB(filepath.Join(home, "data"))
	case "bolt":
		db, err = store.NewBoltDB(filepath.Join(home, "custody.db"))
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}
