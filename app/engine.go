/*
Package app links a handler stack with a store into an engine that
processes requests one at a time.

Every delivered request runs inside its own cache wrap of the store. When
processing succeeds the cached changes are written, otherwise they are
discarded, so a failed request never leaves a partial state change behind.
*/
package app

import (
	"context"
	"sync"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/metrics"
	"github.com/tendermint/tendermint/libs/log"
)

// TxDecoder creates a Tx and unmarshals bytes into it
type TxDecoder func(raw []byte) (custody.Tx, error)

// Engine serializes all requests against a single store.
type Engine struct {
	mu sync.Mutex

	db      custody.CacheableKVStore
	decoder TxDecoder
	handler custody.Handler
	queries custody.QueryRouter
	init    custody.Initializer

	logger  log.Logger
	chainID string
}

// NewEngine returns an engine operating on the given store. The chain id is
// loaded from the store if it was previously initialized.
func NewEngine(
	db custody.CacheableKVStore,
	decoder TxDecoder,
	handler custody.Handler,
	queries custody.QueryRouter,
	init custody.Initializer,
) (*Engine, error) {
	chainID, err := loadChainID(db)
	if err != nil {
		return nil, err
	}
	return &Engine{
		db:      db,
		decoder: decoder,
		handler: handler,
		queries: queries,
		init:    init,
		logger:  log.NewNopLogger(),
		chainID: chainID,
	}, nil
}

// WithLogger sets the logger passed to all handlers.
func (e *Engine) WithLogger(logger log.Logger) *Engine {
	e.logger = logger
	return e
}

// ChainID returns the chain id this engine was initialized with or an empty
// string.
func (e *Engine) ChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

// InitChain stores the genesis chain id and runs all initializers. It can be
// called only once for a given store.
func (e *Engine) InitChain(gen *Genesis) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID != "" {
		return errors.Wrapf(errors.ErrState, "already initialized with chain %s", e.chainID)
	}

	cache := e.db.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if e.init != nil {
		if err := e.init.FromGenesis(gen.AppState, cache); err != nil {
			cache.Discard()
			return errors.Wrap(err, "genesis")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "cannot write genesis state")
	}
	e.chainID = gen.ChainID
	e.logger.Info("chain initialized", "chain_id", gen.ChainID)
	return nil
}

// Check runs the request against a throw away copy of the state.
func (e *Engine) Check(tx custody.Tx) (*custody.CheckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, err := e.context("check", tx)
	if err != nil {
		return nil, err
	}
	cache := e.db.CacheWrap()
	defer cache.Discard()
	return e.handler.Check(ctx, cache, tx)
}

// Deliver processes the request. State changes are persisted only when the
// processing succeeds.
func (e *Engine) Deliver(tx custody.Tx) (*custody.DeliverResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, err := e.context("deliver", tx)
	if err != nil {
		return nil, err
	}

	path := custody.GetPath(tx)
	cache := e.db.CacheWrap()
	res, err := e.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		metrics.OperationDone(path, err)
		return nil, err
	}
	if err := cache.Write(); err != nil {
		metrics.OperationDone(path, err)
		return nil, errors.Wrap(err, "cannot write changes")
	}
	metrics.OperationDone(path, nil)
	return res, nil
}

// CheckBytes decodes the request before passing it to Check.
func (e *Engine) CheckBytes(raw []byte) (*custody.CheckResult, error) {
	tx, err := e.decode(raw)
	if err != nil {
		return nil, err
	}
	return e.Check(tx)
}

// DeliverBytes decodes the request before passing it to Deliver.
func (e *Engine) DeliverBytes(raw []byte) (*custody.DeliverResult, error) {
	tx, err := e.decode(raw)
	if err != nil {
		return nil, err
	}
	return e.Deliver(tx)
}

// Query reads the state using the handler registered for the path.
func (e *Engine) Query(path, mod string, data []byte) ([]custody.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.queries.Handler(path)
	if h == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no query handler for %q", path)
	}
	return h.Query(e.db, mod, data)
}

func (e *Engine) decode(raw []byte) (tx custody.Tx, err error) {
	if e.decoder == nil {
		return nil, errors.Wrap(errors.ErrHuman, "no decoder")
	}
	defer errors.Recover(&err)
	return e.decoder(raw)
}

func (e *Engine) context(call string, tx custody.Tx) (custody.Context, error) {
	if e.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	ctx := custody.WithChainID(context.Background(), e.chainID)
	ctx = custody.WithLogger(ctx, e.logger)
	return custody.WithLogInfo(ctx, "call", call, "path", custody.GetPath(tx)), nil
}
