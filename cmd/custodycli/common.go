package main

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/sigs"
)

// signAndDeliver signs the message with given key, using the next sequence
// of the signer, and delivers it.
func signAndDeliver(s *session, key *crypto.PrivateKey, msg custody.Msg) (*custody.DeliverResult, error) {
	chainID := s.engine.ChainID()
	if chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "store not initialized, run init-genesis first")
	}
	seq, err := sigs.NextNonce(s.db, key.PublicKey().Address())
	if err != nil {
		return nil, err
	}
	tx := &Tx{Msg: msg}
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return nil, errors.Wrap(err, "cannot sign")
	}
	tx.Signatures = append(tx.Signatures, sig)

	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.CheckBytes(raw); err != nil {
		return nil, errors.Wrap(err, "check")
	}
	return s.engine.DeliverBytes(raw)
}

// withSession opens a session for the duration of fn.
func withSession(conf *Config, fn func(*session) error) error {
	s, err := openSession(conf)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}
