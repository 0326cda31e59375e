package main

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/multisig"
	"github.com/iov-one/custody/x/sigs"
)

// msgTypes maps every routed message path to its constructor.
var msgTypes = map[string]func() custody.Msg{
	(multisig.CreateMsg{}).Path():              func() custody.Msg { return &multisig.CreateMsg{} },
	(multisig.CreateTransactionMsg{}).Path():   func() custody.Msg { return &multisig.CreateTransactionMsg{} },
	(multisig.ApproveMsg{}).Path():             func() custody.Msg { return &multisig.ApproveMsg{} },
	(multisig.ExecuteMsg{}).Path():             func() custody.Msg { return &multisig.ExecuteMsg{} },
	(multisig.UpdateConfigurationMsg{}).Path(): func() custody.Msg { return &multisig.UpdateConfigurationMsg{} },
	(sigs.BumpSequenceMsg{}).Path():            func() custody.Msg { return &sigs.BumpSequenceMsg{} },
}

// Tx is a single signed request.
type Tx struct {
	Msg        custody.Msg
	Signatures []*sigs.StdSignature
}

var _ custody.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(raw []byte) (custody.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetMsg returns the carried message.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return tx.Msg, nil
}

// GetSignatures returns all signatures of the request.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are never part of the
// signed content.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	return tx.marshal(false)
}

func (tx *Tx) Marshal() ([]byte, error) {
	return tx.marshal(true)
}

func (tx *Tx) marshal(withSignatures bool) ([]byte, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	raw, err := tx.Msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "message")
	}
	var b []byte
	b = codec.AppendString(b, 1, tx.Msg.Path())
	b = codec.AppendBytes(b, 2, raw)
	if withSignatures {
		for _, s := range tx.Signatures {
			if b, err = codec.AppendMessage(b, 3, s); err != nil {
				return nil, errors.Wrap(err, "signature")
			}
		}
	}
	return b, nil
}

func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	var (
		path    string
		payload []byte
	)
	err := codec.Decode(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			path, err = f.Text()
		case 2:
			payload, err = f.Copy()
		case 3:
			var s sigs.StdSignature
			err = f.Unmarshal(&s)
			tx.Signatures = append(tx.Signatures, &s)
		}
		return err
	})
	if err != nil {
		return err
	}

	newMsg, ok := msgTypes[path]
	if !ok {
		return errors.Wrapf(errors.ErrType, "unknown message path %q", path)
	}
	msg := newMsg()
	if err := msg.Unmarshal(payload); err != nil {
		return errors.Wrapf(err, "cannot decode %s", path)
	}
	tx.Msg = msg
	return nil
}
