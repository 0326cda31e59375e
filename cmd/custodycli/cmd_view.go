package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/multisig"
)

func cmdViewMultisig(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("view-multisig", `
Print the multisig state as JSON.
`)
	multisigFl := flSequence(fl, "multisig", "Multisig ID.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	return withSession(conf, func(s *session) error {
		ms, err := loadMultisig(s, *multisigFl)
		if err != nil {
			return err
		}
		return writeJSON(output, newMultisigView(*multisigFl, ms))
	})
}

func cmdViewProposal(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("view-proposal", `
Print the proposal state as JSON.
`)
	proposalFl := flSequence(fl, "proposal", "Proposal ID.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	return withSession(conf, func(s *session) error {
		models, err := s.engine.Query("/proposals", custody.KeyQueryMod, *proposalFl)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			return errors.Wrapf(errors.ErrNotFound, "proposal %s", (*sequenceValue)(proposalFl))
		}
		var p multisig.Proposal
		if err := p.Unmarshal(models[0].Value); err != nil {
			return err
		}
		return writeJSON(output, newProposalView(*proposalFl, &p))
	})
}

func cmdListProposals(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("list-proposals", `
Print all proposals of a multisig as JSON, one proposal per line.
`)
	multisigFl := flSequence(fl, "multisig", "Multisig ID.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	return withSession(conf, func(s *session) error {
		models, err := s.engine.Query("/proposals/multisig", custody.KeyQueryMod, *multisigFl)
		if err != nil {
			return err
		}
		for _, m := range models {
			if len(m.Key) < 8 {
				return errors.Wrapf(errors.ErrModel, "invalid proposal key %X", m.Key)
			}
			var p multisig.Proposal
			if err := p.Unmarshal(m.Value); err != nil {
				return err
			}
			raw, err := json.Marshal(newProposalView(m.Key[len(m.Key)-8:], &p))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(output, string(raw)); err != nil {
				return err
			}
		}
		return nil
	})
}

func loadMultisig(s *session, id []byte) (*multisig.Multisig, error) {
	models, err := s.engine.Query("/multisigs", custody.KeyQueryMod, id)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "multisig %s", (*sequenceValue)(&id))
	}
	var ms multisig.Multisig
	if err := ms.Unmarshal(models[0].Value); err != nil {
		return nil, err
	}
	return &ms, nil
}

type multisigView struct {
	ID            int64             `json:"id"`
	Owners        []custody.Address `json:"owners"`
	Threshold     uint32            `json:"threshold"`
	Authority     custody.Address   `json:"authority"`
	OwnerSetSeqno uint64            `json:"owner_set_seqno"`
}

func newMultisigView(id []byte, ms *multisig.Multisig) multisigView {
	n, _ := orm.DecodeSequence(id)
	return multisigView{
		ID:            n,
		Owners:        ms.Owners,
		Threshold:     ms.Threshold,
		Authority:     ms.Authority(id).Address(),
		OwnerSetSeqno: ms.OwnerSetSeqno,
	}
}

type accountView struct {
	Address    custody.Address `json:"address"`
	IsSigner   bool            `json:"is_signer"`
	IsWritable bool            `json:"is_writable"`
}

type proposalView struct {
	ID            int64         `json:"id"`
	MultisigID    int64         `json:"multisig_id"`
	Executor      string        `json:"executor"`
	Accounts      []accountView `json:"accounts"`
	Payload       string        `json:"payload"`
	Signers       []bool        `json:"signers"`
	Executed      bool          `json:"executed"`
	OwnerSetSeqno uint64        `json:"owner_set_seqno"`
}

func newProposalView(id []byte, p *multisig.Proposal) proposalView {
	n, _ := orm.DecodeSequence(id)
	msID, _ := orm.DecodeSequence(p.MultisigID)
	v := proposalView{
		ID:            n,
		MultisigID:    msID,
		Signers:       p.Signers,
		Executed:      p.Executed,
		OwnerSetSeqno: p.OwnerSetSeqno,
	}
	if p.Target != nil {
		v.Executor = p.Target.Executor
		v.Payload = fmt.Sprintf("%X", p.Target.Payload)
		v.Accounts = make([]accountView, len(p.Target.Accounts))
		for i, a := range p.Target.Accounts {
			v.Accounts[i] = accountView(a)
		}
	}
	return v
}

func writeJSON(w io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
