package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/multisig"
)

var metadata = &custody.Metadata{Schema: 1}

func cmdCreateMultisig(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("create-multisig", `
Create a new multisig with given owners and threshold.

The creator does not have to be an owner. When successful, the multisig ID
and the address of its delegated authority are printed.
`)
	var (
		keyPathFl   = fl.String("key", conf.Key, "Path to the private key file that request should be signed with.")
		ownersFl    = flAddresses(fl, "owners", "Comma separated owner addresses.")
		thresholdFl = fl.Uint32("threshold", 0, "Number of approvals required to execute a proposal.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}

	msg := &multisig.CreateMsg{
		Metadata:  metadata,
		Owners:    *ownersFl,
		Threshold: *thresholdFl,
	}
	return withSession(conf, func(s *session) error {
		res, err := signAndDeliver(s, key, msg)
		if err != nil {
			return err
		}
		id, err := orm.DecodeSequence(res.Data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(output, "multisig %d %s\n", id, res.Log)
		return err
	})
}

func cmdPropose(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("propose", `
Create a proposal for a multisig. The signer must be an owner and the
proposal is approved by the signer on creation.

When no executor is given, a serialized target is read from the input, as
written by set-owners-payload or change-threshold-payload.

Accounts are described as <address>[:signer][:writable].
`)
	var (
		keyPathFl  = fl.String("key", conf.Key, "Path to the private key file that request should be signed with.")
		multisigFl = flSequence(fl, "multisig", "Multisig ID.")
		executorFl = fl.String("executor", "", "Executor of the delegated action.")
		accountsFl = fl.StringArray("account", nil, "Participant account. Can be repeated.")
		payloadFl  = fl.BytesHex("payload", nil, "Hex encoded executor payload.")
		capacityFl = fl.Uint32("capacity", 0, "Declared proposal capacity. Zero uses the planned capacity.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}

	var target multisig.Target
	if *executorFl == "" {
		raw, err := ioutil.ReadAll(input)
		if err != nil {
			return fmt.Errorf("cannot read target: %s", err)
		}
		if err := target.Unmarshal(raw); err != nil {
			return fmt.Errorf("cannot decode target: %s", err)
		}
	} else {
		target.Executor = *executorFl
		target.Payload = *payloadFl
		for _, raw := range *accountsFl {
			acc, err := parseAccount(raw)
			if err != nil {
				return err
			}
			target.Accounts = append(target.Accounts, acc)
		}
	}

	msg := &multisig.CreateTransactionMsg{
		Metadata:   metadata,
		MultisigID: *multisigFl,
		Target:     &target,
		Capacity:   *capacityFl,
	}
	return withSession(conf, func(s *session) error {
		res, err := signAndDeliver(s, key, msg)
		if err != nil {
			return err
		}
		id, err := orm.DecodeSequence(res.Data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(output, "proposal %d\n", id)
		return err
	})
}

func cmdApprove(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("approve", `
Approve a proposal. The signer must be an owner of the proposal multisig.
Approving more than once has no effect.
`)
	var (
		keyPathFl  = fl.String("key", conf.Key, "Path to the private key file that request should be signed with.")
		proposalFl = flSequence(fl, "proposal", "Proposal ID.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}

	msg := &multisig.ApproveMsg{Metadata: metadata, ProposalID: *proposalFl}
	return withSession(conf, func(s *session) error {
		_, err := signAndDeliver(s, key, msg)
		return err
	})
}

func cmdExecute(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("execute", `
Execute a proposal that collected enough approvals. Anyone can execute.
`)
	var (
		keyPathFl  = fl.String("key", conf.Key, "Path to the private key file that request should be signed with.")
		proposalFl = flSequence(fl, "proposal", "Proposal ID.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}

	msg := &multisig.ExecuteMsg{Metadata: metadata, ProposalID: *proposalFl}
	return withSession(conf, func(s *session) error {
		_, err := signAndDeliver(s, key, msg)
		return err
	})
}

func cmdSetOwnersPayload(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("set-owners-payload", `
Write the serialized proposal target replacing the owner set of a multisig.
Use the output as the input of the propose command.
`)
	var (
		multisigFl = flSequence(fl, "multisig", "Multisig ID.")
		ownersFl   = flAddresses(fl, "owners", "Comma separated new owner addresses.")
		hexFl      = fl.Bool("hex", false, "Print the payload of the target hex encoded instead.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	return withSession(conf, func(s *session) error {
		authority, err := multisigAuthority(s, *multisigFl)
		if err != nil {
			return err
		}
		target, err := multisig.SetOwnersTarget(*multisigFl, authority, *ownersFl)
		if err != nil {
			return err
		}
		return writeTarget(output, target, *hexFl)
	})
}

func cmdChangeThresholdPayload(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("change-threshold-payload", `
Write the serialized proposal target changing the threshold of a multisig.
Use the output as the input of the propose command.
`)
	var (
		multisigFl  = flSequence(fl, "multisig", "Multisig ID.")
		thresholdFl = fl.Uint32("threshold", 0, "New threshold.")
		hexFl       = fl.Bool("hex", false, "Print the payload of the target hex encoded instead.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	return withSession(conf, func(s *session) error {
		authority, err := multisigAuthority(s, *multisigFl)
		if err != nil {
			return err
		}
		target, err := multisig.ChangeThresholdTarget(*multisigFl, authority, *thresholdFl)
		if err != nil {
			return err
		}
		return writeTarget(output, target, *hexFl)
	})
}

func multisigAuthority(s *session, id []byte) (custody.Address, error) {
	ms, err := loadMultisig(s, id)
	if err != nil {
		return nil, err
	}
	return ms.Authority(id).Address(), nil
}

func writeTarget(w io.Writer, t *multisig.Target, asHex bool) error {
	if asHex {
		_, err := fmt.Fprintln(w, hex.EncodeToString(t.Payload))
		return err
	}
	raw, err := t.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}
