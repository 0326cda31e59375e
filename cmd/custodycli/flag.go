package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/orm"
	"github.com/spf13/pflag"
)

// newFlagSet returns a flag set that reports errors instead of terminating
// the process. The output of the usage message is the command output.
func newFlagSet(name, description string) *pflag.FlagSet {
	fl := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fl.Usage = func() {
		fmt.Fprint(fl.Output(), description)
		fl.PrintDefaults()
	}
	return fl
}

// sequenceValue is a decimal flag value encoded as an orm sequence.
type sequenceValue []byte

var _ pflag.Value = (*sequenceValue)(nil)

func (s *sequenceValue) String() string {
	if len(*s) == 0 {
		return ""
	}
	n, err := orm.DecodeSequence(*s)
	if err != nil {
		return fmt.Sprintf("%X", []byte(*s))
	}
	return strconv.FormatInt(n, 10)
}

func (s *sequenceValue) Set(raw string) error {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sequence %q: %s", raw, err)
	}
	if n < 1 {
		return fmt.Errorf("sequence must be greater than zero")
	}
	*s = orm.EncodeSequence(n)
	return nil
}

func (s *sequenceValue) Type() string {
	return "id"
}

// flSequence returns an orm sequence value flag.
func flSequence(fl *pflag.FlagSet, name, usage string) *[]byte {
	var b []byte
	fl.Var((*sequenceValue)(&b), name, usage)
	return &b
}

// addressesValue is a comma separated list of addresses. Every format
// accepted by custody.ParseAddress can be used.
type addressesValue []custody.Address

var _ pflag.Value = (*addressesValue)(nil)

func (a *addressesValue) String() string {
	res := make([]string, len(*a))
	for i, addr := range *a {
		res[i] = addr.String()
	}
	return strings.Join(res, ",")
}

func (a *addressesValue) Set(raw string) error {
	for _, enc := range strings.Split(raw, ",") {
		enc = strings.TrimSpace(enc)
		if enc == "" {
			continue
		}
		addr, err := custody.ParseAddress(enc)
		if err != nil {
			return fmt.Errorf("invalid address %q: %s", enc, err)
		}
		*a = append(*a, addr)
	}
	return nil
}

func (a *addressesValue) Type() string {
	return "addresses"
}

// flAddresses returns an address list flag. The flag can be repeated.
func flAddresses(fl *pflag.FlagSet, name, usage string) *[]custody.Address {
	var addrs []custody.Address
	fl.Var((*addressesValue)(&addrs), name, usage)
	return &addrs
}

// parseAccount decodes an account description of the form
// "<address>[:signer][:writable]".
func parseAccount(raw string) (custody.AccountMeta, error) {
	chunks := strings.Split(raw, ":")
	switch chunks[0] {
	case "cond", "hex", "bech32", "b58":
		// The address format prefix is separated with a colon as well.
		if len(chunks) < 2 {
			return custody.AccountMeta{}, fmt.Errorf("invalid account %q", raw)
		}
		chunks = append([]string{chunks[0] + ":" + chunks[1]}, chunks[2:]...)
	}
	addr, err := custody.ParseAddress(chunks[0])
	if err != nil {
		return custody.AccountMeta{}, fmt.Errorf("invalid account address %q: %s", chunks[0], err)
	}
	acc := custody.AccountMeta{Address: addr}
	for _, flag := range chunks[1:] {
		switch flag {
		case "signer":
			acc.IsSigner = true
		case "writable":
			acc.IsWritable = true
		default:
			return custody.AccountMeta{}, fmt.Errorf("unknown account flag %q", flag)
		}
	}
	return acc, nil
}
