package main

import (
	"fmt"
	"io"

	"github.com/iov-one/custody/app"
)

func cmdInitGenesis(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("init-genesis", `
Initialize the store from a genesis file. JSON and YAML files are accepted.

The genesis declares the chain ID all requests are signed for, the
multisig configuration under conf.multisig and the list of multisigs that
are created on initialization under multisig. A store can be initialized
only once.
`)
	genesisFl := fl.String("genesis", "genesis.json", "Path to the genesis file.")
	if err := fl.Parse(args); err != nil {
		return err
	}

	gen, err := app.LoadGenesis(*genesisFl)
	if err != nil {
		return err
	}
	return withSession(conf, func(s *session) error {
		if err := s.engine.InitChain(gen); err != nil {
			return err
		}
		_, err := fmt.Fprintf(output, "initialized %s\n", gen.ChainID)
		return err
	})
}
