package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/iov-one/custody/crypto"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("keygen", `
Generate a new random private key.

When successful a new file with binary content containing private key is
created. This command fails if the private key file already exists.
`)
	keyPathFl := fl.String("key", conf.Key, "Path to the private key file. You can use CUSTODY_KEY environment variable to set it.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	return writeKey(*keyPathFl, crypto.GenPrivateKey())
}

func cmdDeriveKey(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("derive-key", `
Derive a private key from a hex encoded master seed.

The same seed and index always produce the same key. When successful a new
file with binary content containing private key is created. This command
fails if the private key file already exists.
`)
	var (
		keyPathFl = fl.String("key", conf.Key, "Path to the private key file. You can use CUSTODY_KEY environment variable to set it.")
		seedFl    = fl.BytesHex("seed", nil, "Hex encoded master seed.")
		indexFl   = fl.Uint32("index", 0, "Index of the derived key.")
		pathFl    = fl.String("path", "", "Derivation path. Overwrites the index when set.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	if len(*seedFl) == 0 {
		return fmt.Errorf("seed is required")
	}
	path := *pathFl
	if path == "" {
		path = crypto.DerivationPath(*indexFl)
	}
	key, err := crypto.DeriveKey(*seedFl, path)
	if err != nil {
		return err
	}
	if err := writeKey(*keyPathFl, key); err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, path)
	return err
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	fl := newFlagSet("keyaddr", `
Print out the address associated with your private key.
`)
	var (
		keyPathFl = fl.String("key", conf.Key, "Path to the private key file. You can use CUSTODY_KEY environment variable to set it.")
		bech32Fl  = fl.String("bech32", "", "When set, the address is bech32 encoded using given prefix.")
		pubkeyFl  = fl.Bool("pubkey", false, "Print the hex encoded public key as well.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}

	key, err := readKey(*keyPathFl)
	if err != nil {
		return err
	}
	addr := key.PublicKey().Address()
	out := addr.String()
	if *bech32Fl != "" {
		if out, err = addr.Bech32(*bech32Fl); err != nil {
			return err
		}
	}
	if *pubkeyFl {
		out += " " + hex.EncodeToString(key.PublicKey())
	}
	_, err = fmt.Fprintln(output, out)
	return err
}

func writeKey(path string, key *crypto.PrivateKey) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		// Do not allow to overwrite already existing private key. User
		// must manually delete it first to ensure we do not delete
		// such crucial data by an accident (bad command usage).
		return fmt.Errorf("private key file %q already exists, delete this file and try again", path)
	}

	fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot create private key file: %s", err)
	}
	defer fd.Close()

	if _, err := fd.Write(key.Bytes()); err != nil {
		return fmt.Errorf("cannot write private key: %s", err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("cannot close private key file: %s", err)
	}
	return nil
}

func readKey(path string) (*crypto.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read private key file: %s", err)
	}
	return crypto.ParsePrivateKey(raw)
}
