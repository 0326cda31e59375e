package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands is a register of all availables commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// When a cmd function is called it is given stdin, stdout and command line
// arguments except the program name and this command name. It is the
// responsibility of the command function to parse the arguments.
//
// Commands that only build data write it to the output, so that they can be
// combined with a unix pipe:
//
//   $ custodycli set-owners-payload --multisig 1 --owners $A,$B \
//       | custodycli propose --multisig 1
//
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"approve":                  cmdApprove,
	"change-threshold-payload": cmdChangeThresholdPayload,
	"create-multisig":          cmdCreateMultisig,
	"derive-key":               cmdDeriveKey,
	"execute":                  cmdExecute,
	"init-genesis":             cmdInitGenesis,
	"keyaddr":                  cmdKeyaddr,
	"keygen":                   cmdKeygen,
	"list-proposals":           cmdListProposals,
	"propose":                  cmdPropose,
	"set-owners-payload":       cmdSetOwnersPayload,
	"version":                  cmdVersion,
	"view-multisig":            cmdViewMultisig,
	"view-proposal":            cmdViewProposal,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s is a command line client for the custody engine.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> --help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	// Skip two first arguments. Second argument is the command name that
	// we just consumed.
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"
