package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestMultisigWorkflow(t *testing.T) {
	for _, backend := range []string{"bolt", "leveldb"} {
		t.Run(backend, func(t *testing.T) {
			testMultisigWorkflow(t, backend)
		})
	}
}

func testMultisigWorkflow(t *testing.T, backend string) {
	home := setupHome(t, backend)

	keys := make(map[string]string)
	addrs := make(map[string]string)
	for _, name := range []string{"a", "b", "c"} {
		keys[name] = filepath.Join(home, name+".key")
		run(t, nil, "keygen", "--key", keys[name])
		addrs[name] = strings.TrimSpace(run(t, nil, "keyaddr", "--key", keys[name]))
	}

	genesis := filepath.Join(home, "genesis.yaml")
	require.NoError(t, ioutil.WriteFile(genesis, []byte("chain_id: cli-test-chain\n"), 0600))

	// Nothing can be done before the store is initialized.
	_, err := runErr(nil, "create-multisig", "--key", keys["a"],
		"--owners", addrs["a"]+","+addrs["b"], "--threshold", "1")
	assert.IsErr(t, errors.ErrState, err)

	assert.Equal(t, "initialized cli-test-chain\n", run(t, nil, "init-genesis", "--genesis", genesis))
	_, err = runErr(nil, "init-genesis", "--genesis", genesis)
	assert.IsErr(t, errors.ErrState, err)

	out := run(t, nil, "create-multisig", "--key", keys["a"],
		"--owners", strings.Join([]string{addrs["a"], addrs["b"], addrs["c"]}, ","),
		"--threshold", "2")
	fields := strings.Fields(out)
	require.Equal(t, 4, len(fields), out)
	assert.Equal(t, []string{"multisig", "1", "authority"}, fields[:3])
	authority := fields[3]

	var ms multisigView
	require.NoError(t, json.Unmarshal([]byte(run(t, nil, "view-multisig", "--multisig", "1")), &ms))
	assert.Equal(t, uint32(2), ms.Threshold)
	assert.Equal(t, 3, len(ms.Owners))
	assert.Equal(t, authority, ms.Authority.String())

	// Remove c from the owners, with a governance proposal.
	payload := run(t, nil, "set-owners-payload", "--multisig", "1", "--owners", addrs["a"]+","+addrs["b"])
	assert.Equal(t, "proposal 1\n", run(t, strings.NewReader(payload), "propose", "--key", keys["b"], "--multisig", "1"))

	_, err = runErr(nil, "execute", "--key", keys["a"], "--proposal", "1")
	assert.IsErr(t, errors.ErrNotEnoughSigners, err)

	_, err = runErr(nil, "approve", "--key", filepath.Join(home, "missing.key"), "--proposal", "1")
	if err == nil {
		t.Fatal("approved with a missing key")
	}

	run(t, nil, "approve", "--key", keys["c"], "--proposal", "1")
	// Anyone can execute, the approvals authorize the action.
	run(t, nil, "execute", "--key", keys["a"], "--proposal", "1")

	_, err = runErr(nil, "execute", "--key", keys["a"], "--proposal", "1")
	assert.IsErr(t, errors.ErrAlreadyExecuted, err)

	require.NoError(t, json.Unmarshal([]byte(run(t, nil, "view-multisig", "--multisig", "1")), &ms))
	assert.Equal(t, 2, len(ms.Owners))
	assert.Equal(t, uint64(1), ms.OwnerSetSeqno)
	assert.Equal(t, authority, ms.Authority.String())

	// c lost the owner rights.
	_, err = runErr(nil, "propose", "--key", keys["c"], "--multisig", "1",
		"--executor", "test/noop", "--account", authority+":writable")
	assert.IsErr(t, errors.ErrNotAnOwner, err)

	// A proposal for an executor that does not exist fails on execution
	// and stays pending.
	assert.Equal(t, "proposal 2\n", run(t, nil, "propose", "--key", keys["a"], "--multisig", "1",
		"--executor", "test/noop", "--account", authority+":writable", "--payload", "cafe"))
	run(t, nil, "approve", "--key", keys["b"], "--proposal", "2")
	_, err = runErr(nil, "execute", "--key", keys["b"], "--proposal", "2")
	assert.IsErr(t, errors.ErrExecutorFailed, err)

	var p proposalView
	require.NoError(t, json.Unmarshal([]byte(run(t, nil, "view-proposal", "--proposal", "2")), &p))
	assert.Equal(t, false, p.Executed)
	assert.Equal(t, "test/noop", p.Executor)
	assert.Equal(t, "CAFE", p.Payload)
	assert.Equal(t, []bool{true, true}, p.Signers)
	assert.Equal(t, 1, len(p.Accounts))
	assert.Equal(t, true, p.Accounts[0].IsWritable)

	lines := strings.Split(strings.TrimSpace(run(t, nil, "list-proposals", "--multisig", "1")), "\n")
	assert.Equal(t, 2, len(lines))
	var first proposalView
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, true, first.Executed)
	assert.Equal(t, "multisig/governance", first.Executor)

	// Lower the threshold so that a single owner can act alone.
	payload = run(t, nil, "change-threshold-payload", "--multisig", "1", "--threshold", "1")
	assert.Equal(t, "proposal 3\n", run(t, strings.NewReader(payload), "propose", "--key", keys["a"], "--multisig", "1"))
	run(t, nil, "approve", "--key", keys["b"], "--proposal", "3")
	run(t, nil, "execute", "--key", keys["b"], "--proposal", "3")
	require.NoError(t, json.Unmarshal([]byte(run(t, nil, "view-multisig", "--multisig", "1")), &ms))
	assert.Equal(t, uint32(1), ms.Threshold)
}

func TestGenesisMultisigsAreViewable(t *testing.T) {
	home := setupHome(t, "bolt")
	key := filepath.Join(home, "owner.key")
	run(t, nil, "keygen", "--key", key)
	addr := strings.TrimSpace(run(t, nil, "keyaddr", "--key", key))
	other := strings.TrimSpace(run(t, nil, "keyaddr", "--key", mustKeygen(t, home, "other.key")))

	genesis := filepath.Join(home, "genesis.json")
	content := fmt.Sprintf(`{
		"chain_id": "genesis-chain",
		"app_state": {
			"multisig": [{"owners": [%q, %q], "threshold": 1}]
		}
	}`, addr, other)
	require.NoError(t, ioutil.WriteFile(genesis, []byte(content), 0600))
	run(t, nil, "init-genesis", "--genesis", genesis)

	var ms multisigView
	require.NoError(t, json.Unmarshal([]byte(run(t, nil, "view-multisig", "--multisig", "1")), &ms))
	assert.Equal(t, int64(1), ms.ID)
	assert.Equal(t, uint32(1), ms.Threshold)
	assert.Equal(t, addr, ms.Owners[0].String())

	_, err := runErr(nil, "view-multisig", "--multisig", "2")
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = runErr(nil, "view-proposal", "--proposal", "1")
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, "", run(t, nil, "list-proposals", "--multisig", "1"))
}

func TestPayloadHexOutput(t *testing.T) {
	home := setupHome(t, "bolt")
	a := strings.TrimSpace(run(t, nil, "keyaddr", "--key", mustKeygen(t, home, "a.key")))
	b := strings.TrimSpace(run(t, nil, "keyaddr", "--key", mustKeygen(t, home, "b.key")))

	genesis := filepath.Join(home, "genesis.json")
	content := fmt.Sprintf(`{"chain_id": "payload-chain", "app_state": {"multisig": [{"owners": [%q, %q], "threshold": 1}]}}`, a, b)
	require.NoError(t, ioutil.WriteFile(genesis, []byte(content), 0600))
	run(t, nil, "init-genesis", "--genesis", genesis)

	raw := run(t, nil, "set-owners-payload", "--multisig", "1", "--owners", a+","+b, "--hex")
	if !bytes.HasSuffix([]byte(raw), []byte("\n")) || len(raw) < 10 {
		t.Fatalf("unexpected hex payload: %q", raw)
	}

	// A zero threshold is rejected before proposing.
	_, err := runErr(nil, "change-threshold-payload", "--multisig", "1", "--threshold", "0")
	if err == nil {
		t.Fatal("zero threshold accepted")
	}
}

func mustKeygen(t testing.TB, home, name string) string {
	t.Helper()
	path := filepath.Join(home, name)
	run(t, nil, "keygen", "--key", path)
	return path
}
