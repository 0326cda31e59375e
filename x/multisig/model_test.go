package multisig

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestMultisigValidate(t *testing.T) {
	owners := newOwners(t, 3)

	cases := map[string]struct {
		model   *Multisig
		wantErr *errors.Error
	}{
		"valid": {
			model: &Multisig{Metadata: &custody.Metadata{Schema: 1}, Owners: owners, Threshold: 2, AuthorityNonce: 255},
		},
		"threshold equal to owner count can be stored": {
			model: &Multisig{Metadata: &custody.Metadata{Schema: 1}, Owners: owners, Threshold: 3},
		},
		"missing metadata": {
			model:   &Multisig{Owners: owners, Threshold: 2},
			wantErr: errors.ErrMetadata,
		},
		"zero threshold": {
			model:   &Multisig{Metadata: &custody.Metadata{Schema: 1}, Owners: owners},
			wantErr: errors.ErrInvalidThreshold,
		},
		"threshold above owner count": {
			model:   &Multisig{Metadata: &custody.Metadata{Schema: 1}, Owners: owners, Threshold: 4},
			wantErr: errors.ErrInvalidThreshold,
		},
		"duplicated owner": {
			model:   &Multisig{Metadata: &custody.Metadata{Schema: 1}, Owners: append(owners, owners[0]), Threshold: 2},
			wantErr: errors.ErrDuplicateOwner,
		},
		"no owners": {
			model:   &Multisig{Metadata: &custody.Metadata{Schema: 1}, Threshold: 1},
			wantErr: errors.ErrInvalidOwnersLen,
		},
		"nonce out of range": {
			model:   &Multisig{Metadata: &custody.Metadata{Schema: 1}, Owners: owners, Threshold: 2, AuthorityNonce: 256},
			wantErr: errors.ErrModel,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, tc.model.Validate())
		})
	}
}

func TestProposalValidate(t *testing.T) {
	target := testTarget(t, "data", weavetest.RandomAddr(t))

	cases := map[string]struct {
		model      *Proposal
		wantFields map[string]*errors.Error
	}{
		"valid": {
			model: &Proposal{
				Metadata:   &custody.Metadata{Schema: 1},
				MultisigID: weavetest.SequenceID(1),
				Target:     target,
				Signers:    []bool{true, false},
			},
			wantFields: map[string]*errors.Error{
				"MultisigID": nil,
				"Target":     nil,
				"Signers":    nil,
			},
		},
		"invalid fields": {
			model: &Proposal{
				Metadata:   &custody.Metadata{Schema: 1},
				MultisigID: []byte("short"),
				Target:     &Target{Executor: "!"},
				Signers:    make([]bool, OwnersMax+1),
			},
			wantFields: map[string]*errors.Error{
				"MultisigID": errors.ErrInput,
				"Target":     errors.ErrInput,
				"Signers":    errors.ErrInvalidOwnersLen,
			},
		},
		"missing target": {
			model: &Proposal{
				Metadata:   &custody.Metadata{Schema: 1},
				MultisigID: weavetest.SequenceID(1),
				Signers:    []bool{true},
			},
			wantFields: map[string]*errors.Error{
				"Target": errors.ErrEmpty,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.model.Validate()
			for field, want := range tc.wantFields {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestProposalCopyIsDeep(t *testing.T) {
	p := &Proposal{
		Metadata:   &custody.Metadata{Schema: 1},
		MultisigID: weavetest.SequenceID(1),
		Target:     testTarget(t, "data", weavetest.RandomAddr(t)),
		Signers:    []bool{true, false},
	}
	cpy := p.Copy()
	cpy.Signers[1] = true
	cpy.Target.Accounts[0].IsSigner = true
	cpy.Target.Payload[0] = 'X'

	require.False(t, p.Signers[1])
	require.False(t, p.Target.Accounts[0].IsSigner)
	require.Equal(t, "data", string(p.Target.Payload))
}

func TestProposalEncodingKeepsSignerSlots(t *testing.T) {
	p := &Proposal{
		Metadata:      &custody.Metadata{Schema: 1},
		MultisigID:    weavetest.SequenceID(9),
		Target:        testTarget(t, "", weavetest.RandomAddr(t), weavetest.RandomAddr(t)),
		Signers:       []bool{false, true, false},
		OwnerSetSeqno: 4,
	}
	raw, err := p.Marshal()
	require.NoError(t, err)

	var got Proposal
	require.NoError(t, got.Unmarshal(raw))
	// Trailing false signers and an empty payload must survive the proto3
	// zero value omission.
	assert.Equal(t, p.Signers, got.Signers)
	assert.Equal(t, 2, len(got.Target.Accounts))
	assert.Equal(t, uint64(4), got.OwnerSetSeqno)
	require.False(t, got.Executed)
}

func TestAssertUniqueOwners(t *testing.T) {
	owners := newOwners(t, OwnersMax)

	cases := map[string]struct {
		owners  []custody.Address
		wantErr *errors.Error
	}{
		"unique":              {owners: owners},
		"single":              {owners: owners[:1]},
		"empty":               {owners: nil, wantErr: errors.ErrInvalidOwnersLen},
		"too many":            {owners: append(newOwners(t, 1), owners...), wantErr: errors.ErrInvalidOwnersLen},
		"duplicate":           {owners: []custody.Address{owners[0], owners[1], owners[0]}, wantErr: errors.ErrDuplicateOwner},
		"invalid address":     {owners: []custody.Address{owners[0], custody.Address("short")}, wantErr: errors.ErrInput},
		"adjacent duplicates": {owners: []custody.Address{owners[2], owners[2]}, wantErr: errors.ErrDuplicateOwner},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, AssertUniqueOwners(tc.owners))
		})
	}
}
