package multisig

import (
	"math"

	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"google.golang.org/protobuf/encoding/protowire"
)

// Upper bounds of the encoded fields. Every bound assumes the largest value
// the field can hold, as proto3 encoding omits zero values and a record
// grows as it is mutated.
const (
	// metadata message holding a uint32 schema
	metadataFieldMax = 1 + 1 + 1 + 5
	// 8 byte sequence ID
	idFieldMax = 1 + 1 + 8
	// bool
	boolFieldMax = 1 + 1
	// uint32 varint
	uint32FieldMax = 1 + 5
	// uint64 varint
	uint64FieldMax = 1 + 10
	// owner address
	ownerFieldMax = 1 + 1 + 20

	executorNameMax  = 32 + 1 + 32
	executorFieldMax = 1 + 1 + executorNameMax

	// account message holding an address and two flags
	accountBytes      = ownerFieldMax + 2*boolFieldMax
	perAccountBytes   = 1 + 1 + accountBytes
	proposalHeaderMax = metadataFieldMax + idFieldMax + boolFieldMax + uint64FieldMax
)

// MultisigCapacity returns the record capacity of a multisig able to hold up
// to ownersMax owners. The threshold and the owner set version can take any
// value without exceeding it.
func MultisigCapacity(ownersMax int) uint32 {
	n := metadataFieldMax +
		ownerFieldMax*ownersMax +
		uint32FieldMax + // threshold
		uint32FieldMax + // authority nonce
		uint64FieldMax // owner set seqno
	return uint32(n)
}

// ProposalCapacity returns the record capacity of a proposal. It is the sum
// of a fixed header, a per account cost, the payload and the owner signer
// slots. The result saturates at math.MaxUint32, which no cell can hold.
func ProposalCapacity(accounts, payloadLen, owners int) uint32 {
	target := executorFieldMax +
		perAccountBytes*accounts +
		codec.SizeBytesField(3, payloadLen)
	n := proposalHeaderMax +
		protowire.SizeTag(3) + protowire.SizeBytes(target) +
		codec.SizePackedBools(4, owners)
	if n < 0 || uint64(n) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// PlanProposal returns the capacity planned for the target and the owner
// count. A non zero declared capacity replaces the plan as long as it is not
// below it.
func PlanProposal(t *Target, owners int, declared uint32) (uint32, error) {
	planned := ProposalCapacity(len(t.Accounts), len(t.Payload), owners)
	if planned > orm.MaxCapacity {
		return 0, capacityErr(planned, orm.MaxCapacity)
	}
	if declared == 0 {
		return planned, nil
	}
	if declared < planned {
		return 0, capacityErr(planned, declared)
	}
	return declared, nil
}

func capacityErr(need, have uint32) error {
	return errors.Wrapf(errors.ErrCapacityExceeded, "proposal needs %d bytes, %d available", need, have)
}
