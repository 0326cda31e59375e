package orm

import (
	"encoding/binary"

	"github.com/iov-one/custody/errors"
)

// CellHeaderSize is the number of bytes used by the capacity and length
// prefix of every stored cell.
const CellHeaderSize = 8

// MaxCapacity is the largest payload capacity a cell can reserve.
const MaxCapacity = 10 * 1024 * 1024

// encodeCell returns the stored representation of the payload padded to
// the given capacity.
func encodeCell(capacity uint32, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > uint64(capacity) {
		return nil, errors.Wrapf(errors.ErrCapacityExceeded,
			"payload of %d bytes does not fit into %d", len(payload), capacity)
	}
	cell := make([]byte, CellHeaderSize+int(capacity))
	binary.BigEndian.PutUint32(cell[0:4], capacity)
	binary.BigEndian.PutUint32(cell[4:8], uint32(len(payload)))
	copy(cell[CellHeaderSize:], payload)
	return cell, nil
}

// decodeCell returns the capacity and the payload of a stored cell.
func decodeCell(cell []byte) (uint32, []byte, error) {
	if len(cell) < CellHeaderSize {
		return 0, nil, errors.Wrap(errors.ErrDatabase, "cell header truncated")
	}
	capacity := binary.BigEndian.Uint32(cell[0:4])
	length := binary.BigEndian.Uint32(cell[4:8])
	if uint64(len(cell)) != CellHeaderSize+uint64(capacity) {
		return 0, nil, errors.Wrapf(errors.ErrDatabase,
			"cell size %d does not match capacity %d", len(cell), capacity)
	}
	if length > capacity {
		return 0, nil, errors.Wrapf(errors.ErrDatabase,
			"cell length %d exceeds capacity %d", length, capacity)
	}
	return capacity, cell[CellHeaderSize : CellHeaderSize+length], nil
}
