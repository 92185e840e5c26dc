package sqlite

import (
	"encoding/binary"
	"fmt"

	"github.com/lindeneg/empbtree/internal/telemetry"
)

// Cell is one decoded B-tree cell. Depending on the page kind, only a
// subset of its fields is meaningful:
//
//	interior table: LeftChild, RowID
//	leaf table:     RowID, Record
//	interior index: LeftChild, Record
//	leaf index:     Record
type Cell struct {
	LeftChild uint32
	RowID     int64
	Record    *Record
}

// ParseCell decodes the cell at cellOffset (relative to page start) in a
// page of the given kind, dispatching on kind for the four cell-shape
// layouts above. pio is consulted only to follow an overflow chain, if the
// cell's payload spills; any such reads are attributed to tkind's
// telemetry bucket.
func ParseCell(page []byte, cellOffset int, kind PageKind, pio *PageIO, tkind telemetry.PageKind, isSchemaRoot bool) (*Cell, error) {
	off := cellOffset
	c := &Cell{}

	if kind.IsInterior() {
		if off+4 > len(page) {
			return nil, fmt.Errorf("%w: left child pointer truncated at offset %d", ErrShortRead, off)
		}
		c.LeftChild = binary.BigEndian.Uint32(page[off : off+4])
		off += 4
	}

	switch kind {
	case InteriorTable:
		rowid, n, err := DecodeVarint(page[off:])
		if err != nil {
			return nil, fmt.Errorf("sqlite: interior table rowid: %w", err)
		}
		c.RowID = int64(rowid)
		_ = n
		return c, nil

	case LeafTable:
		payloadSize, n, err := DecodeVarint(page[off:])
		if err != nil {
			return nil, fmt.Errorf("sqlite: leaf table payload size: %w", err)
		}
		off += n
		rowid, n, err := DecodeVarint(page[off:])
		if err != nil {
			return nil, fmt.Errorf("sqlite: leaf table rowid: %w", err)
		}
		off += n
		c.RowID = int64(rowid)

		rec, err := DecodeRecord(page, off, int(payloadSize), kind, pio, tkind, isSchemaRoot)
		if err != nil {
			return nil, err
		}
		c.Record = rec
		return c, nil

	case InteriorIndex, LeafIndex:
		payloadSize, n, err := DecodeVarint(page[off:])
		if err != nil {
			return nil, fmt.Errorf("sqlite: index payload size: %w", err)
		}
		off += n

		rec, err := DecodeRecord(page, off, int(payloadSize), kind, pio, tkind, isSchemaRoot)
		if err != nil {
			return nil, err
		}
		c.Record = rec
		return c, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownPageKind, uint8(kind))
	}
}
