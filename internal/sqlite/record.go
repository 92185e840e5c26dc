package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/lindeneg/empbtree/internal/telemetry"
)

// TelemetryKind maps a b-tree page kind to the telemetry bucket a read of
// that kind should count against. An overflow page read is counted in the
// same bucket as the page that owns the cell it belongs to.
func TelemetryKind(kind PageKind) telemetry.PageKind {
	switch kind {
	case InteriorTable, LeafTable:
		return telemetry.Data
	case InteriorIndex:
		return telemetry.IndexInternal
	default:
		return telemetry.IndexLeaf
	}
}

// computeOverflow splits a record payload of payloadSize bytes into the
// portion that stays in the cell and the portion that spills to an overflow
// chain, following SQLite's local-payload-fraction formula. Reserved space
// per page is always 0 for these databases.
func computeOverflow(pageSize uint32, kind PageKind, payloadSize int) (inCell, overflow int) {
	u := int(pageSize)
	var x int
	if kind.IsTable() {
		x = u - 35
	} else {
		x = (u-12)*64/255 - 23
	}
	m := (u-12)*32/255 - 23

	p := payloadSize
	if p <= x {
		return p, 0
	}
	k := m + (p-m)%(u-4)
	if k <= x {
		return k, p - k
	}
	return m, p - m
}

// readOverflowChain follows the singly-linked overflow page chain starting
// at first, harvesting up to total bytes. It rejects a page number that
// repeats within the same chain (ErrOverflowLoop).
func readOverflowChain(pio *PageIO, first uint32, total int, tkind telemetry.PageKind) ([]byte, error) {
	visited := make(map[uint32]struct{})
	out := make([]byte, 0, total)
	next := first
	remaining := total

	for remaining > 0 {
		if next == 0 {
			return nil, fmt.Errorf("%w: overflow chain ended with %d bytes remaining", ErrShortRead, remaining)
		}
		if _, seen := visited[next]; seen {
			return nil, fmt.Errorf("%w: overflow page %d revisited", ErrOverflowLoop, next)
		}
		visited[next] = struct{}{}

		page, err := pio.ReadPage(next)
		if err != nil {
			return nil, err
		}
		pio.CountRead(tkind)
		if len(page) < 4 {
			return nil, fmt.Errorf("%w: overflow page %d too small", ErrShortRead, next)
		}

		nextPage := binary.BigEndian.Uint32(page[0:4])
		avail := len(page) - 4
		take := remaining
		if take > avail {
			take = avail
		}
		out = append(out, page[4:4+take]...)
		remaining -= take
		next = nextPage
	}
	return out, nil
}

func serialInfo(st uint64) (size int, kind ValueKind, err error) {
	switch {
	case st == 0:
		return 0, KindNull, nil
	case st >= 1 && st <= 4:
		return int(st), KindInt, nil
	case st == 5:
		return 6, KindInt, nil
	case st == 6:
		return 8, KindInt, nil
	case st == 7:
		return 8, KindFloat, nil
	case st == 8:
		return 0, KindInt, nil // integer literal 0
	case st == 9:
		return 0, KindInt, nil // integer literal 1
	case st >= 12 && st%2 == 0:
		return int((st - 12) / 2), KindBlob, nil
	case st >= 13 && st%2 == 1:
		return int((st - 13) / 2), KindText, nil
	default:
		return 0, 0, fmt.Errorf("sqlite: unsupported serial type %d", st)
	}
}

// decodeSignedBE sign-extends a big-endian two's-complement integer of
// arbitrary byte length (1, 2, 3, 4, 6 or 8 bytes here).
func decodeSignedBE(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = (v << 8) | int64(c)
	}
	bits := uint(len(b) * 8)
	if bits < 64 && v&(1<<(bits-1)) != 0 {
		v -= 1 << bits
	}
	return v
}

func decodeUnsignedBE(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = (v << 8) | uint64(c)
	}
	return v
}

// DecodeRecord parses one record's payload: payload-header-size varint,
// the serial-type varint sequence, and the column bytes that follow,
// stitching in overflow-page bytes as needed.
//
// page holds the bytes of the page the cell lives in; payloadStart is the
// offset (within page) of the first payload byte; payloadSize is the total
// payload length P from the cell's leading varint. tkind is the telemetry
// bucket overflow reads are attributed to — the owning page's bucket.
// isSchemaRoot enables the schema table's column-3-is-always-integer quirk:
// a schema row's rootpage column is stored as a plain integer serial type
// but must be read unsigned, since a root page number is never negative and
// sqlite_master stores it without sign-extension tricks.
func DecodeRecord(page []byte, payloadStart int, payloadSize int, kind PageKind, pio *PageIO, tkind telemetry.PageKind, isSchemaRoot bool) (*Record, error) {
	inCell, overflow := computeOverflow(pio.PageSize(), kind, payloadSize)

	if payloadStart < 0 || payloadStart+inCell > len(page) {
		return nil, fmt.Errorf("%w: in-cell payload of %d bytes at offset %d exceeds page", ErrShortRead, inCell, payloadStart)
	}

	buf := make([]byte, 0, payloadSize)
	buf = append(buf, page[payloadStart:payloadStart+inCell]...)

	if overflow > 0 {
		ptrOff := payloadStart + inCell
		if ptrOff+4 > len(page) {
			return nil, fmt.Errorf("%w: missing overflow pointer at offset %d", ErrShortRead, ptrOff)
		}
		firstOverflow := binary.BigEndian.Uint32(page[ptrOff : ptrOff+4])
		rest, err := readOverflowChain(pio, firstOverflow, overflow, tkind)
		if err != nil {
			return nil, err
		}
		buf = append(buf, rest...)
	}

	if len(buf) != payloadSize {
		return nil, fmt.Errorf("%w: reconstructed %d bytes, want %d", ErrPayloadSizeMismatch, len(buf), payloadSize)
	}

	headerSize, n, err := DecodeVarint(buf)
	if err != nil {
		return nil, fmt.Errorf("sqlite: payload header size: %w", err)
	}

	var serialTypes []uint64
	offset := n
	for offset < int(headerSize) {
		st, m, err := DecodeVarint(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("sqlite: serial type varint at header offset %d: %w", offset, err)
		}
		serialTypes = append(serialTypes, st)
		offset += m
	}

	body := buf[headerSize:]
	values := make([]Value, len(serialTypes))
	bodyOff := 0

	for i, st := range serialTypes {
		size, vkind, err := serialInfo(st)
		if err != nil {
			return nil, err
		}
		if bodyOff+size > len(body) {
			return nil, fmt.Errorf("%w: column %d needs %d bytes, %d remain", ErrPayloadSizeMismatch, i, size, len(body)-bodyOff)
		}
		data := body[bodyOff : bodyOff+size]
		bodyOff += size

		switch {
		case st == 8:
			values[i] = Value{Kind: KindInt, Int: 0}
		case st == 9:
			values[i] = Value{Kind: KindInt, Int: 1}
		case isSchemaRoot && i == 3:
			values[i] = Value{Kind: KindInt, Int: int64(decodeUnsignedBE(data))}
		case vkind == KindNull:
			values[i] = Value{Kind: KindNull}
		case vkind == KindInt:
			values[i] = Value{Kind: KindInt, Int: decodeSignedBE(data)}
		case vkind == KindFloat:
			values[i] = Value{Kind: KindFloat, Float: math.Float64frombits(binary.BigEndian.Uint64(data))}
		case vkind == KindBlob:
			values[i] = Value{Kind: KindBlob, Bytes: append([]byte(nil), data...)}
		case vkind == KindText:
			if !utf8.Valid(data) {
				return nil, fmt.Errorf("%w: column %d", ErrInvalidUTF8, i)
			}
			values[i] = Value{Kind: KindText, Bytes: append([]byte(nil), data...)}
		}
	}

	if bodyOff != len(body) {
		return nil, fmt.Errorf("%w: consumed %d of %d body bytes", ErrPayloadSizeMismatch, bodyOff, len(body))
	}

	return &Record{Values: values}, nil
}
