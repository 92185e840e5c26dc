package sqlite

import (
	"encoding/binary"
	"fmt"
)

// PageKind identifies one of the four B-tree page flavors by the flag byte
// at the front of the page (offset 100 within page one).
type PageKind uint8

const (
	InteriorTable PageKind = 0x05
	LeafTable     PageKind = 0x0D
	InteriorIndex PageKind = 0x02
	LeafIndex     PageKind = 0x0A
)

func (k PageKind) String() string {
	switch k {
	case InteriorTable:
		return "interior-table"
	case LeafTable:
		return "leaf-table"
	case InteriorIndex:
		return "interior-index"
	case LeafIndex:
		return "leaf-index"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

// IsInterior reports whether cells of this kind carry a left-child pointer.
func (k PageKind) IsInterior() bool {
	return k == InteriorTable || k == InteriorIndex
}

// IsTable reports whether this kind belongs to a table (rowid) B-tree,
// as opposed to an index B-tree.
func (k PageKind) IsTable() bool {
	return k == InteriorTable || k == LeafTable
}

// PageHeader is the parsed per-page B-tree header.
type PageHeader struct {
	Kind                PageKind
	FreeBlockPtr        uint16
	CellCount           uint16
	CellContentStart    uint16
	FragmentedFreeBytes uint8
	RightChild          uint32 // valid only when Kind.IsInterior()
	HeaderSize          int    // 8 for leaf, 12 for interior
	CellArrayOffset     int    // offset of the cell pointer array, relative to page start
}

// ParsePageHeader parses the B-tree page header from page, which must be the
// raw bytes of the full page (PS bytes). When isPageOne is true the header
// is read starting at relative offset 100, after the file header.
func ParsePageHeader(page []byte, isPageOne bool) (*PageHeader, error) {
	base := 0
	if isPageOne {
		base = FileHeaderSize
	}
	if len(page) < base+8 {
		return nil, fmt.Errorf("%w: page header truncated", ErrShortRead)
	}

	flag := page[base]
	kind := PageKind(flag)
	switch kind {
	case InteriorTable, LeafTable, InteriorIndex, LeafIndex:
	default:
		return nil, fmt.Errorf("%w: flag byte 0x%02x", ErrUnknownPageKind, flag)
	}

	h := &PageHeader{
		Kind:                kind,
		FreeBlockPtr:        binary.BigEndian.Uint16(page[base+1 : base+3]),
		CellCount:           binary.BigEndian.Uint16(page[base+3 : base+5]),
		CellContentStart:    binary.BigEndian.Uint16(page[base+5 : base+7]),
		FragmentedFreeBytes: page[base+7],
	}

	if kind.IsInterior() {
		if len(page) < base+12 {
			return nil, fmt.Errorf("%w: interior page header truncated", ErrShortRead)
		}
		h.HeaderSize = 12
		h.RightChild = binary.BigEndian.Uint32(page[base+8 : base+12])
	} else {
		h.HeaderSize = 8
	}
	h.CellArrayOffset = base + h.HeaderSize

	return h, nil
}

// CellPointers reads the N 2-byte cell offsets that follow the page header,
// in cell-array order (low index to high).
func (h *PageHeader) CellPointers(page []byte) ([]uint16, error) {
	end := h.CellArrayOffset + int(h.CellCount)*2
	if len(page) < end {
		return nil, fmt.Errorf("%w: cell pointer array truncated", ErrShortRead)
	}
	ptrs := make([]uint16, h.CellCount)
	for i := range ptrs {
		off := h.CellArrayOffset + i*2
		ptrs[i] = binary.BigEndian.Uint16(page[off : off+2])
	}
	return ptrs, nil
}
