package sqlite

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FileHeaderSize is the size of the file-level header at the front of page 1.
const FileHeaderSize = 100

// Header is the subset of the 100-byte file header the reader needs: page
// size and page count.
type Header struct {
	PageSize  uint32
	PageCount uint32
}

// ReadHeader parses the file-level header from the front of the database
// file. Page size lives at offset 16 (2 bytes, big-endian; a stored value of
// 1 denotes a 65536-byte page); total page count lives at offset 28 (4
// bytes, big-endian).
func ReadHeader(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, FileHeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("sqlite: read file header: %w", err)
	}

	rawPageSize := binary.BigEndian.Uint16(buf[16:18])
	pageSize := uint32(rawPageSize)
	if rawPageSize == 1 {
		pageSize = 65536
	}

	pageCount := binary.BigEndian.Uint32(buf[28:32])

	return &Header{PageSize: pageSize, PageCount: pageCount}, nil
}
