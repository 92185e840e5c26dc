package sqlite

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lindeneg/empbtree/internal/telemetry"
)

func textColumn(s string) (serialType uint64, bytes_ []byte) {
	return uint64(13 + 2*len(s)), []byte(s)
}

// buildSchemaCell builds one sqlite_schema row: (type, name, tbl_name,
// rootpage, sql), with rootpage using serial type 1 (matches real sqlite3
// output for small root page numbers) and sql as an empty text column.
func buildSchemaCell(rowid int64, typ, name string, rootPage int64) []byte {
	typST, typBytes := textColumn(typ)
	nameST, nameBytes := textColumn(name)
	tblST, tblBytes := textColumn(name)
	sqlST, sqlBytes := textColumn("")

	payload := buildRecordPayload(
		[]uint64{typST, nameST, tblST, 1, sqlST},
		[][]byte{typBytes, nameBytes, tblBytes, {byte(rootPage)}, sqlBytes},
	)
	return buildLeafTableCell(rowid, payload)
}

func TestReadCatalogParsesEntries(t *testing.T) {
	const pageSize = 4096
	cellA := buildSchemaCell(1, "table", "Employee", 5)
	cellB := buildSchemaCell(2, "index", "sqlite_autoindex_Employee_1", 9)

	page := make([]byte, pageSize)
	page[FileHeaderSize] = byte(LeafTable)
	offA := 300
	offB := 200
	copy(page[offA:], cellA)
	copy(page[offB:], cellB)
	// cell pointer array (page one: header starts after the 100-byte file
	// header, 8-byte leaf header, then 2 pointers)
	ptrBase := FileHeaderSize + 8
	putUint16At(page, ptrBase, uint16(offA))
	putUint16At(page, ptrBase+2, uint16(offB))
	putUint16At(page, FileHeaderSize+3, 2) // cell count

	pio := NewPageIO(bytes.NewReader(page), pageSize, telemetry.New())
	catalog, err := ReadCatalog(pio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	emp, ok := catalog["Employee"]
	if !ok {
		t.Fatalf("catalog missing Employee entry")
	}
	if emp.Type != "table" || emp.RootPage != 5 {
		t.Fatalf("Employee entry = %+v, want type=table rootpage=5", emp)
	}

	idx, ok := catalog["sqlite_autoindex_Employee_1"]
	if !ok {
		t.Fatalf("catalog missing index entry")
	}
	if idx.Type != "index" || idx.RootPage != 9 {
		t.Fatalf("index entry = %+v, want type=index rootpage=9", idx)
	}

	root, err := RootPage(catalog, "Employee")
	if err != nil || root != 5 {
		t.Fatalf("RootPage(Employee) = (%d, %v), want (5, nil)", root, err)
	}
}

func TestRootPageNotFound(t *testing.T) {
	_, err := RootPage(map[string]SchemaEntry{}, "Nope")
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
}

func putUint16At(page []byte, off int, v uint16) {
	page[off] = byte(v >> 8)
	page[off+1] = byte(v)
}
