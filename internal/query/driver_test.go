package query

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/lindeneg/empbtree/internal/telemetry"
)

// encodeVarint builds the big-endian varint sqlite.DecodeVarint expects:
// groups are collected least-significant-first, then emitted most-
// significant-first, with the continuation bit set on every byte but the
// last.
func encodeVarint(v uint64) []byte {
	if v == 0 {
		return []byte{0x00}
	}
	var groups []byte
	for v > 0 {
		groups = append(groups, byte(v&0x7f))
		v >>= 7
	}
	out := make([]byte, len(groups))
	for i := range groups {
		b := groups[len(groups)-1-i]
		if i != len(groups)-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

func textCol(s string) (uint64, []byte) { return uint64(13 + 2*len(s)), []byte(s) }
func intCol(v int64) (uint64, []byte)   { return 2, []byte{byte(v >> 8), byte(v)} }

// buildPayload assumes every serial type varint (and the header-size varint
// itself) fits in one byte, true for all fixture data in this file.
func buildPayload(serialTypes []uint64, cols [][]byte) []byte {
	headerSize := 1 + len(serialTypes)
	header := []byte{byte(headerSize)}
	for _, st := range serialTypes {
		header = append(header, byte(st))
	}
	var body []byte
	for _, c := range cols {
		body = append(body, c...)
	}
	return append(header, body...)
}

func buildLeafCell(rowid int64, payload []byte) []byte {
	cell := encodeVarint(uint64(len(payload)))
	cell = append(cell, encodeVarint(uint64(rowid))...)
	return append(cell, payload...)
}

func layoutLeafPage(pageSize, base int, cells [][]byte) []byte {
	page := make([]byte, pageSize)
	page[base] = 0x0D // leaf table
	binary.BigEndian.PutUint16(page[base+3:base+5], uint16(len(cells)))
	offset := base + 200
	for i, cell := range cells {
		binary.BigEndian.PutUint16(page[base+8+i*2:base+8+i*2+2], uint16(offset))
		copy(page[offset:], cell)
		offset += len(cell) + 8
	}
	return page
}

// buildEmployeeDB builds a minimal 2-page database: page 1 is the schema
// root naming "Employee" at page 2; page 2 is a single leaf holding three
// rows (Emp ID, First, Middle, Last).
func buildEmployeeDB(pageSize int) []byte {
	schemaPayload := buildPayload(
		[]uint64{13 + 2*5, 13 + 2*8, 13 + 2*8, 1, 13},
		[][]byte{[]byte("table"), []byte("Employee"), []byte("Employee"), {2}, {}},
	)
	schemaCell := buildLeafCell(1, schemaPayload)

	rows := []struct {
		empID              int64
		first, mid, last string
	}{
		{100, "Ann", "B", "Rowe"},
		{200, "Bob", "C", "Rowe"},
		{300, "Cid", "D", "Smith"},
	}
	var dataCells [][]byte
	for i, r := range rows {
		empST, empBytes := intCol(r.empID)
		firstST, firstBytes := textCol(r.first)
		midST, midBytes := textCol(r.mid)
		lastST, lastBytes := textCol(r.last)
		payload := buildPayload(
			[]uint64{empST, firstST, midST, lastST},
			[][]byte{empBytes, firstBytes, midBytes, lastBytes},
		)
		dataCells = append(dataCells, buildLeafCell(int64(i+1), payload))
	}

	page1 := layoutLeafPage(pageSize, 100, [][]byte{schemaCell})
	binary.BigEndian.PutUint16(page1[16:18], uint16(pageSize))
	binary.BigEndian.PutUint32(page1[28:32], 2)

	page2 := layoutLeafPage(pageSize, 0, dataCells)

	var buf bytes.Buffer
	buf.Write(page1)
	buf.Write(page2)
	return buf.Bytes()
}

func writeFixtureDB(t *testing.T, pageSize int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "employee.db")
	if err := os.WriteFile(path, buildEmployeeDB(pageSize), 0o644); err != nil {
		t.Fatalf("writing fixture db: %v", err)
	}
	return path
}

func TestDriverRunScanLastNamePrintsAllMatches(t *testing.T) {
	path := writeFixtureDB(t, 512)
	var out bytes.Buffer
	d := NewDriver(Config{}, telemetry.New(), &out)

	db, err := d.open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.close()

	if err := d.runScanLastName(db.pio, mustRoot(t, db, "Employee"), "Rowe"); err != nil {
		t.Fatalf("runScanLastName: %v", err)
	}
	got := out.String()
	if want := "Emp ID: 100, Full Name: Ann B Rowe\n"; !bytes.Contains([]byte(got), []byte(want)) {
		t.Fatalf("output %q missing %q", got, want)
	}
	if want := "Emp ID: 200, Full Name: Bob C Rowe\n"; !bytes.Contains([]byte(got), []byte(want)) {
		t.Fatalf("output %q missing %q", got, want)
	}
	if bytes.Contains([]byte(got), []byte("Smith")) {
		t.Fatalf("output %q should not contain the non-matching Smith row", got)
	}
}

func TestDriverRunScanEqualityStopsAtFirstMatch(t *testing.T) {
	path := writeFixtureDB(t, 512)
	var out bytes.Buffer
	d := NewDriver(Config{}, telemetry.New(), &out)

	db, err := d.open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.close()

	if err := d.runScanEquality(db.pio, mustRoot(t, db, "Employee"), 200); err != nil {
		t.Fatalf("runScanEquality: %v", err)
	}
	if got := out.String(); got != "Full Name: Bob C Rowe\n" {
		t.Fatalf("output = %q, want %q", got, "Full Name: Bob C Rowe\n")
	}
}

func TestDriverRunScanRangePrintsAllInRange(t *testing.T) {
	path := writeFixtureDB(t, 512)
	var out bytes.Buffer
	d := NewDriver(Config{}, telemetry.New(), &out)

	db, err := d.open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.close()

	if err := d.runScanRange(db.pio, mustRoot(t, db, "Employee"), 150, 300); err != nil {
		t.Fatalf("runScanRange: %v", err)
	}
	got := out.String()
	if bytes.Contains([]byte(got), []byte("Ann")) {
		t.Fatalf("output %q should exclude Emp ID 100 (out of range)", got)
	}
	if !bytes.Contains([]byte(got), []byte("Bob")) || !bytes.Contains([]byte(got), []byte("Cid")) {
		t.Fatalf("output %q missing an in-range row", got)
	}
}

func mustRoot(t *testing.T, db *database, name string) uint32 {
	t.Helper()
	entry, ok := db.catalog[name]
	if !ok {
		t.Fatalf("catalog missing %q", name)
	}
	return entry.RootPage
}
