package sqlite

import (
	"fmt"

	"github.com/lindeneg/empbtree/internal/telemetry"
)

// SchemaEntry is one row of the schema root: a table or index name mapped
// to its B-tree root page.
type SchemaEntry struct {
	Type     string
	Name     string
	RootPage uint32
}

// ReadCatalog parses page 1's schema root into name -> SchemaEntry. Page 1
// is always treated as a leaf table B-tree; the read is classified as a
// telemetry.Header read.
func ReadCatalog(pio *PageIO) (map[string]SchemaEntry, error) {
	page, err := pio.ReadPage(1)
	if err != nil {
		return nil, err
	}
	pio.CountRead(telemetry.Header)

	header, err := ParsePageHeader(page, true)
	if err != nil {
		return nil, err
	}
	if header.Kind != LeafTable {
		return nil, fmt.Errorf("%w: schema root is page kind %s, want leaf table", ErrBadSchemaRecord, header.Kind)
	}

	ptrs, err := header.CellPointers(page)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]SchemaEntry, len(ptrs))
	for _, ptr := range ptrs {
		cell, err := ParseCell(page, int(ptr), header.Kind, pio, telemetry.Header, true)
		if err != nil {
			return nil, err
		}
		if cell.Record == nil || len(cell.Record.Values) < 4 {
			return nil, fmt.Errorf("%w: schema cell has %d columns", ErrBadSchemaRecord, len(cell.Record.Values))
		}

		typ, ok := cell.Record.Column(0).Text()
		if !ok {
			return nil, fmt.Errorf("%w: schema type column is not text", ErrBadSchemaRecord)
		}
		name, ok := cell.Record.Column(1).Text()
		if !ok {
			return nil, fmt.Errorf("%w: schema name column is not text", ErrBadSchemaRecord)
		}
		rootPage, ok := cell.Record.Column(3).Int64()
		if !ok {
			return nil, fmt.Errorf("%w: schema rootpage column is not integer", ErrBadSchemaRecord)
		}

		entries[name] = SchemaEntry{Type: typ, Name: name, RootPage: uint32(rootPage)}
	}

	return entries, nil
}

// RootPage looks up name's root page number, failing with ErrRootNotFound
// if the catalog has no entry for it.
func RootPage(catalog map[string]SchemaEntry, name string) (uint32, error) {
	entry, ok := catalog[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrRootNotFound, name)
	}
	return entry.RootPage, nil
}
