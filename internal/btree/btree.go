// Package btree implements the four B-tree traversal algorithms used by the
// query layer: full scan, table-rowid equality, index-key equality and
// index-key range. Each walks pages on demand through a sqlite.PageIO,
// classifying every page read into the telemetry sink that PageIO was
// constructed with.
//
// Every lookup descends at most once per level: at an interior node it
// picks the single child whose key range brackets the target and recurses
// into it, rather than falling back to a full scan when the first guess
// misses.
package btree

import (
	"errors"
	"fmt"

	"github.com/lindeneg/empbtree/internal/sqlite"
)

// ErrCyclicTraversal guards against a page number recurring along a single
// root-to-leaf descent path, which can only happen in a malformed file.
var ErrCyclicTraversal = errors.New("btree: page revisited along descent path")

// Predicate is the scan callback: given a decoded leaf record, report
// whether it matches. The first matching record terminates the scan.
type Predicate func(rec *sqlite.Record) bool

// loadedPage bundles one page's parsed header and cell pointers with the
// raw bytes ParseCell needs to decode them.
type loadedPage struct {
	bytes  []byte
	header *sqlite.PageHeader
	ptrs   []uint16
}

func loadPage(pio *sqlite.PageIO, pageNum uint32, visited map[uint32]struct{}) (*loadedPage, error) {
	if _, seen := visited[pageNum]; seen {
		return nil, fmt.Errorf("%w: page %d", ErrCyclicTraversal, pageNum)
	}
	visited[pageNum] = struct{}{}

	page, err := pio.ReadPage(pageNum)
	if err != nil {
		return nil, err
	}
	header, err := sqlite.ParsePageHeader(page, false)
	if err != nil {
		return nil, err
	}
	pio.CountRead(sqlite.TelemetryKind(header.Kind))

	ptrs, err := header.CellPointers(page)
	if err != nil {
		return nil, err
	}
	return &loadedPage{bytes: page, header: header, ptrs: ptrs}, nil
}

// descend is a fresh visited-set view for a child subtree: a cycle is only
// meaningful along one root-to-leaf path, not across sibling subtrees.
func descend(visited map[uint32]struct{}) map[uint32]struct{} {
	next := make(map[uint32]struct{}, len(visited)+1)
	for k := range visited {
		next[k] = struct{}{}
	}
	return next
}

// Scan performs a depth-first walk of the B-tree rooted at root, returning
// the first record for which predicate returns true, or nil if none match.
func Scan(pio *sqlite.PageIO, root uint32, predicate Predicate) (*sqlite.Record, error) {
	return scan(pio, root, predicate, map[uint32]struct{}{})
}

func scan(pio *sqlite.PageIO, pageNum uint32, predicate Predicate, visited map[uint32]struct{}) (*sqlite.Record, error) {
	lp, err := loadPage(pio, pageNum, visited)
	if err != nil {
		return nil, err
	}

	for _, ptr := range lp.ptrs {
		cell, err := sqlite.ParseCell(lp.bytes, int(ptr), lp.header.Kind, pio, sqlite.TelemetryKind(lp.header.Kind), false)
		if err != nil {
			return nil, err
		}

		if lp.header.Kind.IsInterior() {
			match, err := scan(pio, cell.LeftChild, predicate, descend(visited))
			if err != nil {
				return nil, err
			}
			if match != nil {
				return match, nil
			}
		}

		if cell.Record != nil && predicate(cell.Record) {
			return cell.Record, nil
		}
	}

	if lp.header.Kind.IsInterior() {
		return scan(pio, lp.header.RightChild, predicate, descend(visited))
	}
	return nil, nil
}

// FindRowid searches the table B-tree rooted at root for the row whose
// rowid equals target. At an interior node it descends exactly once into
// the child whose key range brackets target; it never searches sibling
// cells after that descent.
func FindRowid(pio *sqlite.PageIO, root uint32, target int64) (*sqlite.Record, error) {
	return findRowid(pio, root, target, map[uint32]struct{}{})
}

func findRowid(pio *sqlite.PageIO, pageNum uint32, target int64, visited map[uint32]struct{}) (*sqlite.Record, error) {
	lp, err := loadPage(pio, pageNum, visited)
	if err != nil {
		return nil, err
	}

	if lp.header.Kind.IsInterior() {
		for _, ptr := range lp.ptrs {
			cell, err := sqlite.ParseCell(lp.bytes, int(ptr), lp.header.Kind, pio, sqlite.TelemetryKind(lp.header.Kind), false)
			if err != nil {
				return nil, err
			}
			if target <= cell.RowID {
				return findRowid(pio, cell.LeftChild, target, descend(visited))
			}
		}
		return findRowid(pio, lp.header.RightChild, target, descend(visited))
	}

	for _, ptr := range lp.ptrs {
		cell, err := sqlite.ParseCell(lp.bytes, int(ptr), lp.header.Kind, pio, sqlite.TelemetryKind(lp.header.Kind), false)
		if err != nil {
			return nil, err
		}
		switch {
		case cell.RowID == target:
			return cell.Record, nil
		case cell.RowID > target:
			return nil, nil
		}
	}
	return nil, nil
}

// IndexExtractor inspects a decoded index record — whose first column is
// the indexed key — and reports a match value plus whether it matched.
// T is typically int64 (a rowid, for a non-clustered index) or
// *sqlite.Record (the record itself, for a clustered root).
type IndexExtractor[T any] func(rec *sqlite.Record) (T, bool)

// IndexLookup searches the index B-tree rooted at root for key, invoking
// extractor on every record visited and returning its first match. At an
// interior node, the first cell whose key is greater than key dictates
// descent into that cell's left child (a cell whose key equals key is left
// to extractor at this node); if no such cell exists, descend into
// right_child.
func IndexLookup[T any](pio *sqlite.PageIO, root uint32, key int64, extractor IndexExtractor[T]) (T, bool, error) {
	return indexLookup(pio, root, key, extractor, map[uint32]struct{}{})
}

func indexLookup[T any](pio *sqlite.PageIO, pageNum uint32, key int64, extractor IndexExtractor[T], visited map[uint32]struct{}) (T, bool, error) {
	var zero T
	lp, err := loadPage(pio, pageNum, visited)
	if err != nil {
		return zero, false, err
	}

	for _, ptr := range lp.ptrs {
		cell, err := sqlite.ParseCell(lp.bytes, int(ptr), lp.header.Kind, pio, sqlite.TelemetryKind(lp.header.Kind), false)
		if err != nil {
			return zero, false, err
		}
		if cell.Record == nil {
			return zero, false, fmt.Errorf("%w: index page %d yielded no record", sqlite.ErrBadSchemaRecord, pageNum)
		}

		if value, ok := extractor(cell.Record); ok {
			return value, true, nil
		}

		recKey, ok := cell.Record.Column(0).Int64()
		if !ok {
			return zero, false, fmt.Errorf("sqlite: index key column is not integer")
		}

		if key < recKey {
			if !lp.header.Kind.IsInterior() {
				return zero, false, nil
			}
			return indexLookup(pio, cell.LeftChild, key, extractor, descend(visited))
		}
	}

	if lp.header.Kind.IsInterior() {
		return indexLookup(pio, lp.header.RightChild, key, extractor, descend(visited))
	}
	return zero, false, nil
}

// IndexRangeExtractor inspects a decoded index record and returns zero or
// more result values to append to the running result list.
type IndexRangeExtractor[T any] func(rec *sqlite.Record) []T

// IndexRange collects every result extractor produces for records whose
// indexed key falls in the inclusive range [lo, hi]. Results are returned
// in traversal order, not key order.
func IndexRange[T any](pio *sqlite.PageIO, root uint32, lo, hi int64, extractor IndexRangeExtractor[T]) ([]T, error) {
	return indexRange(pio, root, lo, hi, extractor, map[uint32]struct{}{})
}

func indexRange[T any](pio *sqlite.PageIO, pageNum uint32, lo, hi int64, extractor IndexRangeExtractor[T], visited map[uint32]struct{}) ([]T, error) {
	lp, err := loadPage(pio, pageNum, visited)
	if err != nil {
		return nil, err
	}

	var out []T
	for _, ptr := range lp.ptrs {
		cell, err := sqlite.ParseCell(lp.bytes, int(ptr), lp.header.Kind, pio, sqlite.TelemetryKind(lp.header.Kind), false)
		if err != nil {
			return nil, err
		}
		if cell.Record == nil {
			return nil, fmt.Errorf("%w: index page %d yielded no record", sqlite.ErrBadSchemaRecord, pageNum)
		}

		recKey, ok := cell.Record.Column(0).Int64()
		if !ok {
			return nil, fmt.Errorf("sqlite: index key column is not integer")
		}

		if lp.header.Kind.IsInterior() {
			if lo <= recKey || hi <= recKey {
				sub, err := indexRange(pio, cell.LeftChild, lo, hi, extractor, descend(visited))
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
		}

		out = append(out, extractor(cell.Record)...)

		if hi < recKey {
			break
		}
	}

	if lp.header.Kind.IsInterior() {
		sub, err := indexRange(pio, lp.header.RightChild, lo, hi, extractor, descend(visited))
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}

	return out, nil
}
