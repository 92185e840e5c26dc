// Package query wires sqlite/btree together into the twelve fixed queries
// the reader supports, and owns the per-query telemetry report/reset
// lifecycle.
package query

// Fixed column positions within the Employee table schema.
const (
	EmpIDIndex      = 0
	FirstNameIndex  = 1
	MiddleNameIndex = 2
	LastNameIndex   = 3
)

// Config holds the enumerated, caller-supplied configuration: the four
// database paths and the query constants.
type Config struct {
	DBPathA string // no index, 4 KiB pages
	DBPathB string // no index, 16 KiB pages
	DBPathC string // non-clustered primary-key index, 4 KiB pages
	DBPathD string // clustered (WITHOUT ROWID) primary key, 4 KiB pages

	LastName     string
	EmpID        int64
	EmpIDRangeLo int64
	EmpIDRangeHi int64
}
