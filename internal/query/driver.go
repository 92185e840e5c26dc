package query

import (
	"fmt"
	"io"
	"os"

	"github.com/lindeneg/empbtree/internal/btree"
	"github.com/lindeneg/empbtree/internal/sqlite"
	"github.com/lindeneg/empbtree/internal/telemetry"
)

// DBKind distinguishes the three index layouts the twelve queries run
// against.
type DBKind int

const (
	NoIndex      DBKind = iota // databases A and B: full scan only
	NonClustered               // database C: auxiliary index b-tree, separate rowid table
	Clustered                  // database D: WITHOUT ROWID, table root is an index b-tree
)

func (k DBKind) String() string {
	switch k {
	case NoIndex:
		return "no index"
	case NonClustered:
		return "non-clustered primary-key index"
	case Clustered:
		return "clustered (WITHOUT ROWID) primary key"
	default:
		return "unknown"
	}
}

const (
	employeeTable     = "Employee"
	employeeAutoIndex = "sqlite_autoindex_Employee_1"
)

// Driver dispatches the twelve fixed queries, printing a per-query banner,
// its matching rows, and a telemetry report, resetting telemetry between
// queries so each query's report reflects only its own page reads.
type Driver struct {
	cfg  Config
	sink *telemetry.Telemetry
	out  io.Writer
}

// NewDriver builds a Driver. sink is the telemetry instance every opened
// database's PageIO reports into; pass telemetry.Global for the CLI's
// default process-wide bookkeeping, or a fresh *telemetry.Telemetry for an
// isolated test run.
func NewDriver(cfg Config, sink *telemetry.Telemetry, out io.Writer) *Driver {
	return &Driver{cfg: cfg, sink: sink, out: out}
}

// database is one opened .db file: its page I/O and schema catalog.
type database struct {
	pio     *sqlite.PageIO
	catalog map[string]sqlite.SchemaEntry
	close   func() error
}

func (d *Driver) open(path string) (*database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("empbtree: opening %s: %w", path, err)
	}
	header, err := sqlite.ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	pio := sqlite.NewPageIO(f, header.PageSize, d.sink)
	catalog, err := sqlite.ReadCatalog(pio)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &database{pio: pio, catalog: catalog, close: f.Close}, nil
}

func formatEmpIDFullname(rec *sqlite.Record) string {
	empID, _ := rec.Column(EmpIDIndex).Int64()
	first, _ := rec.Column(FirstNameIndex).Text()
	middle, _ := rec.Column(MiddleNameIndex).Text()
	last, _ := rec.Column(LastNameIndex).Text()
	return fmt.Sprintf("Emp ID: %d, Full Name: %s %s %s", empID, first, middle, last)
}

func formatFullnameOnly(rec *sqlite.Record) string {
	first, _ := rec.Column(FirstNameIndex).Text()
	middle, _ := rec.Column(MiddleNameIndex).Text()
	last, _ := rec.Column(LastNameIndex).Text()
	return fmt.Sprintf("Full Name: %s %s %s", first, middle, last)
}

func inRange(v, lo, hi int64) bool {
	return lo <= v && v <= hi
}

// runScanLastName walks root with a full scan, printing one line per
// record whose last name matches. The predicate always returns false so
// the traversal never stops early: every leaf record is visited, and every
// employee whose last name equals name is printed, not just the first.
func (d *Driver) runScanLastName(pio *sqlite.PageIO, root uint32, name string) error {
	var writeErr error
	_, err := btree.Scan(pio, root, func(rec *sqlite.Record) bool {
		last, ok := rec.Column(LastNameIndex).Text()
		if ok && last == name {
			if _, werr := fmt.Fprintln(d.out, formatEmpIDFullname(rec)); werr != nil {
				writeErr = werr
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	return writeErr
}

// runScanEquality walks root with a full scan, stopping at the first
// record whose Emp ID equals target. Used for databases A and B, which
// have no index, so equality lookup is a scan.
func (d *Driver) runScanEquality(pio *sqlite.PageIO, root uint32, target int64) error {
	rec, err := btree.Scan(pio, root, func(rec *sqlite.Record) bool {
		empID, ok := rec.Column(EmpIDIndex).Int64()
		return ok && empID == target
	})
	if err != nil {
		return err
	}
	if rec != nil {
		fmt.Fprintln(d.out, formatFullnameOnly(rec))
	}
	return nil
}

// runScanRange walks root with a full scan, printing every record whose
// Emp ID falls within [lo, hi] (databases A/B, no index).
func (d *Driver) runScanRange(pio *sqlite.PageIO, root uint32, lo, hi int64) error {
	var writeErr error
	_, err := btree.Scan(pio, root, func(rec *sqlite.Record) bool {
		empID, ok := rec.Column(EmpIDIndex).Int64()
		if ok && inRange(empID, lo, hi) {
			if _, werr := fmt.Fprintln(d.out, formatEmpIDFullname(rec)); werr != nil {
				writeErr = werr
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	return writeErr
}

// runNonClusteredEquality looks the rowid up in the auxiliary index, then
// fetches the matching row from the table b-tree (database C).
func (d *Driver) runNonClusteredEquality(db *database, tableRoot, indexRoot uint32, target int64) error {
	rowid, found, err := btree.IndexLookup(db.pio, indexRoot, target, func(rec *sqlite.Record) (int64, bool) {
		key, ok := rec.Column(0).Int64()
		if !ok || key != target {
			return 0, false
		}
		rowid, ok := rec.Column(1).Int64()
		return rowid, ok
	})
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	rec, err := btree.FindRowid(db.pio, tableRoot, rowid)
	if err != nil {
		return err
	}
	if rec != nil {
		fmt.Fprintln(d.out, formatFullnameOnly(rec))
	}
	return nil
}

// runNonClusteredRange collects matching rowids from the auxiliary index,
// then fetches each one from the table b-tree (database C).
func (d *Driver) runNonClusteredRange(db *database, tableRoot, indexRoot uint32, lo, hi int64) error {
	rowids, err := btree.IndexRange(db.pio, indexRoot, lo, hi, func(rec *sqlite.Record) []int64 {
		key, ok := rec.Column(0).Int64()
		if !ok || !inRange(key, lo, hi) {
			return nil
		}
		rowid, ok := rec.Column(1).Int64()
		if !ok {
			return nil
		}
		return []int64{rowid}
	})
	if err != nil {
		return err
	}
	for _, rowid := range rowids {
		rec, err := btree.FindRowid(db.pio, tableRoot, rowid)
		if err != nil {
			return err
		}
		if rec != nil {
			fmt.Fprintln(d.out, formatEmpIDFullname(rec))
		}
	}
	return nil
}

// runClusteredEquality looks the record up directly on the table root,
// which is itself an index b-tree keyed by Emp ID (database D).
func (d *Driver) runClusteredEquality(db *database, tableRoot uint32, target int64) error {
	rec, found, err := btree.IndexLookup(db.pio, tableRoot, target, func(rec *sqlite.Record) (*sqlite.Record, bool) {
		key, ok := rec.Column(0).Int64()
		if !ok || key != target {
			return nil, false
		}
		return rec, true
	})
	if err != nil {
		return err
	}
	if found && rec != nil {
		fmt.Fprintln(d.out, formatFullnameOnly(rec))
	}
	return nil
}

// runClusteredRange collects matching records directly from the table
// root (database D).
func (d *Driver) runClusteredRange(db *database, tableRoot uint32, lo, hi int64) error {
	records, err := btree.IndexRange(db.pio, tableRoot, lo, hi, func(rec *sqlite.Record) []*sqlite.Record {
		key, ok := rec.Column(0).Int64()
		if !ok || !inRange(key, lo, hi) {
			return nil
		}
		return []*sqlite.Record{rec}
	})
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Fprintln(d.out, formatEmpIDFullname(rec))
	}
	return nil
}

// printTelemetry writes the five-line report and resets the sink.
func (d *Driver) printTelemetry() {
	snap := d.sink.Snapshot()
	fmt.Fprintf(d.out, "    Header page read counts: %d\n", snap.HeaderReads)
	fmt.Fprintf(d.out, "    Data page read counts: %d\n", snap.DataPageReads)
	fmt.Fprintf(d.out, "    Index internal page read counts: %d\n", snap.IndexInternalReads)
	fmt.Fprintf(d.out, "    Index leaf page read counts: %d\n", snap.IndexLeafReads)
	fmt.Fprintf(d.out, "    Average page accessing time in milliseconds: %gms\n", snap.AvgPageAccessMs)
	d.sink.Reset()
}

// RunAll executes the twelve fixed queries in their fixed order, printing
// a banner, results, and a telemetry report for each.
func (d *Driver) RunAll() error {
	for _, job := range buildJobs(d.cfg) {
		fmt.Fprintln(d.out, job.banner)
		if err := d.runJob(job); err != nil {
			d.printTelemetry()
			return fmt.Errorf("empbtree: %s: %w", job.banner, err)
		}
		d.printTelemetry()
		fmt.Fprintln(d.out)
	}
	return nil
}

func (d *Driver) runJob(job queryJob) error {
	db, err := d.open(job.path)
	if err != nil {
		return err
	}
	defer db.close()

	tableRoot, err := sqlite.RootPage(db.catalog, employeeTable)
	if err != nil {
		return err
	}

	switch job.kind {
	case NoIndex:
		return d.runNoIndex(db, tableRoot, job)
	case NonClustered:
		return d.runNonClustered(db, tableRoot, job)
	case Clustered:
		return d.runClustered(db, tableRoot, job)
	default:
		return fmt.Errorf("empbtree: unknown db kind %v", job.kind)
	}
}

func (d *Driver) runNoIndex(db *database, tableRoot uint32, job queryJob) error {
	switch job.op {
	case opScan:
		return d.runScanLastName(db.pio, tableRoot, d.cfg.LastName)
	case opEquality:
		return d.runScanEquality(db.pio, tableRoot, d.cfg.EmpID)
	case opRange:
		return d.runScanRange(db.pio, tableRoot, d.cfg.EmpIDRangeLo, d.cfg.EmpIDRangeHi)
	}
	return nil
}

func (d *Driver) runNonClustered(db *database, tableRoot uint32, job queryJob) error {
	switch job.op {
	case opScan:
		return d.runScanLastName(db.pio, tableRoot, d.cfg.LastName)
	case opEquality:
		indexRoot, err := sqlite.RootPage(db.catalog, employeeAutoIndex)
		if err != nil {
			return err
		}
		return d.runNonClusteredEquality(db, tableRoot, indexRoot, d.cfg.EmpID)
	case opRange:
		indexRoot, err := sqlite.RootPage(db.catalog, employeeAutoIndex)
		if err != nil {
			return err
		}
		return d.runNonClusteredRange(db, tableRoot, indexRoot, d.cfg.EmpIDRangeLo, d.cfg.EmpIDRangeHi)
	}
	return nil
}

func (d *Driver) runClustered(db *database, tableRoot uint32, job queryJob) error {
	switch job.op {
	case opScan:
		return d.runScanLastName(db.pio, tableRoot, d.cfg.LastName)
	case opEquality:
		return d.runClusteredEquality(db, tableRoot, d.cfg.EmpID)
	case opRange:
		return d.runClusteredRange(db, tableRoot, d.cfg.EmpIDRangeLo, d.cfg.EmpIDRangeHi)
	}
	return nil
}
