// Package telemetry counts per-page-kind reads and accumulates page-access
// latency for a single query: four independent read counters plus one
// (totalTime, pagesRead) accumulator, with a reset-after-report lifecycle.
package telemetry

import "sync/atomic"

// PageKind classifies a page read for counting purposes. It mirrors
// sqlite.PageKind but lives in its own package so telemetry has no
// dependency on the page decoder.
type PageKind int

const (
	Header PageKind = iota
	Data             // table b-tree page, interior or leaf
	IndexInternal
	IndexLeaf
)

// Telemetry holds the four read counters and the latency accumulator for one
// logical query. The zero value is ready to use.
type Telemetry struct {
	headerReads        atomic.Int64
	dataPageReads      atomic.Int64
	indexInternalReads atomic.Int64
	indexLeafReads     atomic.Int64

	totalNanos    atomic.Int64
	pagesMeasured atomic.Int64
}

// Global is the process-wide telemetry sink that cmd/empbtree hands to
// query.NewDriver. Library code never reaches for it implicitly —
// sqlite.NewPageIO and query.NewDriver take a *Telemetry explicitly, so a
// caller that wants per-query isolation can pass its own instance instead.
var Global = New()

// New returns a fresh, zeroed Telemetry.
func New() *Telemetry {
	return &Telemetry{}
}

// CountRead increments the counter for kind.
func (t *Telemetry) CountRead(kind PageKind) {
	switch kind {
	case Header:
		t.headerReads.Add(1)
	case Data:
		t.dataPageReads.Add(1)
	case IndexInternal:
		t.indexInternalReads.Add(1)
	case IndexLeaf:
		t.indexLeafReads.Add(1)
	}
}

// Observe records the elapsed duration of one page read, in nanoseconds.
func (t *Telemetry) Observe(elapsedNanos int64) {
	t.totalNanos.Add(elapsedNanos)
	t.pagesMeasured.Add(1)
}

// Snapshot is an immutable copy of the counters, suitable for printing.
type Snapshot struct {
	HeaderReads        int64
	DataPageReads      int64
	IndexInternalReads int64
	IndexLeafReads     int64
	AvgPageAccessMs    float64
}

// Snapshot returns the current counter values without resetting them.
func (t *Telemetry) Snapshot() Snapshot {
	pages := t.pagesMeasured.Load()
	var avgMs float64
	if pages > 0 {
		avgMs = float64(t.totalNanos.Load()) / float64(pages) / 1e6
	}
	return Snapshot{
		HeaderReads:        t.headerReads.Load(),
		DataPageReads:      t.dataPageReads.Load(),
		IndexInternalReads: t.indexInternalReads.Load(),
		IndexLeafReads:     t.indexLeafReads.Load(),
		AvgPageAccessMs:    avgMs,
	}
}

// Reset returns all counters to zero.
func (t *Telemetry) Reset() {
	t.headerReads.Store(0)
	t.dataPageReads.Store(0)
	t.indexInternalReads.Store(0)
	t.indexLeafReads.Store(0)
	t.totalNanos.Store(0)
	t.pagesMeasured.Store(0)
}
