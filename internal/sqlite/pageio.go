package sqlite

import (
	"fmt"
	"io"
	"time"

	"github.com/lindeneg/empbtree/internal/telemetry"
)

// PageIO performs positioned, page-aligned reads against one open database
// file and samples per-read latency into a telemetry sink. Wrapping reads
// in their own type, rather than having each caller ReadAt the file
// directly, keeps every read timed and counted the same way regardless of
// who issues it — the b-tree traverser, the catalog reader, or a future
// caller.
type PageIO struct {
	r         io.ReaderAt
	pageSize  uint32
	telemetry *telemetry.Telemetry
}

// NewPageIO builds a PageIO over r, reading pageSize-byte pages and
// reporting every read to sink.
func NewPageIO(r io.ReaderAt, pageSize uint32, sink *telemetry.Telemetry) *PageIO {
	return &PageIO{r: r, pageSize: pageSize, telemetry: sink}
}

// PageSize reports the configured page size.
func (p *PageIO) PageSize() uint32 {
	return p.pageSize
}

// ReadPage reads page n (1-based) in full and samples its latency into the
// telemetry sink. It does not classify the read by page kind — the caller
// (btree traversal, or the catalog for the schema root) does that once it
// knows what kind of page it just read, via CountRead.
func (p *PageIO) ReadPage(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: page 0", ErrBadPageNumber)
	}
	offset := int64(n-1) * int64(p.pageSize)
	if offset < 0 {
		return nil, fmt.Errorf("%w: page %d underflows file offset", ErrBadPageNumber, n)
	}

	buf := make([]byte, p.pageSize)
	start := time.Now()
	nRead, err := p.r.ReadAt(buf, offset)
	elapsed := time.Since(start)

	if p.telemetry != nil {
		p.telemetry.Observe(elapsed.Nanoseconds())
	}

	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sqlite: io failure reading page %d: %w", n, err)
	}
	if nRead < len(buf) {
		return nil, fmt.Errorf("%w: page %d wanted %d bytes, got %d", ErrShortRead, n, len(buf), nRead)
	}

	return buf, nil
}

// CountRead attributes one page read to kind's telemetry bucket. Called
// once the page's actual kind is known (its flag byte has been parsed).
func (p *PageIO) CountRead(kind telemetry.PageKind) {
	if p.telemetry != nil {
		p.telemetry.CountRead(kind)
	}
}
