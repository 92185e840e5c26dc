// Command empbtree reads the four Employee databases and runs the twelve
// fixed scan/equality/range queries against them, reporting per-query
// telemetry.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/lindeneg/empbtree/internal/ingest"
	"github.com/lindeneg/empbtree/internal/query"
	"github.com/lindeneg/empbtree/internal/telemetry"
)

// CLI defines the command-line interface for empbtree.
var CLI struct {
	Run    RunCmd    `cmd:"" help:"Run the twelve fixed queries against the four Employee databases"`
	Ingest IngestCmd `cmd:"" help:"Build a fixture database from a CSV via sqlite3 (companion tool, not part of the read path)"`
}

// RunCmd runs the twelve fixed queries.
type RunCmd struct {
	DBA string `name:"db-a" required:"" help:"Path to database A (no index, 4 KiB pages)" type:"existingfile"`
	DBB string `name:"db-b" required:"" help:"Path to database B (no index, 16 KiB pages)" type:"existingfile"`
	DBC string `name:"db-c" required:"" help:"Path to database C (non-clustered primary-key index, 4 KiB pages)" type:"existingfile"`
	DBD string `name:"db-d" required:"" help:"Path to database D (clustered / WITHOUT ROWID primary key, 4 KiB pages)" type:"existingfile"`

	LastName string `name:"last-name" default:"Rowe" help:"Last name to match in the scan queries"`
	EmpID    int64  `name:"emp-id" default:"181162" help:"Emp ID to match in the equality queries"`
	RangeLo  int64  `name:"range-lo" default:"171800" help:"Inclusive lower bound for the range queries"`
	RangeHi  int64  `name:"range-hi" default:"171899" help:"Inclusive upper bound for the range queries"`
}

func (c *RunCmd) Run() error {
	cfg := query.Config{
		DBPathA:      c.DBA,
		DBPathB:      c.DBB,
		DBPathC:      c.DBC,
		DBPathD:      c.DBD,
		LastName:     c.LastName,
		EmpID:        c.EmpID,
		EmpIDRangeLo: c.RangeLo,
		EmpIDRangeHi: c.RangeHi,
	}
	driver := query.NewDriver(cfg, telemetry.Global, os.Stdout)
	return driver.RunAll()
}

// IngestCmd builds a fixture .db file from a CSV via sqlite3. It is a
// companion tool for local testing, not part of the read-only query path.
type IngestCmd struct {
	CSV        string `arg:"" help:"Path to the source CSV" type:"existingfile"`
	Out        string `required:"" help:"Output .db path" type:"path"`
	Table      string `default:"Employee" help:"Table name to create"`
	PrimaryKey string `name:"primary-key" default:"" help:"Column name to declare PRIMARY KEY; empty means rowid table"`
	Clustered  bool   `help:"Declare the primary key WITHOUT ROWID (clustered index)"`
	Sqlite3    string `default:"sqlite3" help:"Path to the sqlite3 binary to shell out to"`
}

func (c *IngestCmd) Run() error {
	return ingest.FromCSV(ingest.Options{
		CSVPath:     c.CSV,
		DBPath:      c.Out,
		TableName:   c.Table,
		PrimaryKey:  c.PrimaryKey,
		Clustered:   c.Clustered,
		Sqlite3Path: c.Sqlite3,
	})
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("empbtree"),
		kong.Description("Read-only B-tree reader for the four Employee databases"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
