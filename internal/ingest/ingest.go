// Package ingest builds a fixture .db file from a CSV by shelling out to
// the real sqlite3 CLI, for local testing of the reader only. It generates
// a CREATE TABLE plus INSERT statements and has sqlite3 execute them,
// rather than reimplementing the write path itself.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Options configures one CSV-to-database ingestion run.
type Options struct {
	CSVPath     string
	DBPath      string
	TableName   string
	PrimaryKey  string // column name to declare PRIMARY KEY; empty means a plain rowid table
	Clustered   bool   // WITHOUT ROWID; requires PrimaryKey to be set
	Sqlite3Path string // defaults to "sqlite3" on PATH
	PageSize    uint32 // 0 means sqlite3's own default
}

// FromCSV reads opts.CSVPath, infers a fixed-width CREATE TABLE schema
// (CHAR(n) columns sized to the widest value seen in that column), and has
// sqlite3 build opts.DBPath from it.
func FromCSV(opts Options) error {
	if opts.TableName == "" {
		opts.TableName = "Employee"
	}
	if opts.Sqlite3Path == "" {
		opts.Sqlite3Path = "sqlite3"
	}
	if opts.Clustered && opts.PrimaryKey == "" {
		return fmt.Errorf("ingest: clustered table requires a primary key column")
	}

	cols, rows, err := readCSV(opts.CSVPath)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("ingest: %s has no header row", opts.CSVPath)
	}

	script, err := buildScript(opts, cols, rows)
	if err != nil {
		return err
	}

	return runSqlite3(opts.Sqlite3Path, opts.DBPath, script)
}

func readCSV(path string) (cols []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// cleanColumnName strips characters that would break a CREATE TABLE
// statement.
func cleanColumnName(name string) string {
	replacer := strings.NewReplacer(".", "_", "'", "_", " ", "_", "(", "_", ")", "_", "%", "_")
	return replacer.Replace(name)
}

func columnWidths(cols []string, rows [][]string) map[string]int {
	widths := make(map[string]int, len(cols))
	for _, c := range cols {
		widths[c] = 1
	}
	for _, row := range rows {
		for i, v := range row {
			if i >= len(cols) {
				continue
			}
			if len(v) > widths[cols[i]] {
				widths[cols[i]] = len(v)
			}
		}
	}
	return widths
}

func buildScript(opts Options, cols []string, rows [][]string) (string, error) {
	widths := columnWidths(cols, rows)

	var sb strings.Builder
	if opts.PageSize > 0 {
		fmt.Fprintf(&sb, "PRAGMA page_size=%d;\n", opts.PageSize)
	}

	fmt.Fprintf(&sb, "CREATE TABLE %s(", opts.TableName)
	for i, name := range cols {
		if i > 0 {
			sb.WriteString(",")
		}
		clean := cleanColumnName(name)
		sb.WriteString(clean)
		if name == opts.PrimaryKey {
			sb.WriteString(" INT")
			sb.WriteString(" PRIMARY KEY")
		} else {
			fmt.Fprintf(&sb, " CHAR(%d)", widths[name])
		}
	}
	sb.WriteString(")")
	if opts.Clustered {
		sb.WriteString(" WITHOUT ROWID")
	}
	sb.WriteString(";\n")

	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, row := range rows {
		fmt.Fprintf(&sb, "INSERT INTO %s VALUES(", opts.TableName)
		for i, v := range row {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "'%s'", strings.ReplaceAll(v, "'", "''"))
		}
		sb.WriteString(");\n")
	}
	sb.WriteString("COMMIT;\n")

	return sb.String(), nil
}

func runSqlite3(sqlite3Path, dbPath, script string) error {
	cmd := exec.Command(sqlite3Path, dbPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ingest: opening sqlite3 stdin: %w", err)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ingest: starting %s: %w", sqlite3Path, err)
	}

	w := bufio.NewWriter(stdin)
	if _, err := w.WriteString(script); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("ingest: writing sql script: %w", err)
	}
	if err := w.Flush(); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("ingest: flushing sql script: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ingest: %s exited: %w", sqlite3Path, err)
	}
	return nil
}
