package query

// op identifies which of the three query shapes a job runs.
type op int

const (
	opScan op = iota
	opEquality
	opRange
)

// queryJob is one of the twelve fixed queries: a database path, its index
// layout, which operation to run, and the banner text describing it.
type queryJob struct {
	banner string
	path   string
	kind   DBKind
	op     op
}

// buildJobs returns the twelve queries in the fixed order: 4 databases ×
// (scan-by-last-name, equality-on-primary-key, range-on-primary-key).
func buildJobs(cfg Config) []queryJob {
	return []queryJob{
		{
			banner: "DB: Without any index with page size of 4KB\nQuery and print the employee id and full name of anybody whose last name is \"Rowe\" (this will be a Scan operation)",
			path:   cfg.DBPathA, kind: NoIndex, op: opScan,
		},
		{
			banner: "DB: Without any index with page size of 4KB\nQuery and print the full name of employee (this is an Equality search)",
			path:   cfg.DBPathA, kind: NoIndex, op: opEquality,
		},
		{
			banner: "DB: Without any index with page size of 4KB\nQuery and print the employee id and full name of all employees with \"Emp ID\" in range (this is a Range search)",
			path:   cfg.DBPathA, kind: NoIndex, op: opRange,
		},
		{
			banner: "DB: Without any index but with page size of 16KB\nQuery and print the employee id and full name of anybody whose last name is \"Rowe\" (this will be a Scan operation)",
			path:   cfg.DBPathB, kind: NoIndex, op: opScan,
		},
		{
			banner: "DB: Without any index but with page size of 16KB\nQuery and print the full name of employee (this is an Equality search)",
			path:   cfg.DBPathB, kind: NoIndex, op: opEquality,
		},
		{
			banner: "DB: Without any index but with page size of 16KB\nQuery and print the employee id and full name of all employees with \"Emp ID\" in range (this is a Range search)",
			path:   cfg.DBPathB, kind: NoIndex, op: opRange,
		},
		{
			banner: "DB: With primary index on \"Emp ID\" column (Unclustered Index) with page size of 4KB\nQuery and print the employee id and full name of anybody whose last name is \"Rowe\" (this will be a Scan operation)",
			path:   cfg.DBPathC, kind: NonClustered, op: opScan,
		},
		{
			banner: "DB: With primary index on \"Emp ID\" column (Unclustered Index) with page size of 4KB\nQuery and print the full name of employee (this is an Equality search)",
			path:   cfg.DBPathC, kind: NonClustered, op: opEquality,
		},
		{
			banner: "DB: With primary index on \"Emp ID\" column (Unclustered Index) with page size of 4KB\nQuery and print the employee id and full name of all employees with \"Emp ID\" in range (this is a Range search)",
			path:   cfg.DBPathC, kind: NonClustered, op: opRange,
		},
		{
			banner: "DB: With primary index on \"Emp ID\" column but defined as clustered with page size of 4KB\nQuery and print the employee id and full name of anybody whose last name is \"Rowe\" (this will be a Scan operation)",
			path:   cfg.DBPathD, kind: Clustered, op: opScan,
		},
		{
			banner: "DB: With primary index on \"Emp ID\" column but defined as clustered with page size of 4KB\nQuery and print the full name of employee (this is an Equality search)",
			path:   cfg.DBPathD, kind: Clustered, op: opEquality,
		},
		{
			banner: "DB: With primary index on \"Emp ID\" column but defined as clustered with page size of 4KB\nQuery and print the employee id and full name of all employees with \"Emp ID\" in range (this is a Range search)",
			path:   cfg.DBPathD, kind: Clustered, op: opRange,
		},
	}
}
