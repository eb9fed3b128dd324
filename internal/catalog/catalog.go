// Package catalog holds the read-only, immutable-after-build model of
// the database schema that the rest of scry compiles queries against:
// which schemas exist, which tables live in which schemas, each
// table's columns, the foreign key graph between tables, and the
// chosen unique key per table used to de-duplicate reshaped rows.
package catalog

import "sort"

// SchemaTable identifies a table within a specific schema.
type SchemaTable struct {
	Schema string
	Table  string
}

// ForeignKey is one edge of the foreign-key graph: a column pair
// relating two tables. The graph is stored undirected — both
// directions are present as separate entries in Catalog.foreignKeys.
type ForeignKey struct {
	Left  SchemaTable
	Right SchemaTable
	Col   string // column on Left
	RCol  string // column on Right
}

// Catalog is built once from a live database (or from fixtures in
// tests) and never mutated afterward; every compiler stage treats it
// as read-only.
type Catalog struct {
	schemas   []string
	schemaSet map[string]bool

	// tables maps a bare table name to the ordered (first-seen) list of
	// schemas that contain a table with that name.
	tables map[string][]string

	// columns holds the ordered column list for one schema.table.
	columns map[SchemaTable][]string

	// foreignKeys[t] is the set of FKs with t as the Left side.
	foreignKeys map[SchemaTable][]ForeignKey

	// uniqueCandidates accumulates raw constraint info before Finalize
	// picks a winner per table.
	uniqueCandidates map[SchemaTable][]uniqueCandidate

	// uniqueKeys holds the finalized, ordered unique key columns per
	// table, available after Finalize.
	uniqueKeys map[SchemaTable][]string
}

type uniqueCandidate struct {
	name    string
	isPK    bool
	columns []string
	seq     int
}

// New returns an empty Catalog ready for Add* calls.
func New() *Catalog {
	return &Catalog{
		schemaSet:        make(map[string]bool),
		tables:           make(map[string][]string),
		columns:          make(map[SchemaTable][]string),
		foreignKeys:      make(map[SchemaTable][]ForeignKey),
		uniqueCandidates: make(map[SchemaTable][]uniqueCandidate),
		uniqueKeys:       make(map[SchemaTable][]string),
	}
}

// AddColumn registers that schema.table has the given column, in the
// order it was first seen. Calling it repeatedly for the same schema
// and column is a no-op.
func (c *Catalog) AddColumn(schema, table, column string) {
	c.addSchema(schema)
	st := SchemaTable{schema, table}
	if _, ok := c.tables[table]; !ok {
		c.tables[table] = nil
	}
	if !containsStr(c.tables[table], schema) {
		c.tables[table] = append(c.tables[table], schema)
	}
	if !containsStr(c.columns[st], column) {
		c.columns[st] = append(c.columns[st], column)
	}
}

func (c *Catalog) addSchema(schema string) {
	if !c.schemaSet[schema] {
		c.schemaSet[schema] = true
		c.schemas = append(c.schemas, schema)
	}
}

// AddUniqueConstraint registers one whole PRIMARY KEY or UNIQUE
// constraint with its full, ordered column list. The caller is
// responsible for grouping the per-column rows of a multi-column
// constraint before calling it.
func (c *Catalog) AddUniqueConstraint(schema, table, constraintName string, isPK bool, columns []string) {
	st := SchemaTable{schema, table}
	c.uniqueCandidates[st] = append(c.uniqueCandidates[st], uniqueCandidate{
		name:    constraintName,
		isPK:    isPK,
		columns: columns,
		seq:     len(c.uniqueCandidates[st]),
	})
}

// AddForeignKey registers an edge between two tables. Both directions
// are stored so resolution can walk the graph from either side.
func (c *Catalog) AddForeignKey(leftSchema, leftTable, leftCol, rightSchema, rightTable, rightCol string) {
	l := SchemaTable{leftSchema, leftTable}
	r := SchemaTable{rightSchema, rightTable}
	c.foreignKeys[l] = append(c.foreignKeys[l], ForeignKey{Left: l, Right: r, Col: leftCol, RCol: rightCol})
	c.foreignKeys[r] = append(c.foreignKeys[r], ForeignKey{Left: r, Right: l, Col: rightCol, RCol: leftCol})
}

// Finalize picks the winning unique key per table: a primary key
// always wins; otherwise the shortest UNIQUE constraint wins; ties
// break by first-seen (insertion) order. Call once after all
// Add* calls are done.
func (c *Catalog) Finalize() {
	for st, cands := range c.uniqueCandidates {
		best := -1
		for i, cand := range cands {
			if best == -1 {
				best = i
				continue
			}
			if cands[i].isPK && !cands[best].isPK {
				best = i
				continue
			}
			if cands[best].isPK {
				continue
			}
			if len(cands[i].columns) < len(cands[best].columns) {
				best = i
			}
		}
		if best >= 0 {
			c.uniqueKeys[st] = cands[best].columns
		}
	}
}

func (c *Catalog) Schemas() []string {
	out := make([]string, len(c.schemas))
	copy(out, c.schemas)
	return out
}

// TableSchemas returns the schemas (first-seen order) containing a
// table with the given name.
func (c *Catalog) TableSchemas(table string) ([]string, bool) {
	s, ok := c.tables[table]
	return s, ok
}

// TablesInSchema returns every table name that has at least one column
// registered under schema, in no particular order — useful for
// completion, not for resolution.
func (c *Catalog) TablesInSchema(schema string) []string {
	var out []string
	for table, schemas := range c.tables {
		if containsStr(schemas, schema) {
			out = append(out, table)
		}
	}
	return out
}

// HasTable reports whether schema.table exists.
func (c *Catalog) HasTable(schema, table string) bool {
	_, ok := c.columns[SchemaTable{schema, table}]
	return ok
}

// Columns returns the ordered columns of schema.table.
func (c *Catalog) Columns(schema, table string) ([]string, bool) {
	cols, ok := c.columns[SchemaTable{schema, table}]
	return cols, ok
}

// HasColumn reports whether schema.table has the named column.
func (c *Catalog) HasColumn(schema, table, column string) bool {
	return containsStr(c.columns[SchemaTable{schema, table}], column)
}

// UniqueKey returns the chosen unique key columns for schema.table,
// if one was found.
func (c *Catalog) UniqueKey(schema, table string) ([]string, bool) {
	cols, ok := c.uniqueKeys[SchemaTable{schema, table}]
	return cols, ok
}

// ForeignKeysFrom returns every FK edge where schema.table is the
// left side, in insertion order.
func (c *Catalog) ForeignKeysFrom(schema, table string) []ForeignKey {
	return c.foreignKeys[SchemaTable{schema, table}]
}

// FindJoinTo returns the FK edge joining left to the exact
// right-hand schema.table, with no schema ambiguity to resolve.
func (c *Catalog) FindJoinTo(leftSchema, leftTable, rightSchema, rightTable string) (ForeignKey, bool) {
	for _, e := range c.foreignKeys[SchemaTable{leftSchema, leftTable}] {
		if e.Right.Schema == rightSchema && e.Right.Table == rightTable {
			return e, true
		}
	}
	return ForeignKey{}, false
}

// FindJoin returns the FK edge (if any) joining left to a table named
// rightTable, searching rightSchemas in order (the search_path order)
// and then falling back to the first such edge in any schema.
func (c *Catalog) FindJoin(leftSchema, leftTable, rightTable string, rightSchemas []string) (ForeignKey, bool) {
	edges := c.ForeignKeysFrom(leftSchema, leftTable)
	for _, rs := range rightSchemas {
		for _, e := range edges {
			if e.Right.Table == rightTable && e.Right.Schema == rs {
				return e, true
			}
		}
	}
	for _, e := range edges {
		if e.Right.Table == rightTable {
			return e, true
		}
	}
	return ForeignKey{}, false
}

// SortedSchemas returns schemas in lexical order — useful for
// deterministic debug dumps, not for resolution (which must use
// first-seen/search_path order).
func (c *Catalog) SortedSchemas() []string {
	out := c.Schemas()
	sort.Strings(out)
	return out
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
