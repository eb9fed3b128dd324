// Package sqlgen compiles an Intermediate Tree into a single SELECT
// statement: one FROM/LEFT JOIN chain per schema root, unique-key
// columns always preceding user-selected columns, shallow conditions
// rewritten for NULL, and deep conditions compiled into correlated
// IN subqueries.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/ittree"
	"github.com/edanaher/scry/internal/lang"
)

// Column describes one projected SELECT expression, in emission
// order, for the reshaper to consume: which node it came from, its
// column name, and whether it's part of that node's unique key
// (hidden from display but used for grouping) or a user-visible
// display column.
type Column struct {
	NodePath string // dot-joined alias chain identifying the node, e.g. "authors.books"
	Alias    string // table alias
	Name     string
	Hidden   bool
}

// Result is the compiled statement plus the column plan the reshaper
// needs to regroup flat rows back into a tree.
type Result struct {
	SQL     string
	Columns []Column
}

// Generate compiles tree into one SELECT statement. limit <= 0 means
// no LIMIT clause.
func Generate(tree *ittree.Tree, cat *catalog.Catalog, limit int) (*Result, error) {
	g := &generator{cat: cat}
	for _, schema := range tree.SchemaOrder {
		root := tree.Schemas[schema]
		for _, alias := range root.ChildOrder {
			g.visit(root.Children[alias], "")
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(g.selects, ", "))
	b.WriteString(" FROM ")
	b.WriteString(strings.Join(g.joins, " "))
	if len(g.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(g.wheres, " AND "))
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	return &Result{SQL: b.String(), Columns: g.columns}, nil
}

type generator struct {
	cat     *catalog.Catalog
	joins   []string
	selects []string
	wheres  []string
	columns []Column
}

func tableRef(schema, table, alias string) string {
	qualified := schema + "." + table
	if alias == table {
		return qualified
	}
	return qualified + " AS " + alias
}

// nodeRef is the identifier a node's own columns are qualified by: its
// alias when one was actually declared (alias != table), else the
// fully-qualified schema.table, since a bare table name is ambiguous
// once more than one unaliased instance of it could appear.
func nodeRef(schema, table, alias string) string {
	if alias != table {
		return alias
	}
	return schema + "." + table
}

func colRef(schema, table, alias, col string) string {
	return nodeRef(schema, table, alias) + "." + col
}

// visit emits node's FROM/JOIN fragment and its select/where
// fragments, then recurses into its children depth-first. A root node
// (nodePath == "") is emitted as "FROM" if it's the very first table
// overall, ", "-joined otherwise; every other node is a LEFT JOIN.
func (g *generator) visit(n *ittree.Node, nodePath string) {
	path := nodePath
	if path == "" {
		path = n.Alias
	} else {
		path = path + "." + n.Alias
	}

	ref := tableRef(n.Schema, n.Table, n.Alias)
	if nodePath == "" {
		if len(g.joins) == 0 {
			g.joins = append(g.joins, ref)
		} else {
			g.joins = append(g.joins, ", "+ref)
		}
	}

	g.emitSelects(n, path)
	g.emitWheres(n, nodeRef(n.Schema, n.Table, n.Alias))

	for _, alias := range n.ChildOrder {
		child := n.Children[alias]
		fk, ok := g.cat.FindJoinTo(n.Schema, n.Table, child.Schema, child.Table)
		if !ok {
			// Resolution guarantees a join exists; fall back to an
			// id-keyed join if the catalog lookup ever disagrees.
			fk = catalog.ForeignKey{Col: "id", RCol: "id"}
		}
		g.joins = append(g.joins, fmt.Sprintf("LEFT JOIN %s ON %s = %s",
			tableRef(child.Schema, child.Table, child.Alias),
			colRef(n.Schema, n.Table, n.Alias, fk.Col),
			colRef(child.Schema, child.Table, child.Alias, fk.RCol)))
		g.visit(child, path)
	}
}

func (g *generator) emitSelects(n *ittree.Node, path string) {
	if uniq, ok := g.cat.UniqueKey(n.Schema, n.Table); ok {
		for _, col := range uniq {
			g.selects = append(g.selects, colRef(n.Schema, n.Table, n.Alias, col))
			g.columns = append(g.columns, Column{NodePath: path, Alias: n.Alias, Name: col, Hidden: true})
		}
	}
	for _, col := range n.Columns {
		g.selects = append(g.selects, colRef(n.Schema, n.Table, n.Alias, col))
		g.columns = append(g.columns, Column{NodePath: path, Alias: n.Alias, Name: col, Hidden: false})
	}
}

func (g *generator) emitWheres(n *ittree.Node, ref string) {
	for _, c := range n.Conditions {
		g.wheres = append(g.wheres, renderCondition(ref, c.Column, c.Op, c.Value))
	}
	for _, alias := range n.ConditionRootOrder {
		g.wheres = append(g.wheres, g.renderDeepCondition(ref, n, n.ConditionRoots[alias]))
	}
}

func renderCondition(ref, column, op string, v lang.Value) string {
	if v.Kind == lang.ValueNull {
		switch op {
		case "=":
			return fmt.Sprintf("%s.%s IS NULL", ref, column)
		case "<>":
			return fmt.Sprintf("%s.%s IS NOT NULL", ref, column)
		}
	}
	return fmt.Sprintf("%s.%s %s %s", ref, column, op, renderValue(v))
}

func renderValue(v lang.Value) string {
	switch v.Kind {
	case lang.ValueString:
		return "'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	case lang.ValueNumber:
		if v.Raw != "" {
			return v.Raw
		}
		return fmt.Sprintf("%g", v.Num)
	default:
		return "NULL"
	}
}

// renderDeepCondition compiles a correlated subquery for a condition
// child tree: an IN over the outer node's own table, LEFT JOINed down
// through root to the node carrying the actual comparison, matched
// back to ref on the outer table's id. The spec's generator hardcodes the correlation
// column to "id" — a known, documented limitation carried forward
// rather than silently "fixed", since it matches the original
// implementation's own behavior.
func (g *generator) renderDeepCondition(ref string, outer, root *ittree.Node) string {
	sub := &generator{cat: g.cat}
	sub.joins = append(sub.joins, tableRef(outer.Schema, outer.Table, outer.Alias))
	fk, ok := g.cat.FindJoinTo(outer.Schema, outer.Table, root.Schema, root.Table)
	if !ok {
		fk = catalog.ForeignKey{Col: "id", RCol: "id"}
	}
	sub.joins = append(sub.joins, fmt.Sprintf("LEFT JOIN %s ON %s = %s",
		tableRef(root.Schema, root.Table, root.Alias),
		colRef(outer.Schema, outer.Table, outer.Alias, fk.Col),
		colRef(root.Schema, root.Table, root.Alias, fk.RCol)))
	sub.visit(root, outer.Alias)
	inner := "SELECT " + colRef(outer.Schema, outer.Table, outer.Alias, "id") + " FROM " + strings.Join(sub.joins, " ")
	if len(sub.wheres) > 0 {
		inner += " WHERE " + strings.Join(sub.wheres, " AND ")
	}
	return fmt.Sprintf("%s.id IN (%s)", ref, inner)
}
