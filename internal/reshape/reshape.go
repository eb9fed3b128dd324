// Package reshape folds the flat, possibly duplicate-laden rows a
// LEFT JOIN-heavy SELECT produces back into the nested, de-duplicated
// tree shape the printer displays: schema -> table -> table -> ...,
// grouped at each level by that table's unique key (or, lacking one,
// by its display columns), with all-NULL branches (a left join that
// matched nothing) dropped entirely.
package reshape

import (
	"fmt"

	"github.com/edanaher/scry/internal/ittree"
	"github.com/edanaher/scry/internal/sqlgen"
)

// Field is one display column's name and scanned value.
type Field struct {
	Name  string
	Value any
}

// Node is one de-duplicated table instance in the reshaped tree.
type Node struct {
	Alias    string
	Table    string
	Display  []Field
	Children []*Node
}

// SchemaGroup is the reshaped forest rooted at one schema.
type SchemaGroup struct {
	Schema string
	Roots  []*Node
}

// plan mirrors the column layout sqlgen produced: which row indices
// belong to a node's hidden (unique-key) and display columns.
type plan struct {
	alias      string
	table      string
	hiddenIdx  []int
	displayIdx []int
	names      []string // names[i] is the column name for displayIdx[i]
	children   []*plan
}

// buildPlans derives, from the generator's column list, one plan tree
// per schema root declared in tree, in schema/root order.
func buildPlans(tree *ittree.Tree, cols []sqlgen.Column) map[string][]*plan {
	byPath := map[string]*plan{}
	var order []string

	for i, c := range cols {
		p, ok := byPath[c.NodePath]
		if !ok {
			p = &plan{alias: c.Alias}
			byPath[c.NodePath] = p
			order = append(order, c.NodePath)
			if parent, ok := parentPath(c.NodePath); ok {
				if pp, ok := byPath[parent]; ok {
					pp.children = append(pp.children, p)
				}
			}
		}
		if c.Hidden {
			p.hiddenIdx = append(p.hiddenIdx, i)
		} else {
			p.displayIdx = append(p.displayIdx, i)
			p.names = append(p.names, c.Name)
		}
	}

	out := map[string][]*plan{}
	for _, schema := range tree.SchemaOrder {
		root := tree.Schemas[schema]
		for _, alias := range root.ChildOrder {
			if p, ok := byPath[alias]; ok {
				p.table = root.Children[alias].Table
				setTables(p, root.Children[alias])
				out[schema] = append(out[schema], p)
			}
		}
	}
	return out
}

func setTables(p *plan, n *ittree.Node) {
	for _, cp := range p.children {
		if cn, ok := n.Children[cp.alias]; ok {
			cp.table = cn.Table
			setTables(cp, cn)
		}
	}
}

func parentPath(path string) (string, bool) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i], true
		}
	}
	return "", false
}

// Run folds rows (one []any per row, ordered exactly as cols) into
// the reshaped forest, one SchemaGroup per schema root in tree.
func Run(tree *ittree.Tree, cols []sqlgen.Column, rows [][]any) []SchemaGroup {
	plans := buildPlans(tree, cols)
	var out []SchemaGroup
	for _, schema := range tree.SchemaOrder {
		var roots []*Node
		for _, p := range plans[schema] {
			roots = append(roots, foldGroup(p, rows)...)
		}
		out = append(out, SchemaGroup{Schema: schema, Roots: roots})
	}
	return out
}

// foldGroup groups rows by p's key (hidden tuple, or display tuple if
// p has no unique key), in first-appearance order, drops all-NULL
// groups, and recurses into children with each group's row subset.
func foldGroup(p *plan, rows [][]any) []*Node {
	keyIdx := p.hiddenIdx
	if len(keyIdx) == 0 {
		keyIdx = p.displayIdx
	}

	var order []string
	groups := map[string][][]any{}
	for _, row := range rows {
		k := key(row, keyIdx)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}

	var nodes []*Node
	for _, k := range order {
		grouped := groups[k]
		rep := grouped[0]
		if allNull(rep, p.hiddenIdx) && allNull(rep, p.displayIdx) {
			continue
		}
		n := &Node{Alias: p.alias, Table: p.table}
		for i, idx := range p.displayIdx {
			n.Display = append(n.Display, Field{Name: p.names[i], Value: rep[idx]})
		}
		for _, cp := range p.children {
			n.Children = append(n.Children, foldGroup(cp, grouped)...)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func key(row []any, idx []int) string {
	s := ""
	for _, i := range idx {
		s += fmt.Sprintf("%v\x00", row[i])
	}
	return s
}

func allNull(row []any, idx []int) bool {
	if len(idx) == 0 {
		return true
	}
	for _, i := range idx {
		if row[i] != nil {
			return false
		}
	}
	return true
}
