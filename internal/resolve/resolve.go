// Package resolve implements the alias resolver (binding every dotted
// path element to a schema/table/node) and drives the Intermediate
// Tree builder. Resolution is a fixpoint over the query's components
// because a condition — or, since aliases are process-wide, a later
// query — may reference an alias a later component in the same query
// declares (forward alias references).
package resolve

import (
	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/ittree"
	"github.com/edanaher/scry/internal/lang"
	"github.com/edanaher/scry/internal/scryerr"
	"github.com/edanaher/scry/internal/settings"
)

// Binding is one entry of the alias table: the schema/table an alias
// name was declared against, the dotted chain of ancestor table names
// it sits under (for duplicate-alias diagnostics), and the IT node it
// resolves to.
type Binding struct {
	Schema string
	Path   string // dot-joined ancestor table names, not including this alias
	Table  string
	Node   *ittree.Node
}

// AliasTable is the full set of aliases known while resolving one
// query: process-wide aliases from \alias seed it, and every alias
// introduced by the query (explicit "@alias" or implicit self-alias)
// is added as resolution proceeds.
type AliasTable struct {
	byName map[string]Binding
}

func newAliasTable(seed map[string]settings.Alias, cat *catalog.Catalog, sp []string) *AliasTable {
	at := &AliasTable{byName: make(map[string]Binding)}
	for name, a := range seed {
		schemas, ok := cat.TableSchemas(a.Table)
		if !ok {
			continue
		}
		schema := pickSchema(schemas, sp)
		at.byName[name] = Binding{Schema: schema, Path: "", Table: a.Table}
	}
	return at
}

func (at *AliasTable) lookup(name string) (Binding, bool) {
	b, ok := at.byName[name]
	return b, ok
}

func pickSchema(schemas, searchPath []string) string {
	for _, sp := range searchPath {
		for _, s := range schemas {
			if s == sp {
				return s
			}
		}
	}
	return schemas[0]
}

// errPending signals that a component could not be resolved this
// round because it depends on an alias that isn't known yet, but
// might be declared by a later component — the fixpoint loop should
// retry it, not fail immediately.
type errPending struct{ name string }

func (e *errPending) Error() string { return "pending: " + e.name }

// Builder drives fixpoint resolution for one query against a fixed
// catalog and settings snapshot.
type Builder struct {
	cat    *catalog.Catalog
	set    *settings.Settings
	tree   *ittree.Tree
	aliens *AliasTable
}

// Build resolves every component of q and returns the completed IT.
// The alias table it builds along the way is not returned.
func Build(cat *catalog.Catalog, set *settings.Settings, q *lang.Query) (*ittree.Tree, error) {
	b := &Builder{
		cat:    cat,
		set:    set,
		tree:   ittree.New(),
		aliens: newAliasTable(set.Aliases, cat, set.SearchPath),
	}

	pending := make([]lang.Component, len(q.Components))
	copy(pending, q.Components)

	for len(pending) > 0 {
		var next []lang.Component
		progressed := false
		var firstPendingErr error

		for _, comp := range pending {
			err := b.attach(comp)
			if err == nil {
				progressed = true
				continue
			}
			if pe, ok := err.(*errPending); ok {
				next = append(next, comp)
				if firstPendingErr == nil {
					firstPendingErr = scryerr.Newf(scryerr.KindUnresolvedSchema, "Unable to resolve schema for %s", pe.name)
				}
				continue
			}
			return nil, err.(*scryerr.Error)
		}

		if !progressed {
			if firstPendingErr != nil && len(next) == 1 {
				return nil, firstPendingErr.(*scryerr.Error)
			}
			return nil, scryerr.New(scryerr.KindUnfinishedAliases, "unfinished aliases: could not resolve all components")
		}
		pending = next
	}

	return b.tree, nil
}

// attach resolves and applies one component. It returns *errPending
// when the component's root alias isn't known yet (retry later), or a
// *scryerr.Error for any other failure.
func (b *Builder) attach(comp lang.Component) error {
	if comp.Path != nil {
		return b.attachPath(comp.Path)
	}
	return b.attachCondition(comp.Cond)
}

// attachPath walks qp's dotted chain and applies its trailing clause.
// Per the IT builder's rule, the bare trailing element of a query_path
// (no comma list, no terminator) is ambiguous between "one more join"
// and "a column of the current table" — it's resolved as a column
// whenever the current table actually has one by that name, and as a
// join otherwise (falling back to that table's default column set).
// Condition prefixes/suffixes have no such ambiguity (see
// resolveChain) since cond_prefix/cond_suffix never carry a columns
// clause.
func (b *Builder) attachPath(qp *lang.QueryPath) error {
	if len(qp.Path) == 0 {
		return scryerr.New(scryerr.KindParse, "empty path")
	}

	node, ancestorPath, err := b.resolveRoot(qp.Path[0])
	if err != nil {
		return err
	}

	rest := qp.Path[1:]
	explicit := qp.Terminator || len(qp.Columns) > 0

	for i, elem := range rest {
		last := i == len(rest)-1
		if last && !explicit && elem.Alias == "" && b.cat.HasColumn(node.Schema, node.Table, elem.Name) {
			node.Columns = append(node.Columns, elem.Name)
			return nil
		}
		node, ancestorPath, err = b.step(node, ancestorPath, elem, false)
		if err != nil {
			return err
		}
	}

	b.applyColumns(node, qp)
	return nil
}

func (b *Builder) applyColumns(node *ittree.Node, qp *lang.QueryPath) {
	switch {
	case qp.Terminator:
		// pre-declare only; no columns.
	case len(qp.Columns) > 0:
		all, _ := b.cat.Columns(node.Schema, node.Table)
		ittree.AddColumns(node, qp.Columns, all)
	default:
		all, _ := b.cat.Columns(node.Schema, node.Table)
		ittree.AddColumns(node, []string{"*"}, all)
	}
}

// resolveChain walks path from the root, resolving or creating
// aliases and IT nodes as it goes, and returns the final node.
func (b *Builder) resolveChain(path []lang.PathElem) (*ittree.Node, error) {
	root := path[0]
	node, ancestorPath, err := b.resolveRoot(root)
	if err != nil {
		return nil, err
	}

	for _, elem := range path[1:] {
		node, ancestorPath, err = b.step(node, ancestorPath, elem, false)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// resolveRoot resolves the first element of a chain: either an
// existing alias (process-wide or query-local) or a fresh schema/
// table lookup via search_path.
func (b *Builder) resolveRoot(elem lang.PathElem) (*ittree.Node, string, error) {
	if bind, ok := b.aliens.lookup(elem.Name); ok {
		if bind.Node == nil {
			// Process-wide alias referenced for the first time this query:
			// materialize its root node now.
			node, _ := b.tree.GetOrCreateRoot(bind.Schema, elem.Name, bind.Table)
			bind.Node = node
			b.aliens.byName[elem.Name] = bind
		}
		return bind.Node, bind.Path, nil
	}

	schemas, ok := b.cat.TableSchemas(elem.Name)
	if !ok {
		return nil, "", &errPending{name: elem.Name}
	}
	schema := pickSchema(schemas, b.set.SearchPath)
	alias := elem.Name
	if elem.Alias != "" {
		alias = elem.Alias
	}

	if existing, ok := b.aliens.lookup(alias); ok {
		if existing.Schema == schema && existing.Path == "" && existing.Table == elem.Name {
			return existing.Node, "", nil
		}
		return nil, "", aliasConflictErr(alias, existing.Table, existing.Path, elem.Name, elem.Name, elem.Alias != "")
	}

	node, _ := b.tree.GetOrCreateRoot(schema, alias, elem.Name)
	b.aliens.byName[alias] = Binding{Schema: schema, Path: "", Table: elem.Name, Node: node}
	return node, "", nil
}

// step resolves one non-root path element against the current node as
// a foreign-key join to another table; a trailing column name is
// handled by the caller before step is reached. condScope true routes
// alias bookkeeping into the node's isolated condition-child scope
// instead of the global alias table.
func (b *Builder) step(cur *ittree.Node, ancestorPath string, elem lang.PathElem, condScope bool) (*ittree.Node, string, error) {
	fk, ok := b.cat.FindJoin(cur.Schema, cur.Table, elem.Name, b.set.SearchPath)
	if !ok {
		if _, known := b.cat.TableSchemas(elem.Name); known {
			return nil, "", scryerr.Newf(scryerr.KindNoJoin, "No known join of %s to %s", elem.Name, cur.Table)
		}
		return nil, "", scryerr.Newf(scryerr.KindUnknownIdentifier, "Unknown table or column: %s", elem.Name)
	}

	alias := elem.Name
	if elem.Alias != "" {
		alias = elem.Alias
	}
	childPath := joinPath(ancestorPath, cur.Table)

	if condScope {
		child, existed := ittree.AddConditionChild(cur, alias, fk.Right.Schema, fk.Right.Table)
		if existed && (child.Schema != fk.Right.Schema || child.Table != fk.Right.Table) {
			return nil, "", aliasConflictErr(alias, child.Table, ancestorPath, elem.Name, childPath, elem.Alias != "")
		}
		return child, childPath, nil
	}

	if existing, ok := b.aliens.lookup(alias); ok {
		if existing.Schema == fk.Right.Schema && existing.Path == childPath && existing.Table == elem.Name {
			return existing.Node, childPath, nil
		}
		return nil, "", aliasConflictErr(alias, existing.Table, existing.Path, elem.Name, childPath, elem.Alias != "")
	}

	child, _ := ittree.AddChild(cur, alias, fk.Right.Schema, fk.Right.Table)
	b.aliens.byName[alias] = Binding{Schema: fk.Right.Schema, Path: childPath, Table: elem.Name, Node: child}
	return child, childPath, nil
}

func joinPath(ancestor, name string) string {
	if ancestor == "" {
		return name
	}
	return ancestor + "." + name
}

// aliasConflictErr reports alias re-use, in either of the two forms
// spec.md's error-scenario table distinguishes: an explicitly
// @-declared alias collision names only the two table names involved
// ("Existing alias b for table books reused on series_books"), while
// an implicit self-alias collision (no "@" in this reference) also
// names the ancestor path the existing binding sits on ("Existing
// alias authors for table authors on path '' reused on
// 'authors.books'").
func aliasConflictErr(alias, existingTable, existingPath, plainName, pathName string, explicit bool) *scryerr.Error {
	if explicit {
		return scryerr.Newf(scryerr.KindAliasConflict,
			"Existing alias %s for table %s reused on %s", alias, existingTable, plainName)
	}
	return scryerr.Newf(scryerr.KindAliasConflict,
		"Existing alias %s for table %s on path '%s' reused on '%s'", alias, existingTable, existingPath, pathName)
}

func (b *Builder) attachCondition(cond *lang.Condition) error {
	if len(cond.Prefix) == 0 {
		return scryerr.Newf(scryerr.KindUnknownIdentifier, "Unknown table or column: %s", cond.Column)
	}
	target, err := b.resolveChain(cond.Prefix)
	if err != nil {
		return err
	}

	if len(cond.Suffix) == 0 {
		if !b.cat.HasColumn(target.Schema, target.Table, cond.Column) {
			return scryerr.Newf(scryerr.KindUnknownIdentifier, "Unknown table or column: %s", cond.Column)
		}
		target.Conditions = append(target.Conditions, ittree.Condition{Column: cond.Column, Op: cond.Op, Value: cond.Value})
		return nil
	}

	cur := target
	ancestorPath := ""
	for _, elem := range cond.Suffix {
		var err error
		cur, ancestorPath, err = b.step(cur, ancestorPath, elem, true)
		if err != nil {
			return err
		}
	}
	if !b.cat.HasColumn(cur.Schema, cur.Table, cond.Column) {
		return scryerr.Newf(scryerr.KindUnknownIdentifier, "Unknown table or column: %s", cond.Column)
	}
	cur.Conditions = append(cur.Conditions, ittree.Condition{Column: cond.Column, Op: cond.Op, Value: cond.Value})
	return nil
}

