// Package lang implements scry's dotted-path query grammar: lexing,
// a recursive-descent parser for whole-input (execution) mode, a
// longest-valid-prefix mode for completion, and the two out-of-band
// commands (\set, \alias).
//
// The parser deliberately does not know which dotted segment denotes
// a table and which denotes a column — that requires catalog access
// and is the alias resolver's and IT builder's job. Syntactically a
// path is just a chain of names; only a trailing comma-list or a
// comparison operator changes what the parser records.
package lang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edanaher/scry/internal/scryerr"
)

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool { return p.pos >= len(p.toks) }

// Parse parses s as a complete query: one or more space-separated
// components, consuming the whole input.
func Parse(s string) (*Query, error) {
	toks, err := lex(s)
	if err != nil {
		return nil, scryerr.Wrap(scryerr.KindParse, err, "parse error")
	}
	p := &parser{toks: toks}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, scryerr.Newf(scryerr.KindParse, "parse error: unexpected input at position %d", p.peek().pos)
	}
	return q, nil
}

// ParsePrefix implements longest-valid-prefix parsing for completion:
// it tries the whole line, then successively shorter prefixes, until
// one parses as a complete query. It returns the parsed query and the
// length of input actually consumed.
func ParsePrefix(s string) (*Query, int, error) {
	for l := len(s); l >= 0; l-- {
		q, err := Parse(strings.TrimRight(s[:l], " \t"))
		if err == nil {
			return q, l, nil
		}
	}
	return nil, 0, scryerr.New(scryerr.KindParse, "parse error: no valid prefix")
}

func (p *parser) parseQuery() (*Query, error) {
	var comps []Component
	c, err := p.parseComponent()
	if err != nil {
		return nil, err
	}
	comps = append(comps, c)
	for !p.atEOF() {
		c, err := p.parseComponent()
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return &Query{Components: comps}, nil
}

func (p *parser) parseComponent() (Component, error) {
	path, columns, terminator, err := p.parsePathChain()
	if err != nil {
		return Component{}, err
	}
	if len(path) == 0 {
		return Component{}, scryerr.Newf(scryerr.KindParse, "parse error: expected a name at position %d", p.peek().pos)
	}

	switch p.peek().kind {
	case tColon:
		p.next()
		suffix, column, err := p.parseCondSuffix()
		if err != nil {
			return Component{}, err
		}
		op, val, err := p.parseCmpValue()
		if err != nil {
			return Component{}, err
		}
		return Component{Cond: &Condition{Prefix: path, Suffix: suffix, Column: column, Op: op, Value: val}}, nil
	case tCmp:
		last := path[len(path)-1]
		if last.Alias != "" {
			return Component{}, scryerr.Newf(scryerr.KindParse, "parse error: column %q cannot carry an alias", last.Name)
		}
		prefix := path[:len(path)-1]
		op, val, err := p.parseCmpValue()
		if err != nil {
			return Component{}, err
		}
		return Component{Cond: &Condition{Prefix: prefix, Column: last.Name, Op: op, Value: val}}, nil
	default:
		return Component{Path: &QueryPath{Path: path, Columns: columns, Terminator: terminator}}, nil
	}
}

// parsePathChain consumes path_elem ("." path_elem)* and, if present,
// the trailing "." columns or terminator clause. It stops (without
// error) at any token that isn't part of that grammar, leaving it for
// the caller (component-level condition detection).
func (p *parser) parsePathChain() ([]PathElem, []string, bool, error) {
	var path []PathElem
	var columns []string
	terminator := false

	elem, ok, err := p.tryPathElem()
	if err != nil {
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, false, nil
	}
	path = append(path, elem)

	for p.peek().kind == tDot {
		mark := p.pos
		p.next() // consume "."

		if p.peek().kind == tComma {
			p.next()
			terminator = true
			break
		}

		if p.peek().kind != tName {
			p.pos = mark
			return nil, nil, false, scryerr.Newf(scryerr.KindParse, "parse error: expected a name or \",\" after \".\" at position %d", p.peek().pos)
		}

		nameTok := p.next()
		if nameTok.text == "*" {
			columns = append(columns, "*")
			for p.peek().kind == tComma {
				p.next()
				col, ok := p.expectName()
				if !ok {
					return nil, nil, false, scryerr.Newf(scryerr.KindParse, "parse error: expected column name at position %d", p.peek().pos)
				}
				columns = append(columns, col.text)
			}
			break
		}

		if p.peek().kind == tAt {
			p.next()
			aliasTok, ok := p.expectName()
			if !ok {
				return nil, nil, false, scryerr.Newf(scryerr.KindParse, "parse error: expected alias name at position %d", p.peek().pos)
			}
			path = append(path, PathElem{Name: nameTok.text, Alias: aliasTok.text})
			continue
		}

		if p.peek().kind == tComma {
			columns = append(columns, nameTok.text)
			for p.peek().kind == tComma {
				p.next()
				col, ok := p.expectName()
				if !ok {
					return nil, nil, false, scryerr.Newf(scryerr.KindParse, "parse error: expected column name at position %d", p.peek().pos)
				}
				columns = append(columns, col.text)
			}
			break
		}

		path = append(path, PathElem{Name: nameTok.text})
	}

	return path, columns, terminator, nil
}

// parseCondSuffix parses cond_suffix: (path_elem ".")* column — a
// dotted chain ending in a bare column name (never itself aliased).
func (p *parser) parseCondSuffix() ([]PathElem, string, error) {
	var suffix []PathElem
	for {
		nameTok, ok := p.expectName()
		if !ok {
			return nil, "", scryerr.Newf(scryerr.KindParse, "parse error: expected a name at position %d", p.peek().pos)
		}
		if p.peek().kind == tAt {
			p.next()
			aliasTok, ok := p.expectName()
			if !ok {
				return nil, "", scryerr.Newf(scryerr.KindParse, "parse error: expected alias name at position %d", p.peek().pos)
			}
			if p.peek().kind != tDot {
				return nil, "", scryerr.New(scryerr.KindParse, "parse error: an aliased segment cannot be the final column of a condition")
			}
			p.next()
			suffix = append(suffix, PathElem{Name: nameTok.text, Alias: aliasTok.text})
			continue
		}
		if p.peek().kind == tDot {
			p.next()
			suffix = append(suffix, PathElem{Name: nameTok.text})
			continue
		}
		return suffix, nameTok.text, nil
	}
}

func (p *parser) tryPathElem() (PathElem, bool, error) {
	if p.peek().kind != tName {
		return PathElem{}, false, nil
	}
	nameTok := p.next()
	if p.peek().kind == tAt {
		p.next()
		aliasTok, ok := p.expectName()
		if !ok {
			return PathElem{}, false, scryerr.Newf(scryerr.KindParse, "parse error: expected alias name at position %d", p.peek().pos)
		}
		return PathElem{Name: nameTok.text, Alias: aliasTok.text}, true, nil
	}
	return PathElem{Name: nameTok.text}, true, nil
}

func (p *parser) expectName() (token, bool) {
	if p.peek().kind != tName {
		return token{}, false
	}
	return p.next(), true
}

func (p *parser) parseCmpValue() (string, Value, error) {
	if p.peek().kind != tCmp {
		return "", Value{}, scryerr.Newf(scryerr.KindParse, "parse error: expected a comparison operator at position %d", p.peek().pos)
	}
	op := p.next().text

	switch p.peek().kind {
	case tString:
		t := p.next()
		return op, Value{Kind: ValueString, Str: t.text}, nil
	case tNull:
		p.next()
		return op, Value{Kind: ValueNull}, nil
	case tNumber:
		t := p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return "", Value{}, scryerr.Wrap(scryerr.KindParse, err, fmt.Sprintf("parse error: invalid number %q", t.text))
		}
		return op, Value{Kind: ValueNumber, Num: f, Raw: t.text}, nil
	default:
		return "", Value{}, scryerr.Newf(scryerr.KindParse, "parse error: expected a value at position %d", p.peek().pos)
	}
}
