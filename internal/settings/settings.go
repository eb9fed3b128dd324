// Package settings holds the process's mutable state: the closed set
// of \set-able config keys and the process-wide alias table installed
// by \alias. Both are touched only between queries, never during one
// (see the concurrency note in the dispatcher).
package settings

import (
	"strconv"
	"strings"

	"github.com/edanaher/scry/internal/scryerr"
)

// CompleteStyle is the value of the "complete_style" setting.
type CompleteStyle string

const (
	CompleteColumn      CompleteStyle = "column"
	CompleteMultiColumn CompleteStyle = "multi_column"
	CompleteReadline    CompleteStyle = "readline"
)

// Alias is one process-wide alias installed by \alias: Table is
// usable under Name as if Name had been written as "table@name" (or,
// if AsAlias is false, as a bare self-reference to Table).
type Alias struct {
	Table   string
	AsAlias bool
}

// Settings is the closed key/value config plus the alias table. The
// zero value is ready to use; New fills in documented defaults.
type Settings struct {
	CompleteStyle CompleteStyle
	SearchPath    []string
	Aliases       map[string]Alias
}

func New() *Settings {
	return &Settings{
		CompleteStyle: CompleteColumn,
		SearchPath:    []string{"scry"},
		Aliases:       make(map[string]Alias),
	}
}

// Set applies a \set NAME VALUE command. Unknown keys are a parse-ish
// error (the dispatcher surfaces it the same way as any compiler
// error) since the setting key space is intentionally closed.
func (s *Settings) Set(name, value string) error {
	switch name {
	case "complete_style":
		switch CompleteStyle(value) {
		case CompleteColumn, CompleteMultiColumn, CompleteReadline:
			s.CompleteStyle = CompleteStyle(value)
			return nil
		default:
			return scryerr.Newf(scryerr.KindParse, "unknown complete_style: %s", value)
		}
	case "search_path":
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		s.SearchPath = parts
		return nil
	default:
		return scryerr.Newf(scryerr.KindParse, "unknown setting: %s", name)
	}
}

// AddAlias installs a process-wide alias. A table may be aliased to
// itself (AsAlias false, Name == Table) or to another name.
func (s *Settings) AddAlias(name string, hasAt bool, table string) error {
	if existing, ok := s.Aliases[name]; ok {
		if existing.Table != table || existing.AsAlias != hasAt {
			return scryerr.Newf(scryerr.KindAliasConflict, "alias %s already refers to a different table", name)
		}
		return nil
	}
	s.Aliases[name] = Alias{Table: table, AsAlias: hasAt}
	return nil
}

// Coerce applies the original implementation's \set value coercion: a
// value wrapped in double quotes is a string (quotes stripped);
// anything else is parsed as an integer, and a value that is not one
// is returned unchanged as a string. This only matters for
// settings with a free-form value — the closed keys above bypass it.
func Coerce(raw string) (isInt bool, intVal int64, strVal string) {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return false, 0, raw[1 : len(raw)-1]
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return true, n, ""
	}
	return false, 0, raw
}
