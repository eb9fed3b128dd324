package lang

import (
	"strings"
	"unicode"

	"github.com/edanaher/scry/internal/scryerr"
)

// Line is the result of parsing one input line: exactly one field is
// non-nil.
type Line struct {
	Query *Query
	Set   *SetCommand
	Alias *AliasCommand
}

// ParseLine parses one line of REPL/script input: either a backslash
// command (\set, \alias) or a whole query.
func ParseLine(raw string) (*Line, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &Line{Query: &Query{}}, nil
	}
	if strings.HasPrefix(trimmed, "\\") {
		return parseCommand(trimmed)
	}
	q, err := Parse(trimmed)
	if err != nil {
		return nil, err
	}
	return &Line{Query: q}, nil
}

func parseCommand(s string) (*Line, error) {
	i := 1 // skip leading backslash
	cmd, i := scanWord(s, i)
	if cmd == "" {
		return nil, scryerr.New(scryerr.KindParse, "parse error: expected a command name after \\")
	}
	i = skipWS(s, i)

	switch strings.ToLower(cmd) {
	case "set":
		name, i2 := scanWord(s, i)
		if name == "" {
			return nil, scryerr.New(scryerr.KindParse, "parse error: \\set requires a setting name")
		}
		i = skipWS(s, i2)
		value := strings.TrimRight(s[i:], " \t")
		if value == "" {
			return nil, scryerr.New(scryerr.KindParse, "parse error: \\set requires a value")
		}
		return &Line{Set: &SetCommand{Name: name, Value: value}}, nil

	case "alias":
		name, i2 := scanWord(s, i)
		if name == "" {
			return nil, scryerr.New(scryerr.KindParse, "parse error: \\alias requires a name")
		}
		i = skipWS(s, i2)
		hasAt := false
		if i < len(s) && s[i] == '@' {
			hasAt = true
			i = skipWS(s, i+1)
		}
		table, i3 := scanWord(s, i)
		if table == "" {
			return nil, scryerr.New(scryerr.KindParse, "parse error: \\alias requires a target table")
		}
		i = skipWS(s, i3)
		if i != len(s) {
			return nil, scryerr.New(scryerr.KindParse, "parse error: unexpected input after \\alias")
		}
		return &Line{Alias: &AliasCommand{Name: name, HasAt: hasAt, Table: table}}, nil

	default:
		return nil, scryerr.Newf(scryerr.KindParse, "parse error: unknown command \\%s", cmd)
	}
}

func skipWS(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func scanWord(s string, i int) (string, int) {
	start := i
	for i < len(s) && !unicode.IsSpace(rune(s[i])) {
		i++
	}
	return s[start:i], i
}
