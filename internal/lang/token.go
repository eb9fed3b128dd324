package lang

type tokenKind int

const (
	tEOF tokenKind = iota
	tName
	tAt
	tDot
	tComma
	tColon
	tCmp
	tString
	tNumber
	tNull
	tBackslash
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var cmpKeywords = map[string]string{
	"like":  "LIKE",
	"ilike": "ILIKE",
}
