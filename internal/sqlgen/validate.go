package sqlgen

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Validate parses sql with the real Postgres grammar as a sanity
// check on the generator's own output. It never rewrites or reformats
// the string — only ParseToJSON's error (or lack of one) is used —
// so the determinism of the emitted SQL text is untouched.
func Validate(sql string) error {
	if _, err := pg_query.ParseToJSON(sql); err != nil {
		return fmt.Errorf("generated SQL failed to parse: %w", err)
	}
	return nil
}
