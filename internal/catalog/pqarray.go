package catalog

import "github.com/lib/pq"

// pqArray wraps a []string so it binds as a Postgres text[] parameter
// regardless of which driver (lib/pq or pgx's database/sql shim) is
// behind the querier.
func pqArray(ss []string) any {
	return pq.Array(ss)
}
