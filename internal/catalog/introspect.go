package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// querier is satisfied by *sql.DB and *sql.Tx alike.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Load builds a Catalog from a live database by running the three
// read-only introspection queries against information_schema: column
// listing, PK/UNIQUE constraints, and foreign keys. schemas restricts
// introspection to the given schema names; an empty list means "every
// schema information_schema can see" is left to the caller (scry's
// CLI always passes at least one).
func Load(ctx context.Context, db querier, schemas []string) (*Catalog, error) {
	cat := New()

	if err := loadColumns(ctx, db, schemas, cat); err != nil {
		return nil, fmt.Errorf("loading columns: %w", err)
	}
	if err := loadConstraints(ctx, db, schemas, cat); err != nil {
		return nil, fmt.Errorf("loading constraints: %w", err)
	}
	if err := loadForeignKeys(ctx, db, schemas, cat); err != nil {
		return nil, fmt.Errorf("loading foreign keys: %w", err)
	}
	cat.Finalize()

	zap.L().Debug("catalog loaded",
		zap.Strings("schemas", cat.Schemas()),
		zap.Int("tables", len(cat.tables)),
	)
	return cat, nil
}

const columnsQuery = `
SELECT table_schema, table_name, column_name
FROM information_schema.columns
WHERE table_schema = ANY($1)
ORDER BY table_schema, table_name, ordinal_position`

func loadColumns(ctx context.Context, db querier, schemas []string, cat *Catalog) error {
	rows, err := db.QueryContext(ctx, columnsQuery, pqArray(schemas))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, column string
		if err := rows.Scan(&schema, &table, &column); err != nil {
			return err
		}
		cat.AddColumn(schema, table, column)
	}
	return rows.Err()
}

const constraintsQuery = `
SELECT tc.table_schema, tc.table_name, tc.constraint_name, tc.constraint_type, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.table_schema = ANY($1) AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position`

func loadConstraints(ctx context.Context, db querier, schemas []string, cat *Catalog) error {
	rows, err := db.QueryContext(ctx, constraintsQuery, pqArray(schemas))
	if err != nil {
		return err
	}
	defer rows.Close()

	type key struct{ schema, table, name string }
	order := []key{}
	cols := map[key][]string{}
	isPK := map[key]bool{}

	for rows.Next() {
		var schema, table, name, ctype, col string
		if err := rows.Scan(&schema, &table, &name, &ctype, &col); err != nil {
			return err
		}
		k := key{schema, table, name}
		if _, ok := cols[k]; !ok {
			order = append(order, k)
		}
		cols[k] = append(cols[k], col)
		isPK[k] = ctype == "PRIMARY KEY"
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, k := range order {
		cat.AddUniqueConstraint(k.schema, k.table, k.name, isPK[k], cols[k])
	}
	return nil
}

const foreignKeysQuery = `
SELECT tc.table_schema, tc.table_name, kcu.column_name,
       ccu.table_schema AS foreign_table_schema, ccu.table_name AS foreign_table_name, ccu.column_name AS foreign_column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
WHERE tc.table_schema = ANY($1) AND tc.constraint_type = 'FOREIGN KEY'
ORDER BY tc.table_schema, tc.table_name, kcu.ordinal_position`

func loadForeignKeys(ctx context.Context, db querier, schemas []string, cat *Catalog) error {
	rows, err := db.QueryContext(ctx, foreignKeysQuery, pqArray(schemas))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, col, fSchema, fTable, fCol string
		if err := rows.Scan(&schema, &table, &col, &fSchema, &fTable, &fCol); err != nil {
			return err
		}
		cat.AddForeignKey(schema, table, col, fSchema, fTable, fCol)
	}
	return rows.Err()
}
