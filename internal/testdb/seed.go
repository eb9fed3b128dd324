package testdb

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"strings"

	faker "github.com/go-faker/faker/v4"
)

// SeedAuthor is a struct-tagged row generator for scry.authors, reused
// by SeedRandom to bulk-populate a sandbox with deterministic fake
// data for tests that need more rows than the fixture migrations seed
// (e.g. exercising LIMIT, or reshape grouping at scale).
type SeedAuthor struct {
	ID        int64  `db:"id,pk,autoinc" faker:"-"`
	Name      string `db:"name"          faker:"name"`
	BirthYear int    `db:"birth_year"    faker:"-"`
}

func (SeedAuthor) TableName() string { return "authors" }

// SeedRandom inserts n extra authors into sbx, generated by faker from
// a PRNG seeded deterministically by seed, so a failing test's fixture
// data is reproducible across runs.
func SeedRandom(ctx context.Context, sbx *Sandbox, seed int64, n int) error {
	faker.SetCryptoSource(rand.New(rand.NewSource(seed)))
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < n; i++ {
		a := SeedAuthor{}
		if err := faker.FakeData(&a); err != nil {
			return fmt.Errorf("generating fake author: %w", err)
		}
		a.BirthYear = 1900 + rng.Intn(120)

		stmt, args := insertSQL(a.TableName(), a)
		if _, err := sbx.DB.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("inserting fake author: %w", err)
		}
	}
	return nil
}

// columnsAndValues reads a struct's `db:"col[,pk,autoinc]"` tags to
// build an ordered (column, value) pair list, skipping autoincrement
// primary keys since those are assigned by the database.
func columnsAndValues(v any) (cols []string, vals []any) {
	rv := reflect.ValueOf(v)
	t := rv.Type()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		dbTag := f.Tag.Get("db")
		if dbTag == "" {
			continue
		}
		parts := strings.Split(dbTag, ",")
		col := parts[0]
		if col == "-" {
			continue
		}
		if len(parts) > 1 && strings.Contains(dbTag, "autoinc") {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, rv.Field(i).Interface())
	}
	return cols, vals
}

func insertSQL(table string, v any) (string, []any) {
	cols, vals := columnsAndValues(v)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return stmt, vals
}
