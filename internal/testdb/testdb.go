// Package testdb boots a disposable Postgres container (via
// testcontainers-go) once per test binary, migrates it with goose, and
// hands out an isolated schema per test so query-compiler tests can
// run against the real catalog-introspection and SQL-execution paths
// instead of fakes.
package testdb

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	bootOnce   sync.Once
	bootErr    error
	pg         *postgres.PostgresContainer
	connString string
)

// BootOnce starts the container and runs migrations; safe to call from
// every test since the container is shared process-wide and only the
// first call boots it.
func BootOnce(t *testing.T) {
	t.Helper()
	bootOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		bootErr = boot(ctx)
	})
	if bootErr != nil {
		t.Fatalf("testdb boot failed: %v", bootErr)
	}
}

func boot(ctx context.Context) error {
	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("scry_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("pass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return fmt.Errorf("starting container: %w", err)
	}
	pg = container

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return err
	}
	connString = fmt.Sprintf("postgres://postgres:pass@%s:%s/scry_test?sslmode=disable", host, port.Port())

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("opening admin connection: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS scry`); err != nil {
		return fmt.Errorf("creating scry schema: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// ShutdownNow terminates the shared container; call from a package's
// TestMain after m.Run().
func ShutdownNow() error {
	if pg == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pg.Terminate(ctx)
}

// Sandbox is one test's private, auto-dropped schema seeded with the
// same fixture tables, isolated from other tests by search_path.
type Sandbox struct {
	DB     *sql.DB
	Schema string
	Close  func()
}

// NewSandbox clones the scry schema's tables into a fresh schema named
// for this test run and returns a connection whose search_path is
// pinned to it.
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()
	if pg == nil {
		t.Fatalf("testdb not booted; call testdb.BootOnce(t) first")
	}

	admin, err := sql.Open("pgx", connString)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := fmt.Sprintf("t_%x_%x", time.Now().UnixNano(), randomSeed())
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA "`+schema+`"`); err != nil {
		t.Fatalf("create sandbox schema: %v", err)
	}
	if _, err := admin.ExecContext(ctx, cloneTablesSQL(schema)); err != nil {
		t.Fatalf("clone fixture tables: %v", err)
	}

	sbxDSN := withSearchPath(connString, schema)
	db, err := sql.Open("pgx", sbxDSN)
	if err != nil {
		t.Fatalf("open sandbox: %v", err)
	}

	sbx := &Sandbox{Schema: schema, DB: db}
	sbx.Close = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.ExecContext(ctx, `DROP SCHEMA IF EXISTS "`+schema+`" CASCADE`)
		_ = db.Close()
		_ = admin.Close()
	}
	t.Cleanup(sbx.Close)
	return sbx
}

// cloneTablesSQL copies every scry.* table (structure, rows, and
// unique/PK constraints) into the sandbox schema via CREATE TABLE ...
// LIKE ... INCLUDING ALL. LIKE never carries FOREIGN KEY constraints
// regardless of INCLUDING ALL, so the fixture's FK graph is re-added
// explicitly afterward — the catalog loader's FindJoin resolution
// depends on those edges actually existing in the sandbox schema, not
// just in scry.*.
func cloneTablesSQL(schema string) string {
	tables := []string{"authors", "series", "books", "series_books", "users", "favorites"}
	sql := ""
	for _, tbl := range tables {
		sql += fmt.Sprintf(
			`CREATE TABLE "%s".%s (LIKE scry.%s INCLUDING ALL); INSERT INTO "%s".%s SELECT * FROM scry.%s;`,
			schema, tbl, tbl, schema, tbl, tbl,
		)
	}
	for _, fk := range []string{
		`ALTER TABLE "%[1]s".books ADD FOREIGN KEY (author_id) REFERENCES "%[1]s".authors (id);`,
		`ALTER TABLE "%[1]s".books ADD FOREIGN KEY (series_id) REFERENCES "%[1]s".series (id);`,
		`ALTER TABLE "%[1]s".series_books ADD FOREIGN KEY (series_id) REFERENCES "%[1]s".series (id);`,
		`ALTER TABLE "%[1]s".series_books ADD FOREIGN KEY (book_id) REFERENCES "%[1]s".books (id);`,
		`ALTER TABLE "%[1]s".favorites ADD FOREIGN KEY (user_id) REFERENCES "%[1]s".users (id);`,
		`ALTER TABLE "%[1]s".favorites ADD FOREIGN KEY (book_id) REFERENCES "%[1]s".books (id);`,
	} {
		sql += fmt.Sprintf(fk, schema)
	}
	return sql
}

func withSearchPath(base, schema string) string {
	u, _ := url.Parse(base)
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s", schema))
	u.RawQuery = q.Encode()
	return u.String()
}

func randomSeed() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}
