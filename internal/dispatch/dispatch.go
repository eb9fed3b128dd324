// Package dispatch drives one parsed line through the compiler
// pipeline: a query runs RESOLVE_ALIASES -> BUILD_IT -> GEN_SQL ->
// EXECUTE -> RESHAPE -> PRINT; \set and \alias only mutate settings.
// Any stage's error is returned to the caller to print and the REPL
// keeps going.
package dispatch

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/driver"
	"github.com/edanaher/scry/internal/lang"
	"github.com/edanaher/scry/internal/printer"
	"github.com/edanaher/scry/internal/reshape"
	"github.com/edanaher/scry/internal/resolve"
	"github.com/edanaher/scry/internal/scryerr"
	"github.com/edanaher/scry/internal/settings"
	"github.com/edanaher/scry/internal/sqlgen"
)

// Dispatcher holds everything a single command needs to run: the live
// catalog and settings (mutated only between commands, never during
// one — the REPL is single-threaded, so no lock is needed), the
// database connection, and a logger each run derives a per-command
// child from.
type Dispatcher struct {
	Cat *catalog.Catalog
	Set *settings.Settings
	DB  driver.DB
	Log *zap.Logger

	// Limit caps the number of rows a query's generated SQL requests; 0
	// (or negative) disables the cap.
	Limit int
}

// Run parses and executes one line of input, writing any query result
// to w. Every outcome — success or the specific stage that failed — is
// logged under a fresh correlation id.
func (d *Dispatcher) Run(ctx context.Context, w io.Writer, raw string) error {
	id := uuid.NewString()
	log := d.Log.With(zap.String("command_id", id))
	start := time.Now()

	line, err := lang.ParseLine(raw)
	if err != nil {
		log.Warn("parse failed", zap.Error(err), zap.String("input", raw))
		return err
	}

	switch {
	case line.Set != nil:
		err := d.Set.Set(line.Set.Name, line.Set.Value)
		log.Info("set", zap.String("name", line.Set.Name), zap.Error(err))
		return err
	case line.Alias != nil:
		err := d.Set.AddAlias(line.Alias.Name, line.Alias.HasAt, line.Alias.Table)
		log.Info("alias", zap.String("name", line.Alias.Name), zap.String("table", line.Alias.Table), zap.Error(err))
		return err
	case line.Query == nil || len(line.Query.Components) == 0:
		return nil
	}

	return d.runQuery(ctx, w, log, start, line.Query)
}

func (d *Dispatcher) runQuery(ctx context.Context, w io.Writer, log *zap.Logger, start time.Time, q *lang.Query) error {
	tree, err := resolve.Build(d.Cat, d.Set, q)
	if err != nil {
		log.Warn("resolve failed", zap.Error(err))
		return err
	}

	result, err := sqlgen.Generate(tree, d.Cat, d.Limit)
	if err != nil {
		log.Warn("sql generation failed", zap.Error(err))
		return err
	}
	if err := sqlgen.Validate(result.SQL); err != nil {
		log.Error("generated invalid SQL", zap.String("sql", result.SQL), zap.Error(err))
		return scryerr.Wrap(scryerr.KindDriver, err, "internal error: generated SQL failed to parse")
	}

	rows, err := d.execute(ctx, result)
	if err != nil {
		log.Warn("execute failed", zap.String("sql", result.SQL), zap.Error(err))
		return err
	}

	groups := reshape.Run(tree, result.Columns, rows)
	printer.Print(w, groups)

	log.Info("query ok",
		zap.String("sql", result.SQL),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// execute runs the compiled SELECT and scans every row into a slice of
// []any, one per result column, ready for reshape.Run.
func (d *Dispatcher) execute(ctx context.Context, result *sqlgen.Result) ([][]any, error) {
	rows, err := d.DB.QueryContext(ctx, result.SQL)
	if err != nil {
		return nil, scryerr.Driver(err)
	}
	defer rows.Close()

	n := len(result.Columns)
	var out [][]any
	for rows.Next() {
		vals := make([]any, n)
		ptrs := make([]any, n)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, scryerr.Driver(err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, scryerr.Driver(err)
	}
	return out, nil
}
