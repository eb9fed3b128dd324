package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/dispatch"
	"github.com/edanaher/scry/internal/driver"
	"github.com/edanaher/scry/internal/logutil"
	"github.com/edanaher/scry/internal/rcfile"
	"github.com/edanaher/scry/internal/replshell"
	"github.com/edanaher/scry/internal/settings"
)

func main() {
	var (
		command  = pflag.StringP("command", "c", "", "run a single query/command and exit, instead of starting the REPL")
		database = pflag.StringP("database", "d", "", "Postgres connection string")
		limit    = pflag.IntP("limit", "l", 100, "cap rows per query; 0 disables the cap")
		schema   = pflag.StringP("schema", "s", "scry", "schema to introspect and query against")
		verbose  = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	log, err := logutil.New(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scry: setting up logging:", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if *database == "" {
		fmt.Fprintln(os.Stderr, "scry: -d/--database is required")
		os.Exit(2)
	}

	if err := run(*command, *database, *schema, *limit, log); err != nil {
		log.Error("scry exited with an error", zap.Error(err))
		fmt.Fprintln(os.Stderr, "scry:", err)
		os.Exit(1)
	}
}

func run(command, dsn, schema string, limit int, log *zap.Logger) error {
	ctx := context.Background()

	db, err := driver.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := catalog.Load(ctx, db, []string{schema})
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	set := settings.New()
	set.SearchPath = []string{schema}

	d := &dispatch.Dispatcher{Cat: cat, Set: set, DB: db, Log: log, Limit: limit}

	if command != "" {
		return d.Run(ctx, os.Stdout, command)
	}

	if err := rcfile.Load(ctx, d, os.Stdout, rcfile.Path()); err != nil {
		fmt.Fprintln(os.Stderr, "scry:", err)
	}
	return replshell.Run(ctx, d)
}
