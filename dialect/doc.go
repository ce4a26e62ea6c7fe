// Package dialect names the database dialects statements are rendered for and
// defines the driver interfaces used to execute them.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL, positional $N placeholders
//   - MySQL: MySQL/MariaDB, positional ? placeholders
//   - SQLite: SQLite, named @pN placeholders
//   - SQLServer: Microsoft SQL Server, named @pN placeholders
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface carries the same Exec and Query methods together with
// Commit and Rollback. Both are ExecQuerier implementations, so the query
// helpers in dialect/sql accept either.
//
// # Usage
//
//	import (
//	    "github.com/syssam/sqlbind/dialect"
//	    "github.com/syssam/sqlbind/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
