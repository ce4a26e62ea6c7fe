package sql

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect"
)

// CacheKey returns the cache key of a statement rendered over source.
func CacheKey(source string, stmt Statement) sqlbind.CacheKey {
	return sqlbind.CacheKey{
		Source:      source,
		Operation:   "query",
		CommandText: stmt.CommandText,
		Args:        stmt.keyArgs(),
	}
}

// CachedQuery is like Query but serves results from c when the same
// statement, with the same parameter values, types and sizes, was executed
// within ttl. Rows are stored msgpack-encoded; T must be encodable.
//
// Cache failures never fail the query: read errors fall through to the
// database and write errors are logged.
func CachedQuery[T any](ctx context.Context, ex dialect.ExecQuerier, c sqlbind.Cache, ttl time.Duration, sel *Selector) ([]T, error) {
	stmt, err := sel.Render()
	if err != nil {
		return nil, err
	}
	k := CacheKey(sel.Table(), stmt)
	// Rows are stored encoded, so entries of different row types must not meet.
	k.Operation += ":" + reflect.TypeFor[T]().String()
	key := k.String()
	switch b, err := c.Get(ctx, key); {
	case err != nil:
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	case b != nil:
		var vs []T
		if err := msgpack.Unmarshal(b, &vs); err == nil {
			return vs, nil
		}
		slog.DebugContext(ctx, "discarding undecodable cache entry", "key", key)
	}
	vs, err := collect(stream[T](ctx, ex, sel.Table(), "query", stmt))
	if err != nil {
		return nil, err
	}
	b, err := msgpack.Marshal(vs)
	if err != nil {
		slog.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return vs, nil
	}
	if err := c.Set(ctx, key, b, ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return vs, nil
}

// InvalidateCache removes the cached results of every statement over table.
func InvalidateCache(ctx context.Context, c sqlbind.Cache, table string) error {
	return c.DeletePrefix(ctx, table+":")
}
