package sql

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"reflect"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect"
)

// mapper maps struct fields to columns by their `db` tag, falling back to the
// lowercased field name.
var mapper = reflectx.NewMapperFunc("db", sqlx.NameMapper)

var (
	scannerType = reflect.TypeFor[sql.Scanner]()
	timeType    = reflect.TypeFor[time.Time]()
)

// Query renders sel, executes it and maps every row into T. T is a struct
// mapped by `db` tags, a map[string]any, or any type the driver can scan a
// single column into.
func Query[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector) ([]T, error) {
	stmt, err := sel.Render()
	if err != nil {
		return nil, err
	}
	return collect(stream[T](ctx, ex, sel.Table(), "query", stmt))
}

// QuerySingle returns the only row of the result. It fails with a
// sqlbind.NotFoundError when there are no rows and with a
// sqlbind.NotSingularError when there are several.
func QuerySingle[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector) (T, error) {
	return single[T](ctx, ex, sel, "single", false)
}

// QuerySingleOrDefault is like QuerySingle but returns the zero value of T
// when there are no rows.
func QuerySingleOrDefault[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector) (T, error) {
	return single[T](ctx, ex, sel, "single_or_default", true)
}

// QueryFirst returns the first row of the result, or a sqlbind.NotFoundError
// when there are no rows. Remaining rows are not read.
func QueryFirst[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector) (T, error) {
	return first[T](ctx, ex, sel, "first", false)
}

// QueryFirstOrDefault is like QueryFirst but returns the zero value of T
// when there are no rows.
func QueryFirstOrDefault[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector) (T, error) {
	return first[T](ctx, ex, sel, "first_or_default", true)
}

// Stream renders sel and yields rows as they are read. Stopping the
// iteration closes the rows. A failure is yielded once as the last element.
//
//	for p, err := range sql.Stream[Person](ctx, drv, sel) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(p.LastName)
//	}
func Stream[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector) iter.Seq2[T, error] {
	stmt, err := sel.Render()
	if err != nil {
		return func(yield func(T, error) bool) {
			var zero T
			yield(zero, err)
		}
	}
	return stream[T](ctx, ex, sel.Table(), "stream", stmt)
}

func single[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector, op string, orDefault bool) (T, error) {
	var zero T
	stmt, err := sel.Render()
	if err != nil {
		return zero, err
	}
	vs, err := collect(stream[T](ctx, ex, sel.Table(), op, stmt))
	if err != nil {
		return zero, err
	}
	switch len(vs) {
	case 0:
		if orDefault {
			return zero, nil
		}
		return zero, sqlbind.NewNotFoundError(sel.Table())
	case 1:
		return vs[0], nil
	default:
		return zero, sqlbind.NewNotSingularErrorWithCount(sel.Table(), len(vs))
	}
}

func first[T any](ctx context.Context, ex dialect.ExecQuerier, sel *Selector, op string, orDefault bool) (T, error) {
	var zero T
	stmt, err := sel.Render()
	if err != nil {
		return zero, err
	}
	for v, err := range stream[T](ctx, ex, sel.Table(), op, stmt) {
		if err != nil {
			return zero, err
		}
		return v, nil
	}
	if orDefault {
		return zero, nil
	}
	return zero, sqlbind.NewNotFoundError(sel.Table())
}

func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var vs []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func stream[T any](ctx context.Context, ex dialect.ExecQuerier, source, op string, stmt Statement) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		var rows Rows
		if err := ex.Query(ctx, stmt.CommandText, stmt.Args(), &rows); err != nil {
			yield(zero, sqlbind.NewQueryError(source, op, err))
			return
		}
		defer rows.Close()
		scan, err := scanner[T](rows)
		if err != nil {
			yield(zero, sqlbind.NewQueryError(source, op, err))
			return
		}
		for rows.Next() {
			var v T
			if err := scan(&v); err != nil {
				yield(zero, sqlbind.NewQueryError(source, op, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, sqlbind.NewQueryError(source, op, err))
		}
	}
}

// scanner returns the function scanning the current row into a T.
func scanner[T any](rows Rows) (func(*T) error, error) {
	if _, ok := any(*new(T)).(map[string]any); ok {
		return func(v *T) error {
			m := make(map[string]any)
			if err := sqlx.MapScan(rows, m); err != nil {
				return err
			}
			*v = any(m).(T)
			return nil
		}, nil
	}
	t := reflect.TypeFor[T]()
	if scannable(t) {
		return func(v *T) error { return rows.Scan(v) }, nil
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	traversals := mapper.TraversalsByName(t, columns)
	for i, idx := range traversals {
		if len(idx) == 0 {
			return nil, fmt.Errorf("dialect/sql: missing destination name %s in %s", columns[i], t)
		}
	}
	fields := make([]nullField, len(columns))
	dests := make([]any, len(columns))
	return func(v *T) error {
		rv := reflect.ValueOf(v).Elem()
		for i, idx := range traversals {
			dests[i] = fields[i].dest(reflectx.FieldByIndexes(rv, idx))
		}
		if err := rows.Scan(dests...); err != nil {
			return err
		}
		for i := range fields {
			fields[i].set()
		}
		return nil
	}, nil
}

// nullField is the scan destination of a struct field. A NULL column leaves
// the field at its zero value: pointers stay nil, scanners are not called and
// plain values are scanned through a pointer that is copied when set.
type nullField struct {
	field reflect.Value
	ptr   reflect.Value
}

func (f *nullField) dest(field reflect.Value) any {
	f.field, f.ptr = field, reflect.Value{}
	addr := field.Addr()
	switch {
	case field.Kind() == reflect.Pointer:
		return addr.Interface()
	case addr.Type().Implements(scannerType):
		return &NullScanner{S: addr.Interface().(sql.Scanner)}
	default:
		f.ptr = reflect.New(addr.Type())
		return f.ptr.Interface()
	}
}

func (f *nullField) set() {
	if f.ptr.IsValid() && !f.ptr.Elem().IsNil() {
		f.field.Set(f.ptr.Elem().Elem())
	}
}

// scannable reports whether values of t are scanned directly rather than
// mapped field by field.
func scannable(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	return t.Kind() != reflect.Struct || t == timeType
}
