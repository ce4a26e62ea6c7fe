package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlbind"
)

// Predicate is a reusable piece of where clause composition.
type Predicate func(*Where)

// Where is an append-only list of filters joined with AND. It belongs to a
// single root and is not safe for concurrent mutation.
//
// Every composition method returns the receiver for chaining. A call given
// invalid input appends nothing; the error is kept and reported by Err and
// by Render.
type Where struct {
	root    Root
	filters []Filter
	errs    []error
}

// NewWhere returns an empty where clause for root.
func NewWhere(root Root) *Where {
	return &Where{root: root}
}

// Root returns the root the clause belongs to.
func (w *Where) Root() Root { return w.root }

// FieldEquals appends `field = value`.
func (w *Where) FieldEquals(field string, v DbString) *Where {
	return w.FieldMatch(field, OpEQ, v)
}

// FieldMatch appends `field <op> value`, bound with the storage type and
// size resolved from v.
func (w *Where) FieldMatch(field string, op Op, v DbString) *Where {
	f, err := NewCompareFilter(w.root, field, op, v.DbType(), v.Value())
	if err != nil {
		return w.fail(err)
	}
	if n := v.Size(); n >= 0 {
		f.size = n
	}
	return w.AddFilter(f)
}

// FieldMatchDate appends `field <op> value` for a temporal value.
func (w *Where) FieldMatchDate(field string, op Op, v DbDate) *Where {
	f, err := w.dateFilter(field, op, v)
	if err != nil {
		return w.fail(err)
	}
	return w.AddFilter(f)
}

// FieldBetween appends `field >= begin` and `field <= end`. Nothing is
// appended if either bound is invalid or the bounds differ in calendar
// kind. The bound values are not compared.
func (w *Where) FieldBetween(field string, begin, end DbDate) *Where {
	if begin.valid() && end.valid() && begin.kind != end.kind {
		return w.fail(sqlbind.NewConstructionError(field,
			fmt.Errorf("%w: %s and %s", sqlbind.ErrCalendarKindMismatch, begin.kind, end.kind)))
	}
	lo, err := w.dateFilter(field, OpGTE, begin)
	if err != nil {
		return w.fail(err)
	}
	hi, err := w.dateFilter(field, OpLTE, end)
	if err != nil {
		return w.fail(err)
	}
	return w.AddFilter(lo).AddFilter(hi)
}

func (w *Where) dateFilter(field string, op Op, v DbDate) (*CompareFilter, error) {
	if !v.valid() {
		return nil, sqlbind.NewConstructionError(field, sqlbind.ErrUnknownCalendarKind)
	}
	return NewCompareFilter(w.root, field, op, v.DbType(), v.Value())
}

// StringMatch appends `field LIKE pattern` where pattern is v decorated
// with wc.
func (w *Where) StringMatch(field string, wc Wildcard, v DbString) *Where {
	f, err := NewStringMatchFilter(w.root, field, wc, v.DbType(), v.Value())
	if err != nil {
		return w.fail(err)
	}
	if n := v.Size(); n >= 0 {
		f.size = n
	}
	return w.AddFilter(f)
}

// AddFilter appends f. Filters of this package stop accepting refinements
// once added. A nil filter is ignored.
func (w *Where) AddFilter(f Filter) *Where {
	if f == nil {
		return w
	}
	if s, ok := f.(sealer); ok {
		s.seal()
	}
	w.filters = append(w.filters, f)
	return w
}

// Where applies the predicates in order.
func (w *Where) Where(ps ...Predicate) *Where {
	for _, p := range ps {
		p(w)
	}
	return w
}

// Filters returns the filters in append order.
func (w *Where) Filters() []Filter {
	return append([]Filter(nil), w.filters...)
}

// Len returns the number of filters.
func (w *Where) Len() int { return len(w.filters) }

// Err returns the errors of rejected composition calls.
func (w *Where) Err() error {
	return sqlbind.NewAggregateError(w.errs...)
}

func (w *Where) fail(err error) *Where {
	w.errs = append(w.errs, err)
	return w
}

// Render renders the filters in append order joined with AND, binding their
// parameters on b. An empty clause renders as the empty string.
func (w *Where) Render(b *Binder) (string, error) {
	if err := w.Err(); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(w.filters))
	for _, f := range w.filters {
		s, err := f.Render(b)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}
