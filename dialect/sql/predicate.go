package sql

import (
	"time"

	"github.com/syssam/sqlbind"
)

// PredicateFunc is a constraint type for predicate functions.
// It allows generic field types to work with any predicate type that is
// based on func(*Where).
type PredicateFunc interface {
	~func(*Where)
}

// StringField is a string column carrying its storage metadata once, so
// call sites pass raw strings.
//
// Usage:
//
//	var PersonType = sql.NewStringField[sql.Predicate]("PersonType").FixedLength().WithLength(2)
//	sel.Where(PersonType.EQ("EM"))
//	sel.Where(LastName.Contains("mit"))
type StringField[P PredicateFunc] struct {
	name  string
	proto DbString
}

// NewStringField returns a wide, variable-length string field.
func NewStringField[P PredicateFunc](name string) StringField[P] {
	return StringField[P]{name: name}
}

// NewAnsiStringField returns a narrow, variable-length string field.
func NewAnsiStringField[P PredicateFunc](name string) StringField[P] {
	return StringField[P]{name: name, proto: AnsiString("")}
}

// Name returns the field name.
func (f StringField[P]) Name() string { return f.name }

// FixedLength returns a copy of f declared as fixed length.
func (f StringField[P]) FixedLength() StringField[P] {
	f.proto = f.proto.FixedLength()
	return f
}

// WithLength returns a copy of f with a declared length.
func (f StringField[P]) WithLength(n int) StringField[P] {
	f.proto = f.proto.WithLength(n)
	return f
}

// Value wraps v with the field's storage metadata.
func (f StringField[P]) Value(v string) DbString {
	return f.proto.withValue(v)
}

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[P]) EQ(v string) P { return f.match(OpEQ, v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P { return f.match(OpNEQ, v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField[P]) GT(v string) P { return f.match(OpGT, v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f StringField[P]) GTE(v string) P { return f.match(OpGTE, v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField[P]) LT(v string) P { return f.match(OpLT, v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f StringField[P]) LTE(v string) P { return f.match(OpLTE, v) }

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField[P]) HasPrefix(v string) P { return f.like(StartsWith, v) }

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField[P]) HasSuffix(v string) P { return f.like(EndsWith, v) }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField[P]) Contains(v string) P { return f.like(Contains, v) }

// Like returns a predicate matching the field against a caller-supplied pattern.
func (f StringField[P]) Like(pattern string) P { return f.like(ExactPattern, pattern) }

func (f StringField[P]) match(op Op, v string) P {
	return P(func(w *Where) {
		w.FieldMatch(f.name, op, f.Value(v))
	})
}

func (f StringField[P]) like(wc Wildcard, v string) P {
	return P(func(w *Where) {
		w.StringMatch(f.name, wc, f.Value(v))
	})
}

// TimeField is a temporal column of a fixed calendar kind.
//
//	var HireDate = sql.MustTimeField[sql.Predicate]("HireDate", sql.KindDate)
//	sel.Where(HireDate.Between(begin, end))
type TimeField[P PredicateFunc] struct {
	name string
	kind CalendarKind
}

// NewTimeField returns a temporal field. An unknown kind is a construction
// error.
func NewTimeField[P PredicateFunc](name string, kind CalendarKind) (TimeField[P], error) {
	if !kind.Valid() {
		return TimeField[P]{}, sqlbind.NewConstructionError(name, sqlbind.ErrUnknownCalendarKind)
	}
	return TimeField[P]{name: name, kind: kind}, nil
}

// MustTimeField is like NewTimeField but panics on error. It simplifies the
// declaration of package-level fields.
func MustTimeField[P PredicateFunc](name string, kind CalendarKind) TimeField[P] {
	f, err := NewTimeField[P](name, kind)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the field name.
func (f TimeField[P]) Name() string { return f.name }

// Kind returns the calendar kind of the field.
func (f TimeField[P]) Kind() CalendarKind { return f.kind }

// Value wraps t with the field's calendar kind. The zero TimeField yields an
// unresolved value, which the composer rejects.
func (f TimeField[P]) Value(t time.Time) DbDate {
	d, _ := NewDbDate(t, f.kind)
	return d
}

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField[P]) EQ(t time.Time) P { return f.match(OpEQ, t) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f TimeField[P]) NEQ(t time.Time) P { return f.match(OpNEQ, t) }

// GT returns a predicate that checks if the field is after the given value.
func (f TimeField[P]) GT(t time.Time) P { return f.match(OpGT, t) }

// GTE returns a predicate that checks if the field is at or after the given value.
func (f TimeField[P]) GTE(t time.Time) P { return f.match(OpGTE, t) }

// LT returns a predicate that checks if the field is before the given value.
func (f TimeField[P]) LT(t time.Time) P { return f.match(OpLT, t) }

// LTE returns a predicate that checks if the field is at or before the given value.
func (f TimeField[P]) LTE(t time.Time) P { return f.match(OpLTE, t) }

// Between returns a predicate that checks if the field lies in [begin, end].
func (f TimeField[P]) Between(begin, end time.Time) P {
	return P(func(w *Where) {
		w.FieldBetween(f.name, f.Value(begin), f.Value(end))
	})
}

func (f TimeField[P]) match(op Op, t time.Time) P {
	return P(func(w *Where) {
		w.FieldMatchDate(f.name, op, f.Value(t))
	})
}

// And returns a predicate applying all predicates in order.
func And(ps ...Predicate) Predicate {
	return func(w *Where) {
		w.Where(ps...)
	}
}
