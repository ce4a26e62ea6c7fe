package sql

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/syssam/sqlbind"
)

// DbString is a string value together with the metadata needed to resolve
// its storage type: character width, fixed or variable length, and an
// optional declared length. The zero value is a wide, variable-length empty
// string with no declared length.
//
//	sql.AnsiString("EM").FixedLength().WithLength(2) // AnsiStringFixedLength, size 2
//	sql.String("Smith")                              // String, size inferred by the driver
type DbString struct {
	value  string
	ansi   bool
	fixed  bool
	length int
	sized  bool
}

// String returns a wide (Unicode) variable-length string value.
func String(v string) DbString {
	return DbString{value: v}
}

// AnsiString returns a narrow (non-Unicode) variable-length string value.
func AnsiString(v string) DbString {
	return DbString{value: v, ansi: true}
}

// FixedLength returns a copy of s declared as fixed length.
func (s DbString) FixedLength() DbString {
	s.fixed = true
	return s
}

// WithLength returns a copy of s with the declared length n. A negative n
// clears the declared length, leaving the size to the driver.
func (s DbString) WithLength(n int) DbString {
	s.length, s.sized = n, n >= 0
	if !s.sized {
		s.length = 0
	}
	return s
}

// Value returns the raw string.
func (s DbString) Value() string { return s.value }

// IsAnsi reports whether s is a narrow string.
func (s DbString) IsAnsi() bool { return s.ansi }

// IsFixedLength reports whether s is declared fixed length.
func (s DbString) IsFixedLength() bool { return s.fixed }

// DbType resolves the storage type of s.
func (s DbString) DbType() DbType {
	switch {
	case s.ansi && s.fixed:
		return TypeAnsiStringFixedLength
	case s.ansi:
		return TypeAnsiString
	case s.fixed:
		return TypeStringFixedLength
	default:
		return TypeString
	}
}

// Size returns the declared length, or -1 if none was declared.
func (s DbString) Size() int {
	if !s.sized {
		return -1
	}
	return s.length
}

// Validate reports an error wrapping sqlbind.ErrNotNarrow if s is narrow and
// holds characters outside the Windows-1252 code page.
func (s DbString) Validate() error {
	if !s.ansi {
		return nil
	}
	if _, err := charmap.Windows1252.NewEncoder().String(s.value); err != nil {
		return fmt.Errorf("%w: %q", sqlbind.ErrNotNarrow, s.value)
	}
	return nil
}

// withValue returns a copy of s holding v.
func (s DbString) withValue(v string) DbString {
	s.value = v
	return s
}

// GoString implements fmt.GoStringer.
func (s DbString) GoString() string {
	return fmt.Sprintf("sql.DbString{%q %s size=%d}", s.value, s.DbType(), s.Size())
}

// CalendarKind selects the storage type of a temporal value.
type CalendarKind int

// Calendar kinds. The zero value is not a valid kind.
const (
	KindDate CalendarKind = iota + 1
	KindDateTime
	KindDateTimeOffset
)

// String returns the kind name.
func (k CalendarKind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindDateTimeOffset:
		return "datetimeoffset"
	default:
		return fmt.Sprintf("CalendarKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k CalendarKind) Valid() bool {
	return k >= KindDate && k <= KindDateTimeOffset
}

// DbType returns the storage type selected by k.
func (k CalendarKind) DbType() (DbType, error) {
	switch k {
	case KindDate:
		return TypeDate, nil
	case KindDateTime:
		return TypeDateTime, nil
	case KindDateTimeOffset:
		return TypeDateTimeOffset, nil
	default:
		return TypeUnknown, fmt.Errorf("%w: %d", sqlbind.ErrUnknownCalendarKind, int(k))
	}
}

// ParseCalendarKind parses a kind name. It accepts the names returned by
// CalendarKind.String and the storage type names ("Date", "DateTime", ...).
func ParseCalendarKind(s string) (CalendarKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date":
		return KindDate, nil
	case "datetime", "timestamp":
		return KindDateTime, nil
	case "datetimeoffset", "timestamptz":
		return KindDateTimeOffset, nil
	}
	return 0, fmt.Errorf("%w: %q", sqlbind.ErrUnknownCalendarKind, s)
}

// DbDate is a temporal value tagged with its calendar kind. Date values are
// normalized to midnight in their location. The zero value is unresolved and
// is rejected by the composer.
type DbDate struct {
	value time.Time
	kind  CalendarKind
	typ   DbType
}

// NewDbDate returns a temporal value of the given kind. An unknown kind is a
// construction error wrapping sqlbind.ErrUnknownCalendarKind.
func NewDbDate(t time.Time, kind CalendarKind) (DbDate, error) {
	typ, err := kind.DbType()
	if err != nil {
		return DbDate{}, sqlbind.NewConstructionError("", err)
	}
	if kind == KindDate {
		y, m, d := t.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	return DbDate{value: t, kind: kind, typ: typ}, nil
}

// Date returns a date-only value.
func Date(t time.Time) DbDate {
	d, _ := NewDbDate(t, KindDate)
	return d
}

// DateTime returns a timestamp value.
func DateTime(t time.Time) DbDate {
	d, _ := NewDbDate(t, KindDateTime)
	return d
}

// DateTimeOffset returns a timestamp-with-offset value.
func DateTimeOffset(t time.Time) DbDate {
	d, _ := NewDbDate(t, KindDateTimeOffset)
	return d
}

// Value returns the time value.
func (d DbDate) Value() time.Time { return d.value }

// Kind returns the calendar kind.
func (d DbDate) Kind() CalendarKind { return d.kind }

// DbType returns the resolved storage type, or TypeUnknown for the zero value.
func (d DbDate) DbType() DbType { return d.typ }

// valid reports whether d was built by a constructor.
func (d DbDate) valid() bool { return d.typ.Resolved() }
