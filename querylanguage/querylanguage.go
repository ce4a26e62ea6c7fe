// Package querylanguage decodes YAML query definitions into selectors.
//
// A definition names a table, its columns and ordering, and a list of
// conditions that are joined with AND:
//
//	table: Person.Person
//	select: [BusinessEntityID, FirstName, LastName]
//	order_by: [BusinessEntityID]
//	where:
//	  - field: PersonType
//	    value: EM
//	    type: AnsiString
//	    fixed: true
//	    length: 2
//	  - field: ModifiedDate
//	    type: Date
//	    between: {from: "2009-01-01", to: "2009-12-31"}
//	  - field: LastName
//	    match: prefix
//	    value: Sm
//
// Every condition is applied through the composer of package sql, so
// values are bound as parameters with their declared storage type.
package querylanguage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlbind/dialect/sql"
)

// Definition is a query read from YAML.
type Definition struct {
	Table   string      `yaml:"table"`
	Alias   string      `yaml:"alias,omitempty"`
	Dialect string      `yaml:"dialect,omitempty"`
	Select  []string    `yaml:"select,omitempty"`
	OrderBy []string    `yaml:"order_by,omitempty"`
	Limit   *uint64     `yaml:"limit,omitempty"`
	Offset  *uint64     `yaml:"offset,omitempty"`
	Where   []Condition `yaml:"where,omitempty"`
}

// Condition is a single predicate of a definition. Exactly one of Op,
// Match and Between selects its shape; a condition with none of them
// is an equality.
type Condition struct {
	Field   string `yaml:"field"`
	Op      string `yaml:"op,omitempty"`
	Match   string `yaml:"match,omitempty"`
	Between *Range `yaml:"between,omitempty"`
	Value   string `yaml:"value,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Fixed   bool   `yaml:"fixed,omitempty"`
	Length  *int   `yaml:"length,omitempty"`
}

// Range holds the inclusive bounds of a between condition.
type Range struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Layouts accepted for temporal values, tried in order.
var Layouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Parse decodes a definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Definition
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("querylanguage: decode: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseFile reads and decodes the definition stored at path.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("querylanguage: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Validate checks the shape of the definition without building it.
func (d *Definition) Validate() error {
	if d.Table == "" {
		return errors.New("querylanguage: missing table")
	}
	var errs []error
	for i, c := range d.Where {
		if err := c.validate(); err != nil {
			errs = append(errs, fmt.Errorf("querylanguage: where[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Build returns a selector for the definition. A non-empty dialect
// overrides the one declared in the definition.
func (d *Definition) Build(dialect string) (*sql.Selector, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if dialect == "" {
		dialect = d.Dialect
	}
	if dialect == "" {
		return nil, fmt.Errorf("querylanguage: no dialect for table %s", d.Table)
	}
	s := sql.NewSelector(dialect, d.Table).As(d.Alias).Columns(d.Select...).OrderBy(d.OrderBy...)
	if d.Limit != nil {
		s.Limit(*d.Limit)
	}
	if d.Offset != nil {
		s.Offset(*d.Offset)
	}
	for i, c := range d.Where {
		if err := c.Apply(s.Where()); err != nil {
			return nil, fmt.Errorf("querylanguage: where[%d]: %w", i, err)
		}
	}
	return s, nil
}

// String returns the conditions of the definition joined with AND.
func (d *Definition) String() string {
	parts := make([]string, len(d.Where))
	for i, c := range d.Where {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

func (c Condition) validate() error {
	if c.Field == "" {
		return errors.New("missing field")
	}
	shapes := 0
	for _, set := range []bool{c.Op != "", c.Match != "", c.Between != nil} {
		if set {
			shapes++
		}
	}
	if shapes > 1 {
		return fmt.Errorf("field %s: op, match and between are exclusive", c.Field)
	}
	if c.Length != nil && *c.Length < 0 {
		return fmt.Errorf("field %s: negative length %d", c.Field, *c.Length)
	}
	return nil
}

// Apply adds the condition to w. Errors reported by the composer are
// returned as well as decoding errors.
func (c Condition) Apply(w *sql.Where) error {
	if err := c.validate(); err != nil {
		return err
	}
	failed := w.Err()
	kind, temporal := c.kind()
	switch {
	case c.Between != nil:
		if !temporal {
			return fmt.Errorf("field %s: between requires a temporal type", c.Field)
		}
		begin, err := c.date(c.Between.From, kind)
		if err != nil {
			return err
		}
		end, err := c.date(c.Between.To, kind)
		if err != nil {
			return err
		}
		w.FieldBetween(c.Field, begin, end)
	case c.Match != "":
		if temporal {
			return fmt.Errorf("field %s: match requires a string type", c.Field)
		}
		wc, err := sql.ParseWildcard(c.Match)
		if err != nil {
			return err
		}
		v, err := c.str()
		if err != nil {
			return err
		}
		w.StringMatch(c.Field, wc, v)
	default:
		op := sql.OpEQ
		if c.Op != "" {
			var err error
			if op, err = sql.ParseOp(c.Op); err != nil {
				return err
			}
		}
		if temporal {
			v, err := c.date(c.Value, kind)
			if err != nil {
				return err
			}
			w.FieldMatchDate(c.Field, op, v)
			break
		}
		v, err := c.str()
		if err != nil {
			return err
		}
		w.FieldMatch(c.Field, op, v)
	}
	if err := w.Err(); err != nil && failed == nil {
		return err
	}
	return nil
}

// kind reports whether the condition is temporal, and its calendar kind.
func (c Condition) kind() (sql.CalendarKind, bool) {
	k, err := sql.ParseCalendarKind(c.Type)
	return k, err == nil
}

// str builds the string value with its width, length and fixed flags.
func (c Condition) str() (sql.DbString, error) {
	v := sql.String(c.Value)
	switch t := strings.ToLower(c.Type); {
	case t == "", t == "string":
	case t == "ansi", t == "ansistring", t == "varchar":
		v = sql.AnsiString(c.Value)
	default:
		typ, err := sql.ParseDbType(c.Type)
		if err != nil || !typ.IsString() {
			return sql.DbString{}, fmt.Errorf("field %s: unknown type %q", c.Field, c.Type)
		}
		if typ == sql.TypeAnsiString || typ == sql.TypeAnsiStringFixedLength {
			v = sql.AnsiString(c.Value)
		}
		if typ == sql.TypeAnsiStringFixedLength || typ == sql.TypeStringFixedLength {
			v = v.FixedLength()
		}
	}
	if c.Fixed {
		v = v.FixedLength()
	}
	if c.Length != nil {
		v = v.WithLength(*c.Length)
	}
	if err := v.Validate(); err != nil {
		return sql.DbString{}, fmt.Errorf("field %s: %w", c.Field, err)
	}
	return v, nil
}

func (c Condition) date(s string, kind sql.CalendarKind) (sql.DbDate, error) {
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NewDbDate(t, kind)
		}
	}
	return sql.DbDate{}, fmt.Errorf("field %s: invalid %s value %q", c.Field, kind, s)
}

// String returns a readable form of the condition.
func (c Condition) String() string {
	switch {
	case c.Between != nil:
		return fmt.Sprintf("%s BETWEEN %s AND %s", c.Field, strconv.Quote(c.Between.From), strconv.Quote(c.Between.To))
	case c.Match != "":
		if wc, err := sql.ParseWildcard(c.Match); err == nil {
			return fmt.Sprintf("%s LIKE %s", c.Field, strconv.Quote(wc.Decorate(c.Value)))
		}
		return fmt.Sprintf("%s LIKE %s", c.Field, strconv.Quote(c.Value))
	}
	sym := "="
	if op, err := sql.ParseOp(c.Op); err == nil {
		sym = op.Symbol()
	}
	return fmt.Sprintf("%s %s %s", c.Field, sym, strconv.Quote(c.Value))
}
