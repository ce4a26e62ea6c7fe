package sql

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/syssam/sqlbind/dialect"
)

// Selector is the root of a SELECT statement. It owns one Where clause and
// qualifies field names in its dialect.
//
//	s := sql.NewSelector(dialect.Postgres, "users").Columns("id", "name")
//	s.Where().FieldEquals("name", sql.String("a8m"))
//	stmt, err := s.Render()
//	// SELECT "id", "name" FROM users WHERE "name" = $1
type Selector struct {
	dialect string
	table   string
	alias   string
	columns []string
	orders  []string
	limit   *uint64
	offset  *uint64
	where   *Where
}

// NewSelector returns a selector over table in the given dialect.
func NewSelector(dialect, table string) *Selector {
	s := &Selector{dialect: dialect, table: table}
	s.where = NewWhere(s)
	return s
}

// Dialect returns the dialect of the selector.
func (s *Selector) Dialect() string { return s.dialect }

// Table returns the table name.
func (s *Selector) Table() string { return s.table }

// As sets the table alias. Qualified fields are prefixed with it.
func (s *Selector) As(alias string) *Selector {
	s.alias = alias
	return s
}

// Columns appends columns to the selection. Without columns, all columns
// are selected.
func (s *Selector) Columns(columns ...string) *Selector {
	s.columns = append(s.columns, columns...)
	return s
}

// OrderBy appends order terms. A term is a field name optionally followed by
// ASC or DESC, as returned by Asc and Desc.
func (s *Selector) OrderBy(terms ...string) *Selector {
	s.orders = append(s.orders, terms...)
	return s
}

// Limit sets the maximum number of rows.
func (s *Selector) Limit(n uint64) *Selector {
	s.limit = &n
	return s
}

// Offset sets the number of rows to skip.
func (s *Selector) Offset(n uint64) *Selector {
	s.offset = &n
	return s
}

// Where applies the predicates and returns the selector's where clause.
func (s *Selector) Where(ps ...Predicate) *Where {
	return s.where.Where(ps...)
}

// Asc returns an ascending order term.
func Asc(field string) string { return field + " ASC" }

// Desc returns a descending order term.
func Desc(field string) string { return field + " DESC" }

// QualifyField implements Root. Dotted names are quoted part by part, and
// the alias, if any, prefixes unqualified names.
func (s *Selector) QualifyField(field string) string {
	parts := strings.Split(field, ".")
	if s.alias != "" && len(parts) == 1 {
		parts = []string{s.alias, field}
	}
	for i, p := range parts {
		parts[i] = s.quote(p)
	}
	return strings.Join(parts, ".")
}

func (s *Selector) quote(ident string) string {
	switch s.dialect {
	case dialect.Postgres:
		return pq.QuoteIdentifier(ident)
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case dialect.SQLServer:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

func (s *Selector) from() string {
	if s.alias == "" {
		return s.table
	}
	return s.table + " AS " + s.quote(s.alias)
}

func (s *Selector) orderTerms() []string {
	terms := make([]string, len(s.orders))
	for i, t := range s.orders {
		field, dir := t, ""
		if j := strings.LastIndexByte(t, ' '); j > 0 {
			switch d := strings.ToUpper(t[j+1:]); d {
			case "ASC", "DESC":
				field, dir = t[:j], " "+d
			}
		}
		terms[i] = s.QualifyField(field) + dir
	}
	return terms
}

// whereSql adapts a Where to squirrel's Sqlizer. Parameters are bound on the
// binder, so no squirrel arguments are returned.
type whereSql struct {
	where  *Where
	binder *Binder
}

func (w whereSql) ToSql() (string, []any, error) {
	pred, err := w.where.Render(w.binder)
	return pred, nil, err
}

// Render renders the statement. Rendering does not change the selector, so
// rendering twice yields the same statement.
func (s *Selector) Render() (Statement, error) {
	b := NewBinder(s.dialect)
	columns := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if c == "*" {
			columns = append(columns, c)
			continue
		}
		columns = append(columns, s.QualifyField(c))
	}
	if len(columns) == 0 {
		columns = append(columns, "*")
	}
	q := sq.Select(columns...).From(s.from())
	if s.where.Len() > 0 {
		q = q.Where(whereSql{where: s.where, binder: b})
	} else if err := s.where.Err(); err != nil {
		return Statement{}, err
	}
	if len(s.orders) > 0 {
		q = q.OrderBy(s.orderTerms()...)
	}
	if s.dialect == dialect.SQLServer {
		// T-SQL has no LIMIT clause; paging requires ORDER BY.
		if s.limit != nil || s.offset != nil {
			if len(s.orders) == 0 {
				return Statement{}, fmt.Errorf("dialect/sql: %s paging requires ORDER BY", s.dialect)
			}
			q = q.Suffix(s.fetch())
		}
	} else {
		if s.limit != nil {
			q = q.Limit(*s.limit)
		}
		if s.offset != nil {
			q = q.Offset(*s.offset)
		}
	}
	text, _, err := q.ToSql()
	if err != nil {
		return Statement{}, err
	}
	return Statement{CommandText: text, Parameters: b.Parameters(), style: b.style}, nil
}

func (s *Selector) fetch() string {
	var offset uint64
	if s.offset != nil {
		offset = *s.offset
	}
	suffix := "OFFSET " + strconv.FormatUint(offset, 10) + " ROWS"
	if s.limit != nil {
		suffix += " FETCH NEXT " + strconv.FormatUint(*s.limit, 10) + " ROWS ONLY"
	}
	return suffix
}

// String returns the rendered statement, or the rendering error.
func (s *Selector) String() string {
	stmt, err := s.Render()
	if err != nil {
		return "dialect/sql: " + err.Error()
	}
	return stmt.String()
}

var _ Root = (*Selector)(nil)
