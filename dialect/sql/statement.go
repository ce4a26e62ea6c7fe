package sql

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/syssam/sqlbind/dialect"
)

// Parameter is a bound parameter of a rendered statement.
type Parameter struct {
	Name  string // Unique within the statement: p1, p2, ...
	Type  DbType
	Size  int // -1 when the driver infers the size from the value
	Value any
}

// String implements fmt.Stringer.
func (p Parameter) String() string {
	if p.Size >= 0 {
		return fmt.Sprintf("%s %s(%d) = %v", p.Name, p.Type, p.Size, p.Value)
	}
	return fmt.Sprintf("%s %s = %v", p.Name, p.Type, p.Value)
}

// Binder hands out parameter names and placeholders while a statement is
// rendered. Names are sequential and 1-based, so a statement never holds two
// parameters with the same name.
type Binder struct {
	style  int
	params []Parameter
}

// NewBinder returns a binder using the placeholder style of the dialect.
func NewBinder(dialectName string) *Binder {
	return &Binder{style: bindStyle(dialectName)}
}

// bindStyle returns the sqlx bind type for the dialect. SQLite is bound by
// name since the driver accepts sql.Named arguments, which keeps a parameter
// and its placeholder visibly paired in the command text.
func bindStyle(name string) int {
	switch name {
	case dialect.SQLite, dialect.SQLServer:
		return sqlx.AT
	}
	if style := sqlx.BindType(name); style != sqlx.UNKNOWN {
		return style
	}
	return sqlx.AT
}

// Bind records a parameter and returns its placeholder.
func (b *Binder) Bind(typ DbType, size int, value any) string {
	n := len(b.params) + 1
	name := "p" + strconv.Itoa(n)
	b.params = append(b.params, Parameter{Name: name, Type: typ, Size: size, Value: value})
	switch b.style {
	case sqlx.DOLLAR:
		return "$" + strconv.Itoa(n)
	case sqlx.QUESTION:
		return "?"
	case sqlx.NAMED:
		return ":" + name
	default:
		return "@" + name
	}
}

// Len returns the number of bound parameters.
func (b *Binder) Len() int { return len(b.params) }

// Parameters returns a copy of the bound parameters in bind order.
func (b *Binder) Parameters() []Parameter {
	return append([]Parameter(nil), b.params...)
}

// Statement is a rendered command: its text and the parameters bound to it,
// in placeholder order. A Statement is not modified after rendering and is
// safe for concurrent reads.
type Statement struct {
	CommandText string
	Parameters  []Parameter
	style       int
}

// Named reports whether the statement binds parameters by name.
func (s Statement) Named() bool {
	return s.style == sqlx.AT || s.style == sqlx.NAMED
}

// Args returns the arguments to pass to database/sql: sql.Named values for
// named placeholders, plain values in order otherwise.
func (s Statement) Args() []any {
	args := make([]any, len(s.Parameters))
	for i, p := range s.Parameters {
		if s.Named() {
			args[i] = sql.Named(p.Name, p.Value)
		} else {
			args[i] = p.Value
		}
	}
	return args
}

// keyArgs flattens the parameters for cache keys. Types and sizes are part of
// the key since they change how the database compares values.
func (s Statement) keyArgs() []any {
	args := make([]any, 0, len(s.Parameters)*4)
	for _, p := range s.Parameters {
		args = append(args, p.Name, p.Type.String(), p.Size, p.Value)
	}
	return args
}

// String returns the command text followed by the parameters.
func (s Statement) String() string {
	if len(s.Parameters) == 0 {
		return s.CommandText
	}
	var b strings.Builder
	b.WriteString(s.CommandText)
	b.WriteString(" [")
	for i, p := range s.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString("]")
	return b.String()
}
