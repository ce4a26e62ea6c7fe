// Package sqlerr classifies the errors databases return for rendered
// statements, independent of the driver that raised them.
package sqlerr

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind is the class of a statement error.
type Kind int

// Error kinds.
const (
	Other Kind = iota
	UndefinedColumn
	UndefinedTable
	Syntax
	Truncation
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case UndefinedColumn:
		return "undefined column"
	case UndefinedTable:
		return "undefined table"
	case Syntax:
		return "syntax error"
	case Truncation:
		return "truncation"
	case TypeMismatch:
		return "type mismatch"
	default:
		return "other"
	}
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL condition names, as returned by pq.ErrorCode.Name.
var pgKinds = map[string]Kind{
	"undefined_column":             UndefinedColumn,
	"undefined_table":              UndefinedTable,
	"syntax_error":                 Syntax,
	"string_data_right_truncation": Truncation,
	"invalid_text_representation":  TypeMismatch,
	"invalid_datetime_format":      TypeMismatch,
	"datatype_mismatch":            TypeMismatch,
	"undefined_function":           TypeMismatch, // operator does not exist: text = integer
}

// MySQL error numbers.
var mysqlKinds = map[uint16]Kind{
	1054: UndefinedColumn, // ER_BAD_FIELD_ERROR
	1146: UndefinedTable,  // ER_NO_SUCH_TABLE
	1064: Syntax,          // ER_PARSE_ERROR
	1406: Truncation,      // ER_DATA_TOO_LONG
	1292: TypeMismatch,    // ER_TRUNCATED_WRONG_VALUE
	1366: TypeMismatch,    // ER_TRUNCATED_WRONG_VALUE_FOR_FIELD, e.g. a character the column charset lacks
}

// Classify returns the kind of err. Driver error types are inspected first;
// errors of other drivers fall back to message matching.
func Classify(err error) Kind {
	if err == nil {
		return Other
	}
	if e, ok := asError[*pq.Error](err); ok {
		return pgKinds[e.Code.Name()]
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return mysqlKinds[e.Number]
	}
	if e, ok := asError[sqlStateError](err); ok {
		if k, ok := pgKinds[pq.ErrorCode(e.SQLState()).Name()]; ok {
			return k
		}
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		switch e.Code() & 0xff {
		case sqlite3.SQLITE_MISMATCH:
			return TypeMismatch
		case sqlite3.SQLITE_TOOBIG:
			return Truncation
		}
	}
	// SQLite reports most statement errors as SQLITE_ERROR with a message.
	msg := err.Error()
	switch {
	case containsAny(msg, "no such column", "Unknown column", "Invalid column name"),
		strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"):
		return UndefinedColumn
	case containsAny(msg, "no such table", "doesn't exist", "Invalid object name"),
		strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"):
		return UndefinedTable
	case containsAny(msg, "syntax error", "Incorrect syntax", "incomplete input"):
		return Syntax
	case containsAny(msg, "datatype mismatch", "Conversion failed"):
		return TypeMismatch
	case containsAny(msg, "would be truncated", "too long"):
		return Truncation
	}
	return Other
}

// IsUndefinedColumn reports whether err was raised for a column that does not exist.
func IsUndefinedColumn(err error) bool { return Classify(err) == UndefinedColumn }

// IsUndefinedTable reports whether err was raised for a table that does not exist.
func IsUndefinedTable(err error) bool { return Classify(err) == UndefinedTable }

// IsSyntax reports whether err is a syntax error.
func IsSyntax(err error) bool { return Classify(err) == Syntax }

// IsTruncation reports whether a bound value was too long for its column or parameter.
func IsTruncation(err error) bool { return Classify(err) == Truncation }

// IsTypeMismatch reports whether a bound value could not be compared with or
// converted to the column type.
func IsTypeMismatch(err error) bool { return Classify(err) == TypeMismatch }

// asError attempts to extract an error of type T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
