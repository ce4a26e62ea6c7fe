package sql

import (
	"fmt"
	"strings"
)

// DbType is the storage type a parameter is bound as.
type DbType int

// Storage types.
const (
	// TypeUnknown marks a filter whose storage type was never resolved.
	// Filters in this state cannot be rendered.
	TypeUnknown DbType = iota
	TypeAnsiString
	TypeAnsiStringFixedLength
	TypeString
	TypeStringFixedLength
	TypeDate
	TypeDateTime
	TypeDateTimeOffset
)

var dbTypeNames = [...]string{
	TypeUnknown:               "Unknown",
	TypeAnsiString:            "AnsiString",
	TypeAnsiStringFixedLength: "AnsiStringFixedLength",
	TypeString:                "String",
	TypeStringFixedLength:     "StringFixedLength",
	TypeDate:                  "Date",
	TypeDateTime:              "DateTime",
	TypeDateTimeOffset:        "DateTimeOffset",
}

// String returns the type name.
func (t DbType) String() string {
	if t < 0 || int(t) >= len(dbTypeNames) {
		return fmt.Sprintf("DbType(%d)", int(t))
	}
	return dbTypeNames[t]
}

// Resolved reports whether t is a concrete storage type.
func (t DbType) Resolved() bool {
	return t > TypeUnknown && int(t) < len(dbTypeNames)
}

// IsString reports whether t is one of the character types.
func (t DbType) IsString() bool {
	switch t {
	case TypeAnsiString, TypeAnsiStringFixedLength, TypeString, TypeStringFixedLength:
		return true
	}
	return false
}

// ParseDbType parses a type name as returned by DbType.String. Matching is
// case-insensitive.
func ParseDbType(s string) (DbType, error) {
	for t, name := range dbTypeNames {
		if DbType(t).Resolved() && strings.EqualFold(name, s) {
			return DbType(t), nil
		}
	}
	return TypeUnknown, fmt.Errorf("dialect/sql: unknown storage type %q", s)
}
