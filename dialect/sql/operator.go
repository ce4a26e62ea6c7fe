package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlbind"
)

// Op is a comparison operator.
type Op int

// Comparison operators.
const (
	OpEQ  Op = iota // =
	OpNEQ           // <>
	OpGT            // >
	OpGTE           // >=
	OpLT            // <
	OpLTE           // <=
)

var ops = [...]struct{ name, symbol string }{
	OpEQ:  {"Equal", "="},
	OpNEQ: {"NotEqual", "<>"},
	OpGT:  {"GreaterThan", ">"},
	OpGTE: {"GreaterThanOrEqual", ">="},
	OpLT:  {"LessThan", "<"},
	OpLTE: {"LessThanOrEqual", "<="},
}

// Valid reports whether o is one of the defined operators.
func (o Op) Valid() bool {
	return o >= OpEQ && int(o) < len(ops)
}

// Symbol returns the SQL symbol of the operator.
func (o Op) Symbol() string {
	if !o.Valid() {
		return ""
	}
	return ops[o].symbol
}

// String returns the operator name.
func (o Op) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return ops[o].name
}

// ParseOp parses an operator from its name ("Equal"), short name ("eq",
// "gte") or SQL symbol ("=", "!=", ">="). Matching is case-insensitive.
func ParseOp(s string) (Op, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "eq", "=", "==":
		return OpEQ, nil
	case "neq", "ne", "<>", "!=":
		return OpNEQ, nil
	case "gt", ">":
		return OpGT, nil
	case "gte", "ge", ">=":
		return OpGTE, nil
	case "lt", "<":
		return OpLT, nil
	case "lte", "le", "<=":
		return OpLTE, nil
	default:
		for i, o := range ops {
			if strings.EqualFold(o.name, v) {
				return Op(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", sqlbind.ErrInvalidOperator, s)
}

// Wildcard is the decoration applied to a LIKE pattern.
type Wildcard int

// Wildcard decorations.
const (
	StartsWith   Wildcard = iota // value%
	EndsWith                     // %value
	Contains                     // %value%
	ExactPattern                 // value, wildcards supplied by the caller
)

var wildcardNames = [...]string{
	StartsWith:   "StartsWith",
	EndsWith:     "EndsWith",
	Contains:     "Contains",
	ExactPattern: "ExactPattern",
}

// Valid reports whether w is one of the defined decorations.
func (w Wildcard) Valid() bool {
	return w >= StartsWith && int(w) < len(wildcardNames)
}

// String returns the decoration name.
func (w Wildcard) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Wildcard(%d)", int(w))
	}
	return wildcardNames[w]
}

// Decorate returns the pattern for v.
func (w Wildcard) Decorate(v string) string {
	switch w {
	case StartsWith:
		return v + "%"
	case EndsWith:
		return "%" + v
	case Contains:
		return "%" + v + "%"
	default:
		return v
	}
}

// ParseWildcard parses a decoration name. Matching is case-insensitive and
// accepts "prefix", "suffix" and "exact" as aliases.
func ParseWildcard(s string) (Wildcard, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "prefix", "startswith", "starts_with":
		return StartsWith, nil
	case "suffix", "endswith", "ends_with":
		return EndsWith, nil
	case "contains":
		return Contains, nil
	case "exact", "exactpattern", "exact_pattern", "like":
		return ExactPattern, nil
	}
	return 0, fmt.Errorf("%w: wildcard %q", sqlbind.ErrInvalidOperator, s)
}
