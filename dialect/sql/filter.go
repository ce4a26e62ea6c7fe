package sql

import (
	"github.com/syssam/sqlbind"
)

// Root resolves field names to qualified column references. A Selector is a
// Root; every filter added to a Where must be built against the Where's root.
type Root interface {
	QualifyField(field string) string
}

// Filter is a single predicate unit. Render returns the boolean fragment and
// binds the filter's parameters on b. Rendering must not modify the filter.
type Filter interface {
	Render(b *Binder) (string, error)
}

// node holds the state shared by the filters of this package.
type node struct {
	root   Root
	field  string
	typ    DbType
	size   int
	value  any
	sealed bool
}

// Field returns the unqualified field name.
func (n *node) Field() string { return n.field }

// DataType returns the resolved storage type.
func (n *node) DataType() DbType { return n.typ }

// Size returns the parameter size, or -1 if unset.
func (n *node) Size() int { return n.size }

// Value returns the bound value.
func (n *node) Value() any { return n.value }

// SetDataType refines the storage type. It fails once the filter was added
// to a Where.
func (n *node) SetDataType(t DbType) error {
	if n.sealed {
		return sqlbind.NewInvalidStateError(n.field, "filter already added to a where clause")
	}
	n.typ = t
	return nil
}

// SetSize sets the parameter size. Negative sizes are rejected; use -1 only
// through the value wrappers to leave the size unset.
func (n *node) SetSize(size int) error {
	if size < 0 {
		return sqlbind.NewConstructionError(n.field, sqlbind.ErrNegativeSize)
	}
	if n.sealed {
		return sqlbind.NewInvalidStateError(n.field, "filter already added to a where clause")
	}
	n.size = size
	return nil
}

func (n *node) seal() { n.sealed = true }

func (n *node) qualified() string {
	if n.root == nil {
		return n.field
	}
	return n.root.QualifyField(n.field)
}

func (n *node) bind(b *Binder) (string, error) {
	if !n.typ.Resolved() {
		return "", sqlbind.NewInvalidStateError(n.field, "storage type not resolved")
	}
	return b.Bind(n.typ, n.size, n.value), nil
}

// sealer is implemented by filters that stop accepting refinements once they
// are part of a tree.
type sealer interface{ seal() }

// CompareFilter renders `field <op> placeholder`.
type CompareFilter struct {
	node
	op Op
}

// NewCompareFilter returns a comparison filter. The storage type may be
// TypeUnknown and set later with SetDataType; the size starts unset.
func NewCompareFilter(root Root, field string, op Op, typ DbType, value any) (*CompareFilter, error) {
	if !op.Valid() {
		return nil, sqlbind.NewConstructionError(field, sqlbind.ErrInvalidOperator)
	}
	return &CompareFilter{
		node: node{root: root, field: field, typ: typ, size: -1, value: value},
		op:   op,
	}, nil
}

// Op returns the comparison operator.
func (f *CompareFilter) Op() Op { return f.op }

// Render implements Filter.
func (f *CompareFilter) Render(b *Binder) (string, error) {
	ph, err := f.bind(b)
	if err != nil {
		return "", err
	}
	return f.qualified() + " " + f.op.Symbol() + " " + ph, nil
}

// StringMatchFilter renders `field LIKE placeholder`, binding the decorated
// pattern.
type StringMatchFilter struct {
	node
	wildcard Wildcard
}

// NewStringMatchFilter returns a pattern-match filter binding w.Decorate(pattern).
func NewStringMatchFilter(root Root, field string, w Wildcard, typ DbType, pattern string) (*StringMatchFilter, error) {
	if !w.Valid() {
		return nil, sqlbind.NewConstructionError(field, sqlbind.ErrInvalidOperator)
	}
	return &StringMatchFilter{
		node:     node{root: root, field: field, typ: typ, size: -1, value: w.Decorate(pattern)},
		wildcard: w,
	}, nil
}

// Wildcard returns the decoration applied to the pattern.
func (f *StringMatchFilter) Wildcard() Wildcard { return f.wildcard }

// Render implements Filter.
func (f *StringMatchFilter) Render(b *Binder) (string, error) {
	ph, err := f.bind(b)
	if err != nil {
		return "", err
	}
	return f.qualified() + " LIKE " + ph, nil
}

var (
	_ Filter = (*CompareFilter)(nil)
	_ Filter = (*StringMatchFilter)(nil)
)
