package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect"
)

func TestCompareFilterRender(t *testing.T) {
	root := NewSelector(dialect.SQLServer, "Person.Person")
	f, err := NewCompareFilter(root, "PersonType", OpEQ, TypeStringFixedLength, "EM")
	require.NoError(t, err)
	require.NoError(t, f.SetSize(2))

	b := NewBinder(dialect.SQLServer)
	frag, err := f.Render(b)
	require.NoError(t, err)
	assert.Equal(t, "[PersonType] = @p1", frag)
	assert.Equal(t, []Parameter{{Name: "p1", Type: TypeStringFixedLength, Size: 2, Value: "EM"}}, b.Parameters())

	// Rendering does not modify the filter.
	b2 := NewBinder(dialect.SQLServer)
	frag2, err := f.Render(b2)
	require.NoError(t, err)
	assert.Equal(t, frag, frag2)
	assert.Equal(t, b.Parameters(), b2.Parameters())
}

func TestStringMatchFilterRender(t *testing.T) {
	root := NewSelector(dialect.Postgres, "person")
	f, err := NewStringMatchFilter(root, "LastName", Contains, TypeString, "Smith")
	require.NoError(t, err)
	assert.Equal(t, "%Smith%", f.Value())
	assert.Equal(t, Contains, f.Wildcard())

	b := NewBinder(dialect.Postgres)
	frag, err := f.Render(b)
	require.NoError(t, err)
	assert.Equal(t, `"LastName" LIKE $1`, frag)
	require.Len(t, b.Parameters(), 1)
	assert.Equal(t, -1, b.Parameters()[0].Size)
}

func TestFilterUnresolvedType(t *testing.T) {
	f, err := NewCompareFilter(nil, "PersonType", OpEQ, TypeUnknown, "EM")
	require.NoError(t, err)

	b := NewBinder(dialect.SQLite)
	_, err = f.Render(b)
	require.Error(t, err)
	assert.True(t, sqlbind.IsInvalidState(err))
	assert.Zero(t, b.Len(), "no parameter is bound for a failed filter")

	require.NoError(t, f.SetDataType(TypeAnsiString))
	frag, err := f.Render(b)
	require.NoError(t, err)
	assert.Equal(t, "PersonType = @p1", frag, "filters without a root render the bare field")
}

func TestFilterRefinement(t *testing.T) {
	f, err := NewCompareFilter(nil, "Size", OpGT, TypeString, "x")
	require.NoError(t, err)

	err = f.SetSize(-1)
	require.Error(t, err)
	assert.True(t, sqlbind.IsConstructionError(err))
	assert.True(t, errors.Is(err, sqlbind.ErrNegativeSize))
	assert.Equal(t, -1, f.Size(), "rejected sizes leave the filter unchanged")

	require.NoError(t, f.SetSize(0))
	assert.Equal(t, 0, f.Size())

	NewWhere(nil).AddFilter(f)
	err = f.SetDataType(TypeAnsiString)
	assert.True(t, sqlbind.IsInvalidState(err))
	err = f.SetSize(10)
	assert.True(t, sqlbind.IsInvalidState(err))
	assert.Equal(t, TypeString, f.DataType())
	assert.Equal(t, 0, f.Size())
}

func TestFilterInvalidOperator(t *testing.T) {
	_, err := NewCompareFilter(nil, "Age", Op(42), TypeString, "x")
	assert.True(t, errors.Is(err, sqlbind.ErrInvalidOperator))
	_, err = NewStringMatchFilter(nil, "Name", Wildcard(42), TypeString, "x")
	assert.True(t, errors.Is(err, sqlbind.ErrInvalidOperator))
}
