package sql

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect"
)

func TestWhereFieldEquals(t *testing.T) {
	sel := NewSelector(dialect.SQLServer, "Person.Person")
	w := sel.Where().FieldEquals("PersonType", String("EM").FixedLength().WithLength(2))
	assert.Same(t, sel.Where(), w)
	require.Equal(t, 1, w.Len())

	b := NewBinder(dialect.SQLServer)
	frag, err := w.Render(b)
	require.NoError(t, err)
	assert.Equal(t, "[PersonType] = @p1", frag)
	assert.Equal(t, []Parameter{
		{Name: "p1", Type: TypeStringFixedLength, Size: 2, Value: "EM"},
	}, b.Parameters())
}

func TestWhereNarrowFixed(t *testing.T) {
	w := NewSelector(dialect.SQLServer, "Person.Person").Where().
		FieldMatch("PersonType", OpEQ, AnsiString("EM").FixedLength().WithLength(2))

	b := NewBinder(dialect.SQLServer)
	_, err := w.Render(b)
	require.NoError(t, err)
	require.Len(t, b.Parameters(), 1)
	p := b.Parameters()[0]
	assert.Equal(t, TypeAnsiStringFixedLength, p.Type)
	assert.Equal(t, 2, p.Size)
	assert.Equal(t, "EM", p.Value)
}

func TestWhereFieldBetween(t *testing.T) {
	begin := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	w := NewSelector(dialect.SQLServer, "HumanResources.Employee").Where().
		FieldBetween("HireDate", Date(begin), Date(end))
	require.Equal(t, 2, w.Len())

	b := NewBinder(dialect.SQLServer)
	frag, err := w.Render(b)
	require.NoError(t, err)
	assert.Equal(t, "[HireDate] >= @p1 AND [HireDate] <= @p2", frag)
	assert.NotContains(t, frag, "BETWEEN")
	assert.Equal(t, []Parameter{
		{Name: "p1", Type: TypeDate, Size: -1, Value: begin},
		{Name: "p2", Type: TypeDate, Size: -1, Value: end},
	}, b.Parameters())
}

func TestWhereFieldBetweenReversed(t *testing.T) {
	begin := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWhere(nil).FieldBetween("HireDate", Date(begin), Date(end))
	require.NoError(t, w.Err())
	assert.Equal(t, 2, w.Len(), "reversed bounds are accepted")
}

func TestWhereFieldBetweenKindMismatch(t *testing.T) {
	begin := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 18, 0, 0, 0, time.UTC)
	sel := NewSelector(dialect.SQLServer, "HumanResources.Employee")
	w := sel.Where().FieldBetween("HireDate", Date(begin), DateTimeOffset(end))
	assert.Zero(t, w.Len())
	err := w.Err()
	require.Error(t, err)
	assert.True(t, sqlbind.IsConstructionError(err))
	assert.True(t, errors.Is(err, sqlbind.ErrCalendarKindMismatch))
	assert.Contains(t, err.Error(), "date and datetimeoffset")

	_, err = sel.Render()
	assert.True(t, errors.Is(err, sqlbind.ErrCalendarKindMismatch))

	w = NewWhere(nil).FieldBetween("HireDate", DateTime(begin), DateTime(end))
	require.NoError(t, w.Err())
	assert.Equal(t, 2, w.Len())
}

func TestWhereFieldMatchDate(t *testing.T) {
	ts := time.Date(2021, 6, 1, 8, 30, 0, 0, time.UTC)
	w := NewSelector(dialect.Postgres, "orders").Where().
		FieldMatchDate("ModifiedDate", OpLT, DateTimeOffset(ts))

	b := NewBinder(dialect.Postgres)
	frag, err := w.Render(b)
	require.NoError(t, err)
	assert.Equal(t, `"ModifiedDate" < $1`, frag)
	assert.Equal(t, TypeDateTimeOffset, b.Parameters()[0].Type)
}

func TestWhereStringMatch(t *testing.T) {
	tests := []struct {
		wildcard Wildcard
		value    string
	}{
		{Contains, "%Smith%"},
		{StartsWith, "Smith%"},
		{EndsWith, "%Smith"},
		{ExactPattern, "Smith"},
	}
	for _, tt := range tests {
		t.Run(tt.wildcard.String(), func(t *testing.T) {
			w := NewSelector(dialect.MySQL, "person").Where().
				StringMatch("LastName", tt.wildcard, AnsiString("Smith").WithLength(50))
			b := NewBinder(dialect.MySQL)
			frag, err := w.Render(b)
			require.NoError(t, err)
			assert.Equal(t, "`LastName` LIKE ?", frag)
			assert.Equal(t, []Parameter{
				{Name: "p1", Type: TypeAnsiString, Size: 50, Value: tt.value},
			}, b.Parameters())
		})
	}
}

func TestWhereAppendOrder(t *testing.T) {
	w := NewSelector(dialect.Postgres, "person").Where().
		FieldEquals("a", String("1")).
		StringMatch("b", StartsWith, String("2")).
		FieldMatch("c", OpNEQ, String("3"))

	b := NewBinder(dialect.Postgres)
	frag, err := w.Render(b)
	require.NoError(t, err)
	assert.Equal(t, `"a" = $1 AND "b" LIKE $2 AND "c" <> $3`, frag)
	params := b.Parameters()
	require.Len(t, params, 3)
	for i, v := range []any{"1", "2%", "3"} {
		assert.Equal(t, v, params[i].Value)
	}
}

func TestWhereEmpty(t *testing.T) {
	w := NewWhere(NewSelector(dialect.SQLite, "t"))
	b := NewBinder(dialect.SQLite)
	frag, err := w.Render(b)
	require.NoError(t, err)
	assert.Empty(t, frag)
	assert.Empty(t, b.Parameters())
	assert.NoError(t, w.Err())
}

func TestWhereInvalidInput(t *testing.T) {
	w := NewSelector(dialect.SQLite, "t").Where().
		FieldEquals("ok", String("x")).
		FieldMatch("bad_op", Op(9), String("x")).
		FieldMatchDate("zero_date", OpEQ, DbDate{}).
		FieldBetween("half", Date(time.Now()), DbDate{}).
		StringMatch("bad_wildcard", Wildcard(9), String("x"))

	assert.Equal(t, 1, w.Len(), "failed calls append nothing")
	err := w.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlbind.ErrInvalidOperator))
	assert.True(t, errors.Is(err, sqlbind.ErrUnknownCalendarKind))

	_, err = w.Render(NewBinder(dialect.SQLite))
	require.Error(t, err)
	assert.True(t, sqlbind.IsConstructionError(err))
}

func TestWhereAddFilter(t *testing.T) {
	sel := NewSelector(dialect.SQLServer, "Person.Person")
	f, err := NewCompareFilter(sel, "PersonType", OpEQ, TypeStringFixedLength, "EM")
	require.NoError(t, err)
	require.NoError(t, f.SetSize(2))

	w := sel.Where().AddFilter(f).AddFilter(nil)
	require.Equal(t, 1, w.Len())
	assert.Equal(t, Filter(f), w.Filters()[0])

	stmt, err := sel.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM Person.Person WHERE [PersonType] = @p1", stmt.CommandText)
}

// customFilter is a filter defined outside the package filters.
type customFilter struct{ field string }

func (f customFilter) Render(b *Binder) (string, error) {
	return f.field + " IS NOT NULL", nil
}

func TestWhereCustomFilter(t *testing.T) {
	w := NewWhere(nil).
		AddFilter(customFilter{"Suffix"}).
		FieldEquals("Title", String("Mr."))
	frag, err := w.Render(NewBinder(dialect.SQLite))
	require.NoError(t, err)
	assert.Equal(t, "Suffix IS NOT NULL AND Title = @p1", frag)
}

func TestWhereIdempotentRender(t *testing.T) {
	sel := NewSelector(dialect.SQLServer, "HumanResources.Employee").
		Columns("BusinessEntityID").
		OrderBy("BusinessEntityID")
	sel.Where().
		FieldEquals("JobTitle", String("Buyer")).
		FieldBetween("HireDate", Date(time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)), Date(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)))

	s1, err := sel.Render()
	require.NoError(t, err)
	s2, err := sel.Render()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}
