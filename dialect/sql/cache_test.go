package sql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect"
)

func TestCacheKeyOfStatement(t *testing.T) {
	render := func(v DbString) Statement {
		s := NewSelector(dialect.SQLServer, "Person.Person")
		s.Where().FieldEquals("PersonType", v)
		stmt, err := s.Render()
		require.NoError(t, err)
		return stmt
	}
	fixed := CacheKey("Person.Person", render(AnsiString("EM").FixedLength().WithLength(2)))
	again := CacheKey("Person.Person", render(AnsiString("EM").FixedLength().WithLength(2)))
	wide := CacheKey("Person.Person", render(String("EM").FixedLength().WithLength(2)))
	other := CacheKey("Person.Person", render(AnsiString("SC").FixedLength().WithLength(2)))

	assert.Equal(t, fixed.String(), again.String())
	assert.NotEqual(t, fixed.String(), wide.String())
	assert.NotEqual(t, fixed.String(), other.String())
}

func TestCachedQuery(t *testing.T) {
	drv, mock := mockDriver(t)
	cache := sqlbind.NewMemoryCache()
	ctx := context.Background()

	mock.ExpectQuery(personQuery).WithArgs("EM").
		WillReturnRows(personRows().AddRow(1, "Ken", "Sánchez").AddRow(2, "Terri", "Duffy"))

	first, err := CachedQuery[person](ctx, drv, cache, time.Minute, personSelector(dialect.Postgres))
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, cache.Len())

	// Served from the cache: no query is expected.
	second, err := CachedQuery[person](ctx, drv, cache, time.Minute, personSelector(dialect.Postgres))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, InvalidateCache(ctx, cache, "person"))
	assert.Equal(t, 0, cache.Len())

	mock.ExpectQuery(personQuery).WithArgs("EM").
		WillReturnRows(personRows().AddRow(1, "Ken", "Sánchez"))
	third, err := CachedQuery[person](ctx, drv, cache, time.Minute, personSelector(dialect.Postgres))
	require.NoError(t, err)
	assert.Len(t, third, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

// failingCache fails every operation.
type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }
func (failingCache) Delete(context.Context, string) error { return errCacheDown }
func (failingCache) DeletePrefix(context.Context, string) error { return errCacheDown }
func (failingCache) Clear(context.Context) error { return errCacheDown }

func TestCachedQueryCacheFailure(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(personQuery).WithArgs("EM").
		WillReturnRows(personRows().AddRow(1, "Ken", "Sánchez"))

	people, err := CachedQuery[person](context.Background(), drv, failingCache{}, time.Minute, personSelector(dialect.Postgres))
	require.NoError(t, err, "cache failures do not fail the query")
	assert.Len(t, people, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedQueryRowTypes(t *testing.T) {
	drv, mock := mockDriver(t)
	cache := sqlbind.NewMemoryCache()
	ctx := context.Background()

	mock.ExpectQuery(personQuery).WithArgs("EM").
		WillReturnRows(personRows().AddRow(1, "Ken", "Sánchez"))
	people, err := CachedQuery[person](ctx, drv, cache, time.Minute, personSelector(dialect.Postgres))
	require.NoError(t, err)
	require.Len(t, people, 1)

	// Same statement, other row type: the database is queried again.
	mock.ExpectQuery(personQuery).WithArgs("EM").
		WillReturnRows(personRows().AddRow(1, "Ken", "Sánchez"))
	rows, err := CachedQuery[map[string]any](ctx, drv, cache, time.Minute, personSelector(dialect.Postgres))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ken", rows[0]["FirstName"])
	assert.Equal(t, 2, cache.Len())
	require.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, InvalidateCache(ctx, cache, "person"))
	assert.Zero(t, cache.Len())
}
