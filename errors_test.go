package sqlbind_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbind"
)

func TestConstructionError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := sqlbind.NewConstructionError("HireDate", sqlbind.ErrUnknownCalendarKind)
		assert.Equal(t, `sqlbind: field "HireDate": sqlbind: unknown calendar kind`, err.Error())

		err = sqlbind.NewConstructionError("", sqlbind.ErrNegativeSize)
		assert.Equal(t, "sqlbind: sqlbind: negative size", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := sqlbind.NewConstructionError("Size", sqlbind.ErrNegativeSize)
		assert.True(t, errors.Is(err, sqlbind.ErrNegativeSize))
		assert.False(t, errors.Is(err, sqlbind.ErrInvalidState))
	})

	t.Run("IsConstructionError", func(t *testing.T) {
		err := sqlbind.NewConstructionError("LastName", sqlbind.ErrInvalidOperator)
		assert.True(t, sqlbind.IsConstructionError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, sqlbind.IsConstructionError(wrapped))

		// Non-matching error
		assert.False(t, sqlbind.IsConstructionError(errors.New("other error")))
		assert.False(t, sqlbind.IsConstructionError(nil))
	})
}

func TestInvalidStateError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := sqlbind.NewInvalidStateError("PersonType", "storage type not resolved")
		assert.Equal(t, `sqlbind: invalid state for field "PersonType": storage type not resolved`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := sqlbind.NewInvalidStateError("PersonType", "sealed")
		assert.True(t, errors.Is(err, sqlbind.ErrInvalidState))
	})

	t.Run("IsInvalidState", func(t *testing.T) {
		err := sqlbind.NewInvalidStateError("PersonType", "sealed")
		assert.True(t, sqlbind.IsInvalidState(fmt.Errorf("render: %w", err)))
		assert.True(t, sqlbind.IsInvalidState(sqlbind.ErrInvalidState))
		assert.False(t, sqlbind.IsInvalidState(errors.New("other error")))
		assert.False(t, sqlbind.IsInvalidState(nil))
	})
}

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := sqlbind.NewNotFoundError("Person.Person")
		assert.Equal(t, "sqlbind: Person.Person: no rows in result", err.Error())
		assert.Equal(t, "Person.Person", err.Label())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := sqlbind.NewNotFoundError("users")
		assert.True(t, errors.Is(err, sqlbind.ErrNotFound))
		assert.True(t, sqlbind.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, sqlbind.IsNotFound(sqlbind.ErrNotFound))
		assert.False(t, sqlbind.IsNotFound(errors.New("other error")))
		assert.False(t, sqlbind.IsNotFound(nil))
	})
}

func TestNotSingularError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		assert.Equal(t, "sqlbind: users not singular", sqlbind.NewNotSingularError("users").Error())
		err := sqlbind.NewNotSingularErrorWithCount("users", 3)
		assert.Equal(t, "sqlbind: users not singular (got 3 rows, expected 1)", err.Error())
		assert.Equal(t, 3, err.Count())
		assert.Equal(t, -1, sqlbind.NewNotSingularError("users").Count())
	})

	t.Run("IsNotSingular", func(t *testing.T) {
		err := sqlbind.NewNotSingularErrorWithCount("users", 2)
		assert.True(t, errors.Is(err, sqlbind.ErrNotSingular))
		assert.True(t, sqlbind.IsNotSingular(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, sqlbind.IsNotSingular(sqlbind.ErrNotFound))
		assert.False(t, sqlbind.IsNotSingular(nil))
	})
}

func TestQueryError(t *testing.T) {
	underlying := errors.New("connection reset")
	err := sqlbind.NewQueryError("users", "single", underlying)
	assert.Equal(t, "sqlbind: querying users (single): connection reset", err.Error())
	assert.True(t, errors.Is(err, underlying))
	assert.True(t, sqlbind.IsQueryError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, sqlbind.IsQueryError(underlying))

	err = sqlbind.NewQueryError("users", "", underlying)
	assert.Equal(t, "sqlbind: querying users: connection reset", err.Error())
}

func TestPrivacyError(t *testing.T) {
	err := sqlbind.NewPrivacyError("users", "tenant")
	assert.Equal(t, "sqlbind: privacy denied query on users (rule: tenant)", err.Error())
	assert.Equal(t, "sqlbind: privacy denied query on users", sqlbind.NewPrivacyError("users", "").Error())
	assert.True(t, sqlbind.IsPrivacyError(err))
	assert.False(t, sqlbind.IsPrivacyError(nil))
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.Nil(t, sqlbind.NewAggregateError())
		assert.Nil(t, sqlbind.NewAggregateError(nil, nil, nil))
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("single error")
		assert.Equal(t, single, sqlbind.NewAggregateError(nil, single, nil))
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		err := sqlbind.NewAggregateError(
			sqlbind.NewConstructionError("a", sqlbind.ErrInvalidOperator),
			sqlbind.NewConstructionError("b", sqlbind.ErrUnknownCalendarKind),
		)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "multiple errors")
		assert.Contains(t, err.Error(), `field "a"`)
		assert.Contains(t, err.Error(), `field "b"`)
		assert.True(t, errors.Is(err, sqlbind.ErrUnknownCalendarKind))
		assert.True(t, sqlbind.IsConstructionError(err))
	})
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewConstructionError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = sqlbind.NewConstructionError("field", sqlbind.ErrNegativeSize)
		}
	})

	b.Run("IsInvalidState", func(b *testing.B) {
		err := fmt.Errorf("render: %w", sqlbind.NewInvalidStateError("field", "unresolved"))
		for i := 0; i < b.N; i++ {
			_ = sqlbind.IsInvalidState(err)
		}
	})
}
