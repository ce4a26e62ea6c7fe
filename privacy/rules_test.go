package privacy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect"
	"github.com/syssam/sqlbind/dialect/sql"
	"github.com/syssam/sqlbind/privacy"
)

var (
	tenantID = sql.NewStringField[sql.Predicate]("TenantID").WithLength(64)
	ownerID  = sql.NewAnsiStringField[sql.Predicate]("OwnerID").FixedLength().WithLength(36)
)

func TestSimpleViewer(t *testing.T) {
	v := &privacy.SimpleViewer{UserID: "u1", Roles: []string{"admin"}, TenantID: "t1"}
	assert.Equal(t, "u1", v.GetID())
	assert.Equal(t, []string{"admin"}, v.GetRoles())
	assert.Equal(t, "t1", v.GetTenantID())
}

func TestViewerContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, privacy.ViewerFromContext(ctx))
	v := &privacy.SimpleViewer{UserID: "u1"}
	assert.Equal(t, v, privacy.ViewerFromContext(privacy.WithViewer(ctx, v)))
}

func TestDenyIfNoViewer(t *testing.T) {
	rule := privacy.DenyIfNoViewer()
	assert.ErrorIs(t, rule.EvalQuery(context.Background(), selector()), privacy.Deny)
	ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1"})
	assert.ErrorIs(t, rule.EvalQuery(ctx, selector()), privacy.Skip)
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name   string
		viewer privacy.Viewer
		rule   privacy.QueryRule
		want   error
	}{
		{"no_viewer", nil, privacy.HasRole("admin"), privacy.Skip},
		{"match", &privacy.SimpleViewer{Roles: []string{"user", "admin"}}, privacy.HasRole("admin"), privacy.Allow},
		{"mismatch", &privacy.SimpleViewer{Roles: []string{"user"}}, privacy.HasRole("admin"), privacy.Skip},
		{"any_match", &privacy.SimpleViewer{Roles: []string{"moderator"}}, privacy.HasAnyRole("admin", "moderator"), privacy.Allow},
		{"any_none", &privacy.SimpleViewer{}, privacy.HasAnyRole("admin", "moderator"), privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.viewer != nil {
				ctx = privacy.WithViewer(ctx, tt.viewer)
			}
			assert.ErrorIs(t, tt.rule.EvalQuery(ctx, selector()), tt.want)
		})
	}
}

func TestTenantRule(t *testing.T) {
	rule := privacy.TenantRule(tenantID)

	t.Run("no_viewer", func(t *testing.T) {
		s := selector()
		err := privacy.Enforce(context.Background(), rule, s)
		require.Error(t, err)
		assert.True(t, sqlbind.IsPrivacyError(err))
		assert.Zero(t, s.Where().Len())
	})

	t.Run("no_tenant", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1"})
		err := privacy.Enforce(ctx, rule, selector())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tenant required")
	})

	t.Run("narrowed", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1", TenantID: "acme"})
		s := selector()
		require.NoError(t, privacy.Enforce(ctx, rule, s))
		stmt, err := s.Render()
		require.NoError(t, err)
		assert.Equal(t, `SELECT "CustomerID", "AccountNumber" FROM customer WHERE "TenantID" = $1`, stmt.CommandText)
		require.Len(t, stmt.Parameters, 1)
		p := stmt.Parameters[0]
		assert.Equal(t, "acme", p.Value)
		assert.Equal(t, sql.TypeString, p.Type)
		assert.Equal(t, 64, p.Size)
	})
}

func TestOwnerRule(t *testing.T) {
	rule := privacy.OwnerRule(ownerID)
	err := privacy.Enforce(context.Background(), rule, selector())
	require.Error(t, err)
	assert.ErrorIs(t, err, privacy.Deny)

	ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "4c1a5c2e-0000-4000-8000-000000000001"})
	s := sql.NewSelector(dialect.SQLServer, "Sales.Customer").Columns("CustomerID")
	require.NoError(t, privacy.Enforce(ctx, rule, s))
	stmt, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT [CustomerID] FROM Sales.Customer WHERE [OwnerID] = @p1", stmt.CommandText)
	assert.Equal(t, sql.TypeAnsiStringFixedLength, stmt.Parameters[0].Type)
	assert.Equal(t, 36, stmt.Parameters[0].Size)
}

func TestIntegratedPolicyChain(t *testing.T) {
	policy := privacy.Policies{
		privacy.QueryPolicy{
			privacy.DenyIfNoViewer(),
			privacy.HasRole("admin"),
			privacy.TenantRule(tenantID),
		},
	}

	t.Run("anonymous", func(t *testing.T) {
		err := privacy.Enforce(context.Background(), policy, selector())
		assert.ErrorIs(t, err, privacy.Deny)
	})

	t.Run("admin_unfiltered", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{Roles: []string{"admin"}, TenantID: "acme"})
		s := selector()
		require.NoError(t, privacy.Enforce(ctx, policy, s))
		assert.Zero(t, s.Where().Len())
	})

	t.Run("member_filtered", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{Roles: []string{"user"}, TenantID: "acme"})
		s := selector()
		require.NoError(t, privacy.Enforce(ctx, policy, s))
		assert.Equal(t, 1, s.Where().Len())
	})
}
