package privacy

import (
	"context"
	"slices"

	"github.com/syssam/sqlbind/dialect/sql"
)

// Viewer represents the authenticated user making a request.
// This interface should be implemented by application-specific user types.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant identifier for multi-tenancy.
	// Returns empty string if not applicable.
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context.
// Returns nil if no viewer is present.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string {
	return v.UserID
}

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string {
	return v.Roles
}

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string {
	return v.TenantID
}

// DenyIfNoViewer returns a rule that denies access if no viewer is present in the context.
// This is typically used as the first rule in a policy to require authentication.
//
//	privacy.QueryPolicy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.TenantRule(tenantID),
//	}
func DenyIfNoViewer() QueryRule {
	return ContextQueryRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows access if the viewer has the specified role.
func HasRole(role string) QueryRule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows access if the viewer has any of the specified roles.
// Skips otherwise, so the next rule is evaluated.
func HasAnyRole(roles ...string) QueryRule {
	return ContextQueryRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		for _, role := range roles {
			if slices.Contains(viewer.GetRoles(), role) {
				return Allow
			}
		}
		return Skip
	})
}

// OwnerRule returns a rule that narrows a query to rows owned by the
// viewer, by comparing the column with the viewer's ID.
//
//	privacy.OwnerRule(sql.NewAnsiStringField[sql.Predicate]("OwnerID").WithLength(36))
func OwnerRule(column sql.StringField[sql.Predicate]) QueryRule {
	return QueryRuleFunc(func(ctx context.Context, s *sql.Selector) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Denyf("viewer required for owner-filtered query")
		}
		return narrow(ctx, s, column.EQ(viewer.GetID()))
	})
}

// TenantRule returns a rule that narrows a query to the viewer's tenant.
// It denies the query if no viewer or tenant is present.
//
//	privacy.TenantRule(sql.NewStringField[sql.Predicate]("TenantID").WithLength(64))
func TenantRule(column sql.StringField[sql.Predicate]) QueryRule {
	return QueryRuleFunc(func(ctx context.Context, s *sql.Selector) error {
		viewer := ViewerFromContext(ctx)
		switch {
		case viewer == nil:
			return Denyf("viewer required for tenant-filtered query")
		case viewer.GetTenantID() == "":
			return Denyf("tenant required")
		}
		return narrow(ctx, s, column.EQ(viewer.GetTenantID()))
	})
}

// narrow applies p through a FilterFunc, so a rejected filter denies.
func narrow(ctx context.Context, s *sql.Selector, p sql.Predicate) error {
	return FilterFunc(func(_ context.Context, w *sql.Where) error {
		w.Where(p)
		return Skip
	}).EvalQuery(ctx, s)
}
