// Package privacy evaluates query policies against a *sql.Selector before
// it is rendered.
//
// A rule returns Allow, Deny or Skip. Rules may also narrow the query by
// appending filters to its predicate tree, which is how row-level rules
// like TenantRule and OwnerRule are expressed:
//
//	policy := privacy.Policies{
//	    privacy.QueryPolicy{
//	        privacy.DenyIfNoViewer(),
//	        privacy.HasRole("admin"),
//	        privacy.TenantRule(sql.NewStringField[sql.Predicate]("TenantID")),
//	    },
//	}
//
//	sel := drv.Select("Sales.Customer").Columns("CustomerID", "AccountNumber")
//	if err := privacy.Enforce(ctx, policy, sel); err != nil {
//	    return err
//	}
//	customers, err := sql.Query[Customer](ctx, drv, sel)
//
// Rules are evaluated in order until one returns a final decision. If all
// rules skip, the query is allowed. Enforce reports a Deny decision as a
// *sqlbind.PrivacyError naming the table and the reason.
package privacy
