package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/dialect/sql"
)

// Policy decision sentinel errors.
//
// These errors are used as return values from rules to indicate
// how the evaluation should proceed:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("sqlbind/privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("sqlbind/privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	Skip = errors.New("sqlbind/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

type (
	// QueryRule decides whether a query is allowed, and may narrow it
	// by appending filters to its predicate tree before it is rendered.
	QueryRule interface {
		EvalQuery(context.Context, *sql.Selector) error
	}

	// QueryPolicy combines multiple query rules into a single policy.
	QueryPolicy []QueryRule

	// Policies combines multiple policies. An Allow decision from one
	// of them ends the evaluation with a nil error.
	Policies []QueryRule
)

// QueryRuleFunc type is an adapter which allows the use of
// ordinary functions as query rules.
type QueryRuleFunc func(context.Context, *sql.Selector) error

// EvalQuery returns f(ctx, s).
func (f QueryRuleFunc) EvalQuery(ctx context.Context, s *sql.Selector) error {
	return f(ctx, s)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() QueryRule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() QueryRule {
	return fixedDecision{Deny}
}

// ContextQueryRule creates a query rule from a context evaluation function.
// Returning nil is equivalent to returning Skip.
func ContextQueryRule(eval func(context.Context) error) QueryRule {
	return contextDecision{eval}
}

// OnTable evaluates the given rule only for queries on the given table.
func OnTable(rule QueryRule, table string) QueryRule {
	return QueryRuleFunc(func(ctx context.Context, s *sql.Selector) error {
		if s.Table() == table {
			return rule.EvalQuery(ctx, s)
		}
		return Skip
	})
}

// EvalQuery evaluates a query against a query policy.
func (policy QueryPolicy) EvalQuery(ctx context.Context, s *sql.Selector) error {
	for _, rule := range policy {
		switch decision := rule.EvalQuery(ctx, s); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

// EvalQuery evaluates the policies. A decision attached to the context
// with DecisionContext short-circuits the evaluation.
func (policies Policies) EvalQuery(ctx context.Context, s *sql.Selector) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := policy.EvalQuery(ctx, s); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Enforce evaluates the rule against the selector and translates the
// outcome for callers. A Deny decision becomes a *sqlbind.PrivacyError
// that still matches errors.Is(err, Deny); Allow and Skip become nil.
// Errors that are not decisions are returned as is.
func Enforce(ctx context.Context, rule QueryRule, s *sql.Selector) error {
	switch decision := rule.EvalQuery(ctx, s); {
	case decision == nil, errors.Is(decision, Allow), errors.Is(decision, Skip):
		return nil
	case errors.Is(decision, Deny):
		return &denial{
			PrivacyError: sqlbind.NewPrivacyError(s.Table(), reason(decision)),
			decision:     decision,
		}
	default:
		return decision
	}
}

// reason strips the Deny sentinel suffix added by Denyf.
func reason(decision error) string {
	if decision == Deny {
		return ""
	}
	msg := decision.Error()
	if n := len(msg) - len(Deny.Error()) - 2; n > 0 && msg[n:] == ": "+Deny.Error() {
		return msg[:n]
	}
	return msg
}

// denial keeps the decision chain reachable from a PrivacyError.
type denial struct {
	*sqlbind.PrivacyError
	decision error
}

func (d *denial) Unwrap() []error { return []error{d.PrivacyError, d.decision} }

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalQuery(context.Context, *sql.Selector) error {
	return f.decision
}

type contextDecision struct {
	eval func(context.Context) error
}

func (c contextDecision) EvalQuery(ctx context.Context, _ *sql.Selector) error {
	return c.eval(ctx)
}

// FilterFunc is an adapter that allows using ordinary functions as
// query rules that narrow the predicate tree of a query.
//
//	privacy.FilterFunc(func(ctx context.Context, w *sql.Where) error {
//	    w.FieldEquals("TenantID", sql.String(tenant))
//	    return privacy.Skip
//	})
type FilterFunc func(context.Context, *sql.Where) error

// EvalQuery calls f(ctx, s.Where()). A filter rejected by the composer
// denies the query.
func (f FilterFunc) EvalQuery(ctx context.Context, s *sql.Selector) error {
	w := s.Where()
	failed := w.Err() != nil
	decision := f(ctx, w)
	if err := w.Err(); err != nil && !failed {
		return Denyf("sqlbind/privacy: filter rejected: %v", err)
	}
	return decision
}

var _ QueryRule = FilterFunc(nil)
