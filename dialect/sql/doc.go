// Package sql composes SQL WHERE predicates with typed, sized parameters and
// executes the rendered statements through database/sql.
//
// # Values
//
// Strings and temporal values carry the metadata that selects their storage
// type, so call sites never name a type:
//
//	sql.String("Smith")                              // String
//	sql.AnsiString("EM").FixedLength().WithLength(2) // AnsiStringFixedLength, size 2
//	sql.Date(hired)                                  // Date
//	sql.NewDbDate(t, sql.KindDateTimeOffset)         // DateTimeOffset
//
// # Composition
//
// A Selector owns one Where clause. Composition calls append filters and
// return the clause for chaining; filters are never removed:
//
//	sel := sql.NewSelector(dialect.SQLServer, "HumanResources.Employee").
//	    Columns("BusinessEntityID", "HireDate").
//	    OrderBy("BusinessEntityID")
//	sel.Where().
//	    FieldEquals("JobTitle", sql.String("Buyer")).
//	    FieldBetween("HireDate", sql.Date(begin), sql.Date(end)).
//	    StringMatch("LoginID", sql.StartsWith, sql.String(`adventure-works\`))
//
// FieldBetween appends two comparisons (>= and <=) rather than a BETWEEN
// construct. Typed fields bundle the metadata once:
//
//	var LastName = sql.NewStringField[sql.Predicate]("LastName").WithLength(50)
//	sel.Where(LastName.Contains("mit"))
//
// # Rendering
//
// Render walks the filters in append order, joins them with AND and binds
// one parameter per comparison with names p1, p2, ... Placeholders follow
// the dialect: $1 for Postgres, ? for MySQL and @p1 for SQLite and SQL
// Server. Rendering does not modify the selector; rendering twice yields
// identical statements.
//
//	stmt, err := sel.Render()
//	rows, err := db.QueryContext(ctx, stmt.CommandText, stmt.Args()...)
//
// # Execution
//
// Query, QuerySingle, QuerySingleOrDefault, QueryFirst, QueryFirstOrDefault
// and Stream execute a selector on any dialect.ExecQuerier and map rows with
// sqlx. CachedQuery stores results in a sqlbind.Cache. StatsDriver and
// DebugDriver wrap a Driver with statistics and statement logging.
//
// A Where is not safe for concurrent mutation. Rendered statements are
// immutable and may be shared.
package sql
