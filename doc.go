// Package sqlbind holds the types shared by the sqlbind packages: the error
// taxonomy and the query result cache contract.
//
// Predicates are composed with the dialect/sql package:
//
//	drv, err := sql.Open(dialect.SQLite, "file:adventure.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sel := drv.Select("Person.Person").
//	    Columns("BusinessEntityID", "FirstName", "LastName").
//	    OrderBy("BusinessEntityID")
//	sel.Where().FieldEquals("PersonType", sql.String("EM").FixedLength().WithLength(2))
//	people, err := sql.Query[Person](ctx, drv, sel)
//
// # Errors
//
// Construction errors (ConstructionError) are returned when a value or filter
// is built from invalid input. Invalid-state errors (ErrInvalidState) report
// defects such as rendering a filter whose storage type was never resolved.
// Execution errors are wrapped in QueryError.
package sqlbind
