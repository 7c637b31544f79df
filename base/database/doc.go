/*
Package database persists Go structs as rows or documents of a table through
interchangeable storage engines.

# Records

A record type is a struct. Its fields are declared with the record struct tag:

	type Customer struct {
	  Identifier string  `record:"identifier,primary"`
	  Name       string  `record:"name"`
	  GroupID    *string `record:"group_id,foreign,references=groups.identifier"`
	  Scratch    string  `record:"-"`
	}

Every record type has exactly one primary key field. Foreign fields must name
the table and field they reference.

# Engines

Engines are created with a Builder or from a YAML Config:

	db, err := database.NewBuilder().
	  SetSQLite("/var/lib/app/app.sqlite").
	  Build(ctx)

An engine disables itself on the first failed statement. Data operations then
report failure through their return values and never touch the backend again.

# Tables

A Table binds a record type to a table name:

	customers, err := database.CreateTable[Customer](ctx, db, "customer")
	if err != nil {
	  return err
	}
	customers.InsertRecord(ctx, &Customer{Identifier: "u1", Name: "Smudge"})
	c, err := customers.GetFirstRecord(ctx, query.New().Match("identifier", "u1"))
*/
package database
