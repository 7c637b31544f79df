/*
Package record describes how Go structs are persisted as rows or documents.

A record type declares its fields with the "record" struct tag:

	type Customer struct {
		Identifier string  `record:"identifier,primary"`
		Name       *string `record:"name"`
		Group      string  `record:"group,foreign,references=groups.identifier"`
		Cached     int     `record:"-"`
	}

Generate evaluates the tags once into an immutable Schema. Every storage
backend works from the Schema only; tags are never inspected again.

Untagged exported fields are ordinary fields named after the Go field,
pointer fields are nullable and unexported fields are never persisted.
*/
package record
