// Package storagetest provides a test suite every storage engine must pass.
package storagetest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/storage"
)

// Customer is the record type of the suite.
type Customer struct {
	Identifier string `record:"identifier,primary"`
	Name       string `record:"name"`
	Visits     *int   `record:"visits"`
	Cache      string `record:"cache,ignore"`
}

// CustomerV2 adds fields to Customer.
type CustomerV2 struct {
	Identifier string  `record:"identifier,primary"`
	Name       string  `record:"name"`
	Visits     *int    `record:"visits"`
	Email      *string `record:"email"`
	Level      int     `record:"level"`
}

// TableName returns a random table name, so that suites can share a server.
func TableName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")
}

// Decode decodes row into a new R, leaving out fields db does not store.
func Decode[R any](t *testing.T, db storage.Interface, s *record.Schema, row record.Row) *R {
	t.Helper()

	r := new(R)
	require.NoError(t, s.Decode(row, r, func(f record.Field) bool {
		return db.Supports(f.Kind)
	}))
	return r
}

// Run runs the suite against an enabled engine.
func Run(t *testing.T, db storage.Interface) {
	t.Helper()

	t.Run("RoundTrip", func(t *testing.T) {
		testRoundTrip(t, db)
	})
	t.Run("ListOrder", func(t *testing.T) {
		testListOrder(t, db)
	})
	t.Run("Remove", func(t *testing.T) {
		testRemove(t, db)
	})
	t.Run("NullIsNotAFilter", func(t *testing.T) {
		testNullIsNotAFilter(t, db)
	})
	t.Run("SchemaErrors", func(t *testing.T) {
		testSchemaErrors(t, db)
	})

	assert.True(t, db.IsEnabled(), "%s", db.Err())
}

func ensure(t *testing.T, db storage.Interface, table string) *record.Schema {
	t.Helper()

	s, err := record.GenerateFor[Customer](table)
	require.NoError(t, err)
	require.NoError(t, db.EnsureTable(context.Background(), s))
	return s
}

func testRoundTrip(t *testing.T, db storage.Interface) {
	t.Helper()

	ctx := context.Background()
	s := ensure(t, db, TableName("customer"))

	visits := 3
	require.True(t, db.InsertRecord(ctx, s, &Customer{Identifier: "u1", Name: "Smudge", Visits: &visits, Cache: "x"}))

	row, ok := db.GetFirstRecord(ctx, s, query.New().Match("identifier", "u1"))
	require.True(t, ok)
	assert.Equal(t, &Customer{Identifier: "u1", Name: "Smudge", Visits: &visits}, Decode[Customer](t, db, s, row))

	require.True(t, db.UpdateRecord(ctx, s, &Customer{Identifier: "u1", Name: "Tom"}))
	row, ok = db.GetFirstRecord(ctx, s, query.New().Match("identifier", "u1"))
	require.True(t, ok)
	assert.Equal(t, &Customer{Identifier: "u1", Name: "Tom"}, Decode[Customer](t, db, s, row))

	_, ok = db.GetFirstRecord(ctx, s, query.New().Match("identifier", "u2"))
	assert.False(t, ok)
}

func testListOrder(t *testing.T, db storage.Interface) {
	t.Helper()

	ctx := context.Background()
	s := ensure(t, db, TableName("customer"))

	require.True(t, db.InsertRecord(ctx, s, &Customer{Identifier: "u1", Name: "Smudge"}))
	require.True(t, db.InsertRecord(ctx, s, &Customer{Identifier: "u2", Name: "Smudge"}))
	require.True(t, db.InsertRecord(ctx, s, &Customer{Identifier: "u3", Name: "Garfield"}))

	rows := db.GetRecordList(ctx, s, query.New().Match("name", "Smudge"))
	require.Len(t, rows, 2)
	assert.Equal(t, "u1", Decode[Customer](t, db, s, rows[0]).Identifier)
	assert.Equal(t, "u2", Decode[Customer](t, db, s, rows[1]).Identifier)

	assert.Len(t, db.GetRecordList(ctx, s, query.New()), 3)
	assert.Empty(t, db.GetRecordList(ctx, s, query.New().Match("name", "Smudge").Match("identifier", "u3")))
}

func testRemove(t *testing.T, db storage.Interface) {
	t.Helper()

	ctx := context.Background()
	s := ensure(t, db, TableName("customer"))

	for _, id := range []string{"u1", "u2", "u3"} {
		require.True(t, db.InsertRecord(ctx, s, &Customer{Identifier: id, Name: "Smudge"}))
	}

	removed, ok := db.RemoveRecord(ctx, s, query.New().Match("identifier", "u2"))
	assert.True(t, ok)
	assert.Equal(t, 1, removed)
	removed, ok = db.RemoveRecord(ctx, s, query.New().Match("name", "Smudge"))
	assert.True(t, ok)
	assert.Equal(t, 2, removed)
	removed, ok = db.RemoveRecord(ctx, s, query.New())
	assert.True(t, ok)
	assert.Equal(t, 0, removed)
}

func testNullIsNotAFilter(t *testing.T, db storage.Interface) {
	t.Helper()

	ctx := context.Background()
	s := ensure(t, db, TableName("customer"))

	visits := 1
	require.True(t, db.InsertRecord(ctx, s, &Customer{Identifier: "u1", Name: "Smudge", Visits: &visits}))

	q, err := s.AsQuery(&Customer{Identifier: "u1", Name: "Smudge"})
	require.NoError(t, err)
	again, err := s.AsQuery(&Customer{Identifier: "u1", Name: "Smudge"})
	require.NoError(t, err)
	assert.Equal(t, q.Pairs(), again.Pairs())

	row, ok := db.GetFirstRecord(ctx, s, q)
	require.True(t, ok)
	assert.Equal(t, &visits, Decode[Customer](t, db, s, row).Visits)
}

func testSchemaErrors(t *testing.T, db storage.Interface) {
	t.Helper()

	ctx := context.Background()
	var schemaErr *record.SchemaError

	noPrimary := record.NewSchema(TableName("broken"), record.OrdinaryField("name", record.KindString))
	assert.True(t, errors.As(db.EnsureTable(ctx, noPrimary), &schemaErr))

	missingRef := record.NewSchema(TableName("broken"),
		record.PrimaryField("id", record.KindInteger),
		record.Field{Name: "owner", Kind: record.KindString, Role: record.RoleForeign},
	)
	assert.True(t, errors.As(db.EnsureTable(ctx, missingRef), &schemaErr))
}

// RunMigration checks that ensuring an extended record type adds the new
// columns and keeps existing rows readable. Only SQL engines migrate.
func RunMigration(t *testing.T, db storage.Interface) {
	t.Helper()

	ctx := context.Background()
	table := TableName("customer")
	v1 := ensure(t, db, table)
	require.True(t, db.InsertRecord(ctx, v1, &Customer{Identifier: "u1", Name: "Smudge"}))

	v2, err := record.GenerateFor[CustomerV2](table)
	require.NoError(t, err)
	require.NoError(t, db.EnsureTable(ctx, v2))

	row, ok := db.GetFirstRecord(ctx, v2, query.New().Match("identifier", "u1"))
	require.True(t, ok)
	assert.Equal(t, &CustomerV2{Identifier: "u1", Name: "Smudge"}, Decode[CustomerV2](t, db, v2, row))

	email := "smudge@example.com"
	require.True(t, db.InsertRecord(ctx, v2, &CustomerV2{Identifier: "u2", Name: "Smudge", Email: &email, Level: 2}))
	assert.Len(t, db.GetRecordList(ctx, v1, query.New().Match("name", "Smudge")), 2)
}
