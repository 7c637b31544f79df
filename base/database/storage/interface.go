package storage

import (
	"context"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
)

// Interface defines the database engine API.
//
// Data operations never return backend errors. A failed operation disables
// the engine and reports failure through its normal return values, the
// triggering error is available through Err. Once disabled, an engine does
// not attempt any I/O again.
type Interface interface {
	// Schema

	// EnsureTable creates the table of the schema if it is missing, or adds
	// the columns it is missing. Existing columns are never altered or
	// dropped. Schema errors are returned before any I/O, even when the
	// engine is disabled.
	EnsureTable(ctx context.Context, s *record.Schema) error

	// Primary Interface
	InsertRecord(ctx context.Context, s *record.Schema, r any) bool
	UpdateRecord(ctx context.Context, s *record.Schema, r any) bool
	GetFirstRecord(ctx context.Context, s *record.Schema, q *query.Query) (record.Row, bool)
	GetRecordList(ctx context.Context, s *record.Schema, q *query.Query) []record.Row
	RemoveRecord(ctx context.Context, s *record.Schema, q *query.Query) (int, bool)

	// Supports returns whether the engine stores fields of the given kind.
	Supports(kind record.Kind) bool

	// Information and Control
	IsEnabled() bool
	SetDebugMode(debug bool)
	IsDebugMode() bool
	Err() error
	Close() error
}

// SQLEngine is implemented by engines that execute SQL statements.
type SQLEngine interface {
	Interface
	SQLExecutor
}
