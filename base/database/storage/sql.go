package storage

import (
	"context"
	"fmt"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/statement"
	"github.com/safing/recorddb/base/log"
)

// SQLExecutor executes the statements of one SQL dialect on a live
// connection. Implementations serialize execution and disable their engine
// on the first failure.
type SQLExecutor interface {
	Dialect() *statement.Dialect

	// ExecuteStatement executes a statement that returns no rows.
	ExecuteStatement(ctx context.Context, stmt statement.Statement) bool
	// ExecuteCount executes a statement and returns the number of rows it changed.
	ExecuteCount(ctx context.Context, stmt statement.Statement) (int, bool)
	// ExecuteQuery executes a statement and returns all result rows.
	ExecuteQuery(ctx context.Context, stmt statement.Statement) ([]record.Row, bool)
	// TableColumns returns the column names of a table. No columns means the
	// table does not exist.
	TableColumns(ctx context.Context, table string) ([]string, bool)
}

// SQLTables implements the table operations of Interface for SQL engines.
type SQLTables struct {
	exec  SQLExecutor
	state *State
}

// NewSQLTables returns the table operations running on exec.
func NewSQLTables(exec SQLExecutor, state *State) SQLTables {
	return SQLTables{
		exec:  exec,
		state: state,
	}
}

// EnsureTable creates the table of the schema or adds its missing columns.
func (t SQLTables) EnsureTable(ctx context.Context, s *record.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := t.state.Check(); err != nil {
		return err
	}

	columns, ok := t.exec.TableColumns(ctx, s.Name)
	if !ok {
		return t.disabledErr()
	}

	stmts, err := t.exec.Dialect().Migrate(s, columns)
	if err != nil {
		return err
	}
	if len(columns) > 0 && len(stmts) > 0 {
		log.Infof("database/%s: adding %d missing columns to table %s", t.state.Backend(), len(stmts), s.Name)
	}

	for _, stmt := range stmts {
		if !t.exec.ExecuteStatement(ctx, stmt) {
			return t.disabledErr()
		}
	}
	return nil
}

// InsertRecord inserts r as a new row.
func (t SQLTables) InsertRecord(ctx context.Context, s *record.Schema, r any) bool {
	if !t.state.IsEnabled() {
		return false
	}

	payload, err := s.Encode(r)
	if err != nil {
		log.Warningf("database/%s: failed to encode record for table %s: %s", t.state.Backend(), s.Name, err)
		return false
	}
	stmt, err := t.exec.Dialect().Insert(ctx, s, payload)
	if err != nil {
		log.Warningf("database/%s: failed to build insert for table %s: %s", t.state.Backend(), s.Name, err)
		return false
	}

	return t.exec.ExecuteStatement(ctx, stmt)
}

// UpdateRecord updates the row with the primary key of r.
func (t SQLTables) UpdateRecord(ctx context.Context, s *record.Schema, r any) bool {
	if !t.state.IsEnabled() {
		return false
	}

	payload, err := s.Encode(r)
	if err != nil {
		log.Warningf("database/%s: failed to encode record for table %s: %s", t.state.Backend(), s.Name, err)
		return false
	}
	stmt, err := t.exec.Dialect().Update(ctx, s, payload)
	if err != nil {
		log.Warningf("database/%s: failed to build update for table %s: %s", t.state.Backend(), s.Name, err)
		return false
	}

	return t.exec.ExecuteStatement(ctx, stmt)
}

// GetFirstRecord returns the first row matching q.
func (t SQLTables) GetFirstRecord(ctx context.Context, s *record.Schema, q *query.Query) (record.Row, bool) {
	rows := t.GetRecordList(ctx, s, q)
	if len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// GetRecordList returns all rows matching q in backend order.
func (t SQLTables) GetRecordList(ctx context.Context, s *record.Schema, q *query.Query) []record.Row {
	if !t.state.IsEnabled() {
		return nil
	}

	stmt, err := t.exec.Dialect().Select(ctx, s, q)
	if err != nil {
		log.Warningf("database/%s: failed to build select for table %s: %s", t.state.Backend(), s.Name, err)
		return nil
	}

	rows, _ := t.exec.ExecuteQuery(ctx, stmt)
	return rows
}

// RemoveRecord deletes all rows matching q and returns how many were removed.
func (t SQLTables) RemoveRecord(ctx context.Context, s *record.Schema, q *query.Query) (int, bool) {
	if !t.state.IsEnabled() {
		return 0, false
	}

	stmt, err := t.exec.Dialect().Delete(ctx, s, q)
	if err != nil {
		log.Warningf("database/%s: failed to build delete for table %s: %s", t.state.Backend(), s.Name, err)
		return 0, false
	}

	return t.exec.ExecuteCount(ctx, stmt)
}

// Supports returns whether the dialect stores fields of the given kind.
func (t SQLTables) Supports(kind record.Kind) bool {
	return t.exec.Dialect().Supports(kind)
}

func (t SQLTables) disabledErr() error {
	if err := t.state.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDisabled, err)
	}
	return ErrDisabled
}
