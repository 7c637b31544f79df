package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/statement"
	"github.com/safing/recorddb/base/database/storage"
	"github.com/safing/recorddb/base/log"
	"github.com/safing/recorddb/base/utils"
)

// SQLite is the embedded SQL engine. It uses a single connection to the
// database file.
type SQLite struct {
	*storage.State
	storage.SQLTables

	path string

	lock sync.Mutex
	conn *sqlite.Conn
}

func init() {
	_ = storage.Register(storage.TypeSQLite, func(_ context.Context, opts storage.Options) (storage.Interface, error) {
		return Open(opts.Path, opts.Debug), nil
	})
}

// Open opens or creates the database file at path, including its parent
// directories. If that fails, the returned engine is disabled and Err
// returns a *storage.ConnectionError.
func Open(path string, debug bool) *SQLite {
	db := &SQLite{
		State: storage.NewState(storage.TypeSQLite),
		path:  path,
	}
	db.SQLTables = storage.NewSQLTables(db, db.State)
	db.SetDebugMode(debug)

	conn, err := openConn(path)
	if err != nil {
		db.Disable(&storage.ConnectionError{Backend: storage.TypeSQLite, Err: err})
		return db
	}
	db.conn = conn

	log.Debugf("database/sqlite: opened %s", path)
	db.Debugf("status changed to connected (%s)", path)
	return db
}

func openConn(path string) (*sqlite.Conn, error) {
	if err := utils.EnsureDirectory(filepath.Dir(path), utils.AdminOnlyPermission); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if !utils.PathExists(path) {
		log.Infof("database/sqlite: creating new database at %s", path)
	}

	conn, err := sqlite.OpenConn(
		path,
		sqlite.OpenCreate,
		sqlite.OpenReadWrite,
		sqlite.OpenWAL,
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous=NORMAL;", // Best for WAL.
		"PRAGMA cache_size=-10000;",  // 10MB Cache.
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to init sqlite with %s: %w", pragma, err)
		}
	}

	return conn, nil
}

// Path returns the location of the database file.
func (db *SQLite) Path() string {
	return db.path
}

// Dialect returns the statement dialect of the engine.
func (db *SQLite) Dialect() *statement.Dialect {
	return statement.SQLite
}

// ExecuteStatement executes a statement that returns no rows.
func (db *SQLite) ExecuteStatement(ctx context.Context, stmt statement.Statement) bool {
	_, ok := db.execute(ctx, stmt, nil)
	return ok
}

// ExecuteCount executes a statement and returns the number of changed rows.
func (db *SQLite) ExecuteCount(ctx context.Context, stmt statement.Statement) (int, bool) {
	return db.execute(ctx, stmt, nil)
}

// ExecuteQuery executes a statement and returns all result rows.
func (db *SQLite) ExecuteQuery(ctx context.Context, stmt statement.Statement) ([]record.Row, bool) {
	var rows []record.Row
	_, ok := db.execute(ctx, stmt, func(s *sqlite.Stmt) error {
		rows = append(rows, scanRow(s))
		return nil
	})
	if !ok {
		return nil, false
	}
	return rows, true
}

// TableColumns returns the column names of a table.
func (db *SQLite) TableColumns(ctx context.Context, table string) ([]string, bool) {
	var columns []string
	_, ok := db.execute(ctx, statement.Statement{
		SQL:  "SELECT name FROM pragma_table_info(?1);",
		Args: []any{table},
	}, func(s *sqlite.Stmt) error {
		columns = append(columns, s.ColumnText(0))
		return nil
	})
	return columns, ok
}

func (db *SQLite) execute(ctx context.Context, stmt statement.Statement, resultFn func(*sqlite.Stmt) error) (int, bool) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if !db.IsEnabled() || db.conn == nil {
		return 0, false
	}

	db.Debugf("executing %s", stmt)

	if done := ctx.Done(); done != nil {
		db.conn.SetInterrupt(done)
		defer db.conn.SetInterrupt(nil)
	}

	err := sqlitex.Execute(db.conn, stmt.SQL, &sqlitex.ExecOptions{
		Args:       stmt.Args,
		ResultFunc: resultFn,
	})
	if err != nil {
		db.Disable(&storage.ExecutionError{
			Backend:   storage.TypeSQLite,
			Statement: stmt.SQL,
			Err:       err,
		})
		return 0, false
	}

	return db.conn.Changes(), true
}

func scanRow(s *sqlite.Stmt) record.Row {
	row := make(record.Row, s.ColumnCount())
	for i := range s.ColumnCount() {
		name := s.ColumnName(i)

		switch s.ColumnType(i) {
		case sqlite.TypeInteger:
			row[name] = s.ColumnInt64(i)
		case sqlite.TypeFloat:
			row[name] = s.ColumnFloat(i)
		case sqlite.TypeText:
			row[name] = s.ColumnText(i)
		case sqlite.TypeBlob:
			buf := make([]byte, s.ColumnLen(i))
			s.ColumnBytes(i, buf)
			row[name] = buf
		default:
			row[name] = nil
		}
	}
	return row
}

// Close closes the database file. The engine is disabled afterwards.
func (db *SQLite) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.MarkClosed()
	if db.conn == nil {
		return nil
	}

	err := db.conn.Close()
	db.conn = nil
	return err
}
