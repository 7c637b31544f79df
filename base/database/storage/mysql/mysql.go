package mysql

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	sqldblogger "github.com/simukti/sqldb-logger"

	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/statement"
	"github.com/safing/recorddb/base/database/storage"
	"github.com/safing/recorddb/base/log"
)

// MySQL is the networked SQL engine. It uses a single connection.
type MySQL struct {
	*storage.State
	storage.SQLTables

	lock sync.Mutex
	db   *sql.DB
}

func init() {
	_ = storage.Register(storage.TypeMySQL, func(ctx context.Context, opts storage.Options) (storage.Interface, error) {
		return Open(ctx, opts)
	})
}

// Open connects to the server named by opts.ConnectionString, a DSN as
// understood by github.com/go-sql-driver/mysql. Username and Password replace
// the credentials of the DSN. An invalid DSN fails with a
// *storage.ConfigurationError. If the server cannot be reached, the returned
// engine is disabled and Err returns a *storage.ConnectionError.
func Open(ctx context.Context, opts storage.Options) (*MySQL, error) {
	dsn, err := BuildDSN(opts)
	if err != nil {
		return nil, err
	}

	db := &MySQL{
		State: storage.NewState(storage.TypeMySQL),
	}
	db.SQLTables = storage.NewSQLTables(db, db.State)
	db.SetDebugMode(opts.Debug)

	db.db = sqldblogger.OpenDriver(
		dsn,
		&mysql.MySQLDriver{},
		&statementLogger{state: db.State},
		sqldblogger.WithMinimumLevel(sqldblogger.LevelTrace),
		sqldblogger.WithSQLQueryAsMessage(true),
	)
	db.db.SetMaxOpenConns(1)
	db.db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeoutOrDefault())
	defer cancel()
	if err := db.db.PingContext(pingCtx); err != nil {
		db.Disable(&storage.ConnectionError{Backend: storage.TypeMySQL, Err: err})
		return db, nil
	}

	log.Debugf("database/mysql: connected to %s", redact(dsn))
	db.Debugf("status changed to connected")
	return db, nil
}

// BuildDSN returns the driver DSN of the options.
func BuildDSN(opts storage.Options) (string, error) {
	cfg, err := mysql.ParseDSN(strings.TrimPrefix(opts.ConnectionString, "mysql://"))
	if err != nil {
		return "", &storage.ConfigurationError{
			Field:  "connectionString",
			Reason: "is not a valid mysql DSN",
			Err:    err,
		}
	}

	if opts.Username != "" {
		cfg.User = opts.Username
		cfg.Passwd = opts.Password
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = opts.ConnectTimeoutOrDefault()
	}

	return cfg.FormatDSN(), nil
}

func redact(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "<invalid dsn>"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "***"
	}
	return cfg.FormatDSN()
}

// Dialect returns the statement dialect of the engine.
func (db *MySQL) Dialect() *statement.Dialect {
	return statement.MySQL
}

// ExecuteStatement executes a statement that returns no rows.
func (db *MySQL) ExecuteStatement(ctx context.Context, stmt statement.Statement) bool {
	_, ok := db.ExecuteCount(ctx, stmt)
	return ok
}

// ExecuteCount executes a statement and returns the number of changed rows.
func (db *MySQL) ExecuteCount(ctx context.Context, stmt statement.Statement) (int, bool) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if !db.IsEnabled() {
		return 0, false
	}
	db.Debugf("executing %s", stmt)

	res, err := db.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		db.fail(stmt, err)
		return 0, false
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, true
	}
	return int(affected), true
}

// ExecuteQuery executes a statement and returns all result rows.
func (db *MySQL) ExecuteQuery(ctx context.Context, stmt statement.Statement) ([]record.Row, bool) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if !db.IsEnabled() {
		return nil, false
	}
	db.Debugf("executing %s", stmt)

	result, err := db.query(ctx, stmt)
	if err != nil {
		db.fail(stmt, err)
		return nil, false
	}
	return result, true
}

func (db *MySQL) query(ctx context.Context, stmt statement.Statement) ([]record.Row, error) {
	rows, err := db.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []record.Row
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		row := make(record.Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// TableColumns returns the column names of a table in the current database.
func (db *MySQL) TableColumns(ctx context.Context, table string) ([]string, bool) {
	rows, ok := db.ExecuteQuery(ctx, statement.Statement{
		SQL: "SELECT column_name AS name FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position",
		Args: []any{table},
	})
	if !ok {
		return nil, false
	}

	columns := make([]string, 0, len(rows))
	for _, row := range rows {
		switch name := row["name"].(type) {
		case string:
			columns = append(columns, name)
		case []byte:
			columns = append(columns, string(name))
		}
	}
	return columns, true
}

func (db *MySQL) fail(stmt statement.Statement, err error) {
	db.Disable(&storage.ExecutionError{
		Backend:   storage.TypeMySQL,
		Statement: stmt.SQL,
		Err:       err,
	})
}

// Close closes the connection. The engine is disabled afterwards.
func (db *MySQL) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.MarkClosed()
	return db.db.Close()
}

// statementLogger forwards driver level events to the trace log while debug
// mode is on.
type statementLogger struct {
	state *storage.State
}

func (sl *statementLogger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	if !sl.state.IsDebugMode() {
		return
	}

	duration, _ := data["duration"].(float64)
	log.Tracef(
		"database/mysql: driver %s: %s (args=%v, took %s)",
		level, msg, data["args"], time.Duration(duration*float64(time.Millisecond)),
	)
}
