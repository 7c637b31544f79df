package mysql

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/statement"
	"github.com/safing/recorddb/base/database/storage"
	"github.com/safing/recorddb/base/database/storage/storagetest"
)

// Compile time interface checks.
var _ storage.SQLEngine = &MySQL{}

const unreachableDSN = "root@tcp(127.0.0.1:1)/test?timeout=200ms"

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name     string
		Options  storage.Options
		User     string
		Password string
		Timeout  time.Duration
	}{
		{
			Name:    "plain",
			Options: storage.Options{ConnectionString: "tcp(db:3306)/shop"},
			Timeout: storage.DefaultConnectTimeout,
		},
		{
			Name:     "credentials replace dsn user",
			Options:  storage.Options{ConnectionString: "nobody@tcp(db:3306)/shop", Username: "root", Password: "secret"},
			User:     "root",
			Password: "secret",
			Timeout:  storage.DefaultConnectTimeout,
		},
		{
			Name:    "url prefix and timeout",
			Options: storage.Options{ConnectionString: "mysql://app@tcp(db:3306)/shop?timeout=3s"},
			User:    "app",
			Timeout: 3 * time.Second,
		},
		{
			Name:    "configured timeout",
			Options: storage.Options{ConnectionString: "tcp(db:3306)/shop", ConnectTimeout: time.Second},
			Timeout: time.Second,
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			dsn, err := BuildDSN(c.Options)
			require.NoError(t, err)
			cfg, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)

			assert.Equal(t, "db:3306", cfg.Addr)
			assert.Equal(t, "shop", cfg.DBName)
			assert.Equal(t, c.User, cfg.User)
			assert.Equal(t, c.Password, cfg.Passwd)
			assert.Equal(t, c.Timeout, cfg.Timeout)
		})
	}
}

func TestInvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), storage.Options{Type: storage.TypeMySQL, ConnectionString: "tcp(db:3306"})
	var cfgErr *storage.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "connectionString", cfgErr.Field)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.NotContains(t, redact("root:secret@tcp(db:3306)/shop"), "secret")
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(ctx, storage.Options{
		Type:             storage.TypeMySQL,
		ConnectionString: unreachableDSN,
		ConnectTimeout:   time.Second,
	})
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	assert.False(t, db.IsEnabled())
	var connErr *storage.ConnectionError
	require.True(t, errors.As(db.Err(), &connErr))
	assert.Equal(t, storage.TypeMySQL, connErr.Backend)

	s, err := record.GenerateFor[storagetest.Customer]("customer")
	require.NoError(t, err)
	assert.ErrorIs(t, db.EnsureTable(ctx, s), storage.ErrDisabled)
	assert.False(t, db.InsertRecord(ctx, s, &storagetest.Customer{Identifier: "u1"}))
	_, ok := db.GetFirstRecord(ctx, s, query.New().Match("identifier", "u1"))
	assert.False(t, ok)
	assert.Empty(t, db.GetRecordList(ctx, s, query.New()))
	removed, ok := db.RemoveRecord(ctx, s, query.New())
	assert.False(t, ok)
	assert.Zero(t, removed)

	// Schema errors are reported before any I/O.
	var schemaErr *record.SchemaError
	assert.True(t, errors.As(db.EnsureTable(ctx, record.NewSchema("customer")), &schemaErr))

	assert.True(t, db.Supports(record.KindBoolean))
	assert.False(t, db.Supports(record.KindFloat))
}

func openLive(t *testing.T) *MySQL {
	t.Helper()

	dsn := os.Getenv("RECORDDB_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("RECORDDB_TEST_MYSQL_DSN not set")
	}

	db, err := Open(context.Background(), storage.Options{
		Type:             storage.TypeMySQL,
		ConnectionString: dsn,
		Debug:            true,
	})
	require.NoError(t, err)
	require.True(t, db.IsEnabled(), "%s", db.Err())
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func TestLive(t *testing.T) {
	t.Parallel()

	db := openLive(t)
	storagetest.Run(t, db)
	storagetest.RunMigration(t, db)
}

func TestLiveBoolean(t *testing.T) {
	t.Parallel()

	type flag struct {
		Name   string `record:"name,primary"`
		Active bool   `record:"active"`
	}

	ctx := context.Background()
	db := openLive(t)
	s, err := record.GenerateFor[flag](storagetest.TableName("flags"))
	require.NoError(t, err)
	require.NoError(t, db.EnsureTable(ctx, s))
	require.True(t, db.InsertRecord(ctx, s, &flag{Name: "dark-mode", Active: true}))

	row, ok := db.GetFirstRecord(ctx, s, query.New().Match("active", true))
	require.True(t, ok)
	assert.Equal(t, &flag{Name: "dark-mode", Active: true}, storagetest.Decode[flag](t, db, s, row))
}

func TestLiveDisabledAfterExecutionError(t *testing.T) {
	t.Parallel()

	db := openLive(t)
	assert.False(t, db.ExecuteStatement(context.Background(), statement.Statement{SQL: "SELEC nonsense"}))
	assert.False(t, db.IsEnabled())

	var execErr *storage.ExecutionError
	assert.True(t, errors.As(db.Err(), &execErr))
}
