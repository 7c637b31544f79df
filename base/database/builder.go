package database

import (
	"context"
	"time"

	"github.com/safing/recorddb/base/database/storage"
)

// Builder collects the parameters of a storage engine.
type Builder struct {
	opts storage.Options
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetType sets the backend type: sqlite, mysql or mongo, in any case.
func (b *Builder) SetType(t string) *Builder {
	b.opts.Type = t
	return b
}

// SetPath sets the location of the sqlite database file.
func (b *Builder) SetPath(path string) *Builder {
	b.opts.Path = path
	return b
}

// SetConnectionString sets the connection string of the mysql or mongo server.
func (b *Builder) SetConnectionString(connectionString string) *Builder {
	b.opts.ConnectionString = connectionString
	return b
}

// SetDatabaseName sets the name of the mongo database.
func (b *Builder) SetDatabaseName(name string) *Builder {
	b.opts.DatabaseName = name
	return b
}

// SetUsername sets the username to connect with.
func (b *Builder) SetUsername(username string) *Builder {
	b.opts.Username = username
	return b
}

// SetPassword sets the password to connect with.
func (b *Builder) SetPassword(password string) *Builder {
	b.opts.Password = password
	return b
}

// SetDebug sets whether the engine starts in debug mode.
func (b *Builder) SetDebug(debug bool) *Builder {
	b.opts.Debug = debug
	return b
}

// SetConnectTimeout sets how long connecting may take.
func (b *Builder) SetConnectTimeout(timeout time.Duration) *Builder {
	b.opts.ConnectTimeout = timeout
	return b
}

// SetSQLite configures a sqlite database at path.
func (b *Builder) SetSQLite(path string) *Builder {
	return b.SetType(storage.TypeSQLite).SetPath(path)
}

// SetMySQL configures a mysql server.
func (b *Builder) SetMySQL(connectionString string) *Builder {
	return b.SetType(storage.TypeMySQL).SetConnectionString(connectionString)
}

// SetMySQLWithCredentials configures a mysql server with credentials.
func (b *Builder) SetMySQLWithCredentials(connectionString, username, password string) *Builder {
	return b.SetMySQL(connectionString).SetUsername(username).SetPassword(password)
}

// SetMongo configures a mongo deployment and database.
func (b *Builder) SetMongo(connectionString, databaseName string) *Builder {
	return b.SetType(storage.TypeMongo).SetConnectionString(connectionString).SetDatabaseName(databaseName)
}

// Options returns the collected parameters.
func (b *Builder) Options() storage.Options {
	return b.opts
}

// Validate reports every missing or invalid parameter at once.
func (b *Builder) Validate() error {
	return b.opts.Validate()
}

// Build validates the parameters and starts the engine. Only invalid
// parameters fail: an engine that cannot connect is returned disabled, with
// the cause available through its Err method.
func (b *Builder) Build(ctx context.Context) (storage.Interface, error) {
	return storage.Start(ctx, b.opts)
}
