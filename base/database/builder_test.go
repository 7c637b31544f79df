package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/recorddb/base/database/storage"
)

func TestBuilderValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name    string
		Builder *Builder
		Fields  []string
	}{
		{"sqlite", NewBuilder().SetSQLite("/tmp/test.sqlite"), nil},
		{"sqlite missing path", NewBuilder().SetType("SQLITE"), []string{"path"}},
		{"missing type", NewBuilder().SetPath("/tmp/test.sqlite"), []string{"type"}},
		{"unknown type", NewBuilder().SetType("oracle"), []string{"type"}},
		{"mysql", NewBuilder().SetMySQL("tcp(localhost:3306)/app"), nil},
		{"mysql credentials", NewBuilder().SetMySQLWithCredentials("tcp(localhost:3306)/app", "app", "secret"), nil},
		{"mysql missing password", NewBuilder().SetMySQL("tcp(localhost:3306)/app").SetUsername("app"), []string{"password"}},
		{"mongo", NewBuilder().SetMongo("mongodb://localhost", "app"), nil},
		{"mongo missing database", NewBuilder().SetType("Mongo").SetConnectionString("mongodb://localhost"), []string{"databaseName"}},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			err := c.Builder.Validate()
			if len(c.Fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))
			require.Len(t, merr.Errors, len(c.Fields))
			for i, field := range c.Fields {
				var cfgErr *storage.ConfigurationError
				require.True(t, errors.As(merr.Errors[i], &cfgErr))
				assert.Equal(t, field, cfgErr.Field)
			}
		})
	}
}

func TestBuilderUnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().SetType("oracle").Build(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnknownType)
}

func TestBuilderOptions(t *testing.T) {
	t.Parallel()

	opts := NewBuilder().
		SetMySQLWithCredentials("tcp(localhost:3306)/app", "app", "secret").
		SetDebug(true).
		SetConnectTimeout(time.Second).
		Options()

	assert.Equal(t, storage.Options{
		Type:             storage.TypeMySQL,
		ConnectionString: "tcp(localhost:3306)/app",
		Username:         "app",
		Password:         "secret",
		Debug:            true,
		ConnectTimeout:   time.Second,
	}, opts)
}

func TestBuildSQLite(t *testing.T) {
	t.Parallel()

	db, err := NewBuilder().
		SetType("SQLite").
		SetPath(filepath.Join(t.TempDir(), "app.sqlite")).
		SetDebug(true).
		Build(context.Background())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()

	assert.True(t, db.IsEnabled())
	assert.True(t, db.IsDebugMode())
	db.SetDebugMode(false)
	assert.False(t, db.IsDebugMode())
}

func TestBuildUnreachable(t *testing.T) {
	t.Parallel()

	cases := []*Builder{
		NewBuilder().SetMySQL("root@tcp(127.0.0.1:1)/test?timeout=200ms"),
		NewBuilder().SetMongo("mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "test"),
	}

	for _, b := range cases {
		db, err := b.SetConnectTimeout(time.Second).Build(context.Background())
		require.NoError(t, err)

		assert.False(t, db.IsEnabled())
		var connErr *storage.ConnectionError
		assert.True(t, errors.As(db.Err(), &connErr))
		_ = db.Close()
	}
}
