package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name           string
		Options        Options
		ExpectedFields []string
	}{
		{"sqlite", Options{Type: "sqlite", Path: "/tmp/db.sqlite"}, nil},
		{"sqlite upper case", Options{Type: "SQLITE", Path: "/tmp/db.sqlite"}, nil},
		{"sqlite without path", Options{Type: "sqlite"}, []string{"path"}},
		{"missing type", Options{}, []string{"type"}},
		{"unknown type", Options{Type: "postgres"}, []string{"type"}},
		{"mysql", Options{Type: "mysql", ConnectionString: "tcp(localhost:3306)/test"}, nil},
		{"mysql with credentials", Options{Type: "MySQL", ConnectionString: "tcp(localhost:3306)/test", Username: "root", Password: "secret"}, nil},
		{"mysql username only", Options{Type: "mysql", ConnectionString: "tcp(localhost:3306)/test", Username: "root"}, []string{"password"}},
		{"mysql password only", Options{Type: "mysql", Password: "secret"}, []string{"connectionString", "username"}},
		{"mongo", Options{Type: "mongo", ConnectionString: "mongodb://localhost", DatabaseName: "test"}, nil},
		{"mongo without anything", Options{Type: "mongo"}, []string{"connectionString", "databaseName"}},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			err := c.Options.Validate()
			if len(c.ExpectedFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))
			fields := make([]string, 0, len(merr.Errors))
			for _, e := range merr.Errors {
				var cfgErr *ConfigurationError
				require.True(t, errors.As(e, &cfgErr))
				fields = append(fields, cfgErr.Field)
			}
			assert.Equal(t, c.ExpectedFields, fields)
		})
	}
}

func TestUnknownType(t *testing.T) {
	t.Parallel()

	_, err := Start(context.Background(), Options{Type: "postgres"})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "postgres")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	var started Options
	require.NoError(t, Register("Registry-Test", func(ctx context.Context, opts Options) (Interface, error) {
		started = opts
		return nil, nil
	}))
	assert.Error(t, Register("registry-test", nil))
	assert.Contains(t, Registered(), "registry-test")

	// Registered but not a known backend type.
	_, err := Start(context.Background(), Options{Type: "registry-test"})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Empty(t, started.Type)

	// Known backend type without a registered engine.
	_, err = Start(context.Background(), Options{Type: TypeSQLite, Path: "unused.sqlite"})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.ErrorContains(t, err, "not registered (registered: ")
	assert.ErrorContains(t, err, "registry-test")
}

func TestConnectTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultConnectTimeout, Options{}.ConnectTimeoutOrDefault())
	assert.Equal(t, 5*DefaultConnectTimeout, Options{ConnectTimeout: 5 * DefaultConnectTimeout}.ConnectTimeoutOrDefault())
}
