package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"
)

// Backend Types.
const (
	TypeSQLite = "sqlite"
	TypeMySQL  = "mysql"
	TypeMongo  = "mongo"
)

// DefaultConnectTimeout is used when Options.ConnectTimeout is not set.
const DefaultConnectTimeout = 10 * time.Second

// Options holds the construction parameters of an engine.
type Options struct {
	Type             string
	Path             string
	ConnectionString string
	DatabaseName     string
	Username         string
	Password         string

	Debug          bool
	ConnectTimeout time.Duration
}

// Validate checks that all parameters required by the backend type are set.
// All problems are reported at once.
func (opts Options) Validate() error {
	var result *multierror.Error

	switch NormalizeType(opts.Type) {
	case "":
		result = multierror.Append(result, &ConfigurationError{Field: "type", Reason: "is required"})
	case TypeSQLite:
		if opts.Path == "" {
			result = multierror.Append(result, &ConfigurationError{Field: "path", Reason: "is required for sqlite"})
		}
	case TypeMySQL:
		if opts.ConnectionString == "" {
			result = multierror.Append(result, &ConfigurationError{Field: "connectionString", Reason: "is required for mysql"})
		}
		if opts.Username != "" && opts.Password == "" {
			result = multierror.Append(result, &ConfigurationError{Field: "password", Reason: "is required when username is set"})
		}
		if opts.Password != "" && opts.Username == "" {
			result = multierror.Append(result, &ConfigurationError{Field: "username", Reason: "is required when password is set"})
		}
	case TypeMongo:
		if opts.ConnectionString == "" {
			result = multierror.Append(result, &ConfigurationError{Field: "connectionString", Reason: "is required for mongo"})
		}
		if opts.DatabaseName == "" {
			result = multierror.Append(result, &ConfigurationError{Field: "databaseName", Reason: "is required for mongo"})
		}
	default:
		result = multierror.Append(result, &ConfigurationError{
			Field:  "type",
			Reason: fmt.Sprintf("%q is not supported", opts.Type),
			Err:    ErrUnknownType,
		})
	}

	return result.ErrorOrNil()
}

// ConnectTimeoutOrDefault returns the connect timeout to use.
func (opts Options) ConnectTimeoutOrDefault() time.Duration {
	if opts.ConnectTimeout > 0 {
		return opts.ConnectTimeout
	}
	return DefaultConnectTimeout
}

// NormalizeType returns the registry name of a backend type.
func NormalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// A Factory creates a new engine of its type. It only fails on invalid
// options: connection failures yield a disabled engine.
type Factory func(ctx context.Context, opts Options) (Interface, error)

var (
	storages     = make(map[string]Factory)
	storagesLock sync.Mutex
)

// Register registers a new storage type.
func Register(name string, factory Factory) error {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	name = NormalizeType(name)
	_, ok := storages[name]
	if ok {
		return errors.New("factory for this type already exists")
	}

	storages[name] = factory
	return nil
}

// Registered returns the sorted names of all registered storage types.
func Registered() []string {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	names := make([]string, 0, len(storages))
	for name := range storages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Start validates the options and starts a new engine of the type they name.
func Start(ctx context.Context, opts Options) (Interface, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	storagesLock.Lock()
	factory, ok := storages[NormalizeType(opts.Type)]
	storagesLock.Unlock()
	if !ok {
		return nil, &ConfigurationError{
			Field:  "type",
			Reason: fmt.Sprintf("storage type %s not registered (registered: %s)", opts.Type, strings.Join(Registered(), ", ")),
			Err:    ErrUnknownType,
		}
	}

	return factory(ctx, opts)
}
