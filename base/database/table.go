package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluele/gcache"
	"github.com/mitchellh/copystructure"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/storage"
)

// TableOptions holds options that may be set for a Table.
type TableOptions struct {
	// CacheSize defines that records fetched by their primary key should be
	// cached and defines the cache size.
	// The cache is only invalidated by writes through the same Table. Records
	// changed through another Table or another process are served outdated
	// until they are evicted from the cache.
	CacheSize int
}

// Table binds the record type R to a table of an engine. It does not own the
// engine.
type Table[R any] struct {
	db     storage.Interface
	schema *record.Schema
	pk     record.Field
	cache  gcache.Cache
}

// NewTable returns the table name of db holding records of type R. The
// record type must declare exactly one primary key and reference metadata
// for every foreign field.
func NewTable[R any](db storage.Interface, name string, opts *TableOptions) (*Table[R], error) {
	schema, err := record.GenerateFor[R](name)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	pk, _ := schema.PrimaryKey()

	t := &Table[R]{
		db:     db,
		schema: schema,
		pk:     pk,
	}
	if opts != nil && opts.CacheSize > 0 {
		t.cache = gcache.New(opts.CacheSize).LRU().Build()
	}
	return t, nil
}

// CreateTable is like NewTable and also ensures the table exists.
func CreateTable[R any](ctx context.Context, db storage.Interface, name string) (*Table[R], error) {
	t, err := NewTable[R](db, name, nil)
	if err != nil {
		return nil, err
	}
	if err := t.Ensure(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Name returns the table name.
func (t *Table[R]) Name() string {
	return t.schema.Name
}

// Schema returns the schema of the record type.
func (t *Table[R]) Schema() *record.Schema {
	return t.schema
}

// Database returns the engine of the table.
func (t *Table[R]) Database() storage.Interface {
	return t.db
}

// Ensure creates the table or adds the columns it is missing.
func (t *Table[R]) Ensure(ctx context.Context) error {
	return t.db.EnsureTable(ctx, t.schema)
}

// InsertRecord inserts r and reports whether it was stored.
func (t *Table[R]) InsertRecord(ctx context.Context, r *R) bool {
	t.forget(r)
	return t.db.InsertRecord(ctx, t.schema, r)
}

// UpdateRecord updates the stored record with the primary key of r and
// reports whether the update was executed.
func (t *Table[R]) UpdateRecord(ctx context.Context, r *R) bool {
	t.forget(r)
	return t.db.UpdateRecord(ctx, t.schema, r)
}

// GetFirstRecord returns the first record matching q. It returns nil if no
// record matches or the engine failed. The error is a *record.MarshalError
// if the stored record does not fit R.
func (t *Table[R]) GetFirstRecord(ctx context.Context, q *query.Query) (*R, error) {
	if !t.db.IsEnabled() {
		return nil, nil
	}

	key, cacheable := t.cacheKey(q)
	if cacheable {
		if cached, err := t.cache.Get(key); err == nil {
			if r, ok := copyRecord(cached.(*R)); ok { //nolint:forcetypeassert
				return r, nil
			}
		}
	}

	row, ok := t.db.GetFirstRecord(ctx, t.schema, q)
	if !ok {
		return nil, nil
	}
	r, err := t.decode(row)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if cached, ok := copyRecord(r); ok {
			_ = t.cache.Set(key, cached)
		}
	}
	return r, nil
}

// GetRecordList returns all records matching q in the order of the backend.
// Records that do not fit R are skipped; the first such error is returned
// along with the records that did fit.
func (t *Table[R]) GetRecordList(ctx context.Context, q *query.Query) ([]*R, error) {
	rows := t.db.GetRecordList(ctx, t.schema, q)

	var (
		records  = make([]*R, 0, len(rows))
		firstErr error
	)
	for _, row := range rows {
		r, err := t.decode(row)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		records = append(records, r)
	}
	return records, firstErr
}

// RemoveRecord removes all records matching q and returns how many were
// removed. The second return value is false if the engine failed.
func (t *Table[R]) RemoveRecord(ctx context.Context, q *query.Query) (int, bool) {
	if t.cache != nil {
		t.cache.Purge()
	}
	return t.db.RemoveRecord(ctx, t.schema, q)
}

func (t *Table[R]) decode(row record.Row) (*R, error) {
	r := new(R)
	err := t.schema.Decode(row, r, func(f record.Field) bool {
		return t.db.Supports(f.Kind)
	})
	if err != nil {
		var marshalErr *record.MarshalError
		if errors.As(err, &marshalErr) {
			return nil, err
		}
		return nil, &record.MarshalError{Table: t.schema.Name, Reason: "cannot decode row", Err: err}
	}
	return r, nil
}

// cacheKey returns the cache key of a query that selects exactly one primary
// key value.
func (t *Table[R]) cacheKey(q *query.Query) (string, bool) {
	if t.cache == nil {
		return "", false
	}
	pairs := q.Pairs()
	if len(pairs) != 1 || pairs[0].Field != t.pk.Name {
		return "", false
	}
	return fmt.Sprint(pairs[0].Value), true
}

func (t *Table[R]) forget(r *R) {
	if t.cache == nil || r == nil {
		return
	}
	payload, err := t.schema.Encode(r)
	if err != nil {
		return
	}
	t.cache.Remove(fmt.Sprint(payload[t.pk.Name]))
}

// copyRecord returns a deep copy of r, so that pointer fields of cached
// records are never shared with callers.
func copyRecord[R any](r *R) (*R, bool) {
	copied, err := copystructure.Copy(r)
	if err != nil {
		return nil, false
	}
	return copied.(*R), true //nolint:forcetypeassert
}
