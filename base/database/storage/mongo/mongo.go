package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
	"github.com/safing/recorddb/base/database/storage"
	"github.com/safing/recorddb/base/log"
)

const idField = "_id"

// Mongo is the document store engine. Every table is a collection with a
// unique index on the primary key field. Collections are schemaless, so
// EnsureTable never migrates documents.
type Mongo struct {
	*storage.State

	lock   sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

func init() {
	_ = storage.Register(storage.TypeMongo, func(ctx context.Context, opts storage.Options) (storage.Interface, error) {
		return Open(ctx, opts)
	})
}

// Open connects to the deployment at opts.ConnectionString and uses the
// database opts.DatabaseName. Username and Password, if set, replace the
// credentials of the connection string. An invalid connection string fails
// with a *storage.ConfigurationError. If the deployment cannot be reached,
// the returned engine is disabled and Err returns a *storage.ConnectionError.
func Open(ctx context.Context, opts storage.Options) (*Mongo, error) {
	timeout := opts.ConnectTimeoutOrDefault()
	clientOpts := options.Client().
		ApplyURI(opts.ConnectionString).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if opts.Username != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, &storage.ConfigurationError{
			Field:  "connectionString",
			Reason: "is not a valid mongo connection string",
			Err:    err,
		}
	}

	db := &Mongo{
		State:  storage.NewState(storage.TypeMongo),
		client: client,
		db:     client.Database(opts.DatabaseName),
	}
	db.SetDebugMode(opts.Debug)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		db.Disable(&storage.ConnectionError{Backend: storage.TypeMongo, Err: err})
		return db, nil
	}

	log.Debugf("database/mongo: connected to database %s", opts.DatabaseName)
	db.Debugf("status changed to connected")
	return db, nil
}

// Filter translates the query to a filter document. The empty query
// matches every document.
func Filter(q *query.Query) bson.D {
	filter := bson.D{}
	for _, p := range q.Pairs() {
		filter = append(filter, bson.E{Key: p.Field, Value: p.Value})
	}
	return filter
}

// Document translates the write payload to a document in field order.
func Document(s *record.Schema, payload map[string]any) bson.D {
	doc := make(bson.D, 0, len(payload))
	for _, name := range s.FieldNames() {
		doc = append(doc, bson.E{Key: name, Value: payload[name]})
	}
	return doc
}

// AddField returns the filter selecting the documents missing the field and
// the update setting it to null.
func AddField(name string) (filter, update bson.D) {
	filter = bson.D{{Key: name, Value: bson.D{{Key: "$exists", Value: false}}}}
	update = bson.D{{Key: "$set", Value: bson.D{{Key: name, Value: nil}}}}
	return filter, update
}

// Supports returns whether the engine stores fields of the given kind.
func (db *Mongo) Supports(kind record.Kind) bool {
	return kind != record.KindUnknown
}

// EnsureTable creates the collection of the schema and its primary key
// index if they are missing. Documents missing a field of the schema get the
// field set to null.
func (db *Mongo) EnsureTable(ctx context.Context, s *record.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	pk, _ := s.PrimaryKey()

	err := db.run(ctx, fmt.Sprintf("ensure collection %s with unique index on %s", s.Name, pk.Name), func() error {
		names, err := db.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: s.Name}})
		if err != nil {
			return err
		}
		if len(names) == 0 {
			if err := db.db.CreateCollection(ctx, s.Name); err != nil {
				return err
			}
		}

		_, err = db.db.Collection(s.Name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: pk.Name, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		return err
	})
	if err != nil {
		return err
	}

	for _, f := range s.Fields() {
		if !db.Supports(f.Kind) || f.Role == record.RolePrimary {
			continue
		}
		err = db.run(ctx, fmt.Sprintf("add field %s to %s", f.Name, s.Name), func() error {
			filter, update := AddField(f.Name)
			res, err := db.db.Collection(s.Name).UpdateMany(ctx, filter, update)
			if err != nil {
				return err
			}
			if res.ModifiedCount > 0 {
				log.Infof("database/mongo: added field %s to %d documents of %s", f.Name, res.ModifiedCount, s.Name)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertRecord inserts r as a new document.
func (db *Mongo) InsertRecord(ctx context.Context, s *record.Schema, r any) bool {
	doc, ok := db.document(s, r)
	if !ok {
		return false
	}

	return db.run(ctx, fmt.Sprintf("insert into %s %v", s.Name, doc), func() error {
		_, err := db.db.Collection(s.Name).InsertOne(ctx, doc)
		return err
	}) == nil
}

// UpdateRecord sets all fields of the document with the primary key of r.
func (db *Mongo) UpdateRecord(ctx context.Context, s *record.Schema, r any) bool {
	doc, ok := db.document(s, r)
	if !ok {
		return false
	}
	pk, err := s.PrimaryKey()
	if err != nil {
		log.Warningf("database/mongo: cannot update record of table %s: %s", s.Name, err)
		return false
	}

	var (
		filter = bson.D{}
		set    = bson.D{}
	)
	for _, e := range doc {
		if e.Key == pk.Name {
			filter = append(filter, e)
		} else {
			set = append(set, e)
		}
	}
	if len(filter) == 0 || filter[0].Value == nil {
		log.Warningf("database/mongo: cannot update record of table %s without primary key value", s.Name)
		return false
	}

	return db.run(ctx, fmt.Sprintf("update %s %v set %v", s.Name, filter, set), func() error {
		_, err := db.db.Collection(s.Name).UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
		return err
	}) == nil
}

// GetFirstRecord returns the first document matching q.
func (db *Mongo) GetFirstRecord(ctx context.Context, s *record.Schema, q *query.Query) (record.Row, bool) {
	var (
		filter = Filter(q)
		doc    bson.D
		found  bool
	)
	err := db.run(ctx, fmt.Sprintf("find one in %s %s", s.Name, q.Print()), func() error {
		err := db.db.Collection(s.Name).FindOne(ctx, filter).Decode(&doc)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil
		case err != nil:
			return err
		default:
			found = true
			return nil
		}
	})
	if err != nil || !found {
		return nil, false
	}
	return toRow(doc), true
}

// GetRecordList returns all documents matching q in natural order.
func (db *Mongo) GetRecordList(ctx context.Context, s *record.Schema, q *query.Query) []record.Row {
	var (
		filter = Filter(q)
		docs   []bson.D
	)
	err := db.run(ctx, fmt.Sprintf("find in %s %s", s.Name, q.Print()), func() error {
		cursor, err := db.db.Collection(s.Name).Find(ctx, filter)
		if err != nil {
			return err
		}
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil
	}

	rows := make([]record.Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, toRow(doc))
	}
	return rows
}

// RemoveRecord deletes all documents matching q and returns how many were
// removed.
func (db *Mongo) RemoveRecord(ctx context.Context, s *record.Schema, q *query.Query) (int, bool) {
	var (
		filter  = Filter(q)
		removed int64
	)
	err := db.run(ctx, fmt.Sprintf("delete from %s %s", s.Name, q.Print()), func() error {
		res, err := db.db.Collection(s.Name).DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		removed = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, false
	}
	return int(removed), true
}

func (db *Mongo) document(s *record.Schema, r any) (bson.D, bool) {
	if !db.IsEnabled() {
		return nil, false
	}

	payload, err := s.Encode(r)
	if err != nil {
		log.Warningf("database/mongo: failed to encode record for table %s: %s", s.Name, err)
		return nil, false
	}
	return Document(s, payload), true
}

// run executes one command. A failing command disables the engine.
func (db *Mongo) run(ctx context.Context, command string, fn func() error) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if err := db.Check(); err != nil {
		return err
	}
	db.Debugf("executing %s", command)

	if err := fn(); err != nil {
		execErr := &storage.ExecutionError{
			Backend:   storage.TypeMongo,
			Statement: command,
			Err:       err,
		}
		db.Disable(execErr)
		return fmt.Errorf("%w: %w", storage.ErrDisabled, execErr)
	}
	return nil
}

func toRow(doc bson.D) record.Row {
	row := make(record.Row, len(doc))
	for _, e := range doc {
		if e.Key == idField {
			continue
		}
		row[e.Key] = e.Value
	}
	return row
}

// Close disconnects the client. The engine is disabled afterwards.
func (db *Mongo) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.MarkClosed()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}
