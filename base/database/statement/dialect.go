package statement

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/safing/recorddb/base/database/query"
	"github.com/safing/recorddb/base/database/record"
)

// Dialect builds statements for one SQL backend.
type Dialect struct {
	name  string
	types map[record.Kind]string
	dml   dmlBuilder
}

// dmlBuilder builds parameterized data statements with a bob dialect.
type dmlBuilder interface {
	insert(ctx context.Context, table string, columns []string, values []any) (Statement, error)
	update(ctx context.Context, table string, columns []string, values []any, filter []query.Pair) (Statement, error)
	delete(ctx context.Context, table string, filter []query.Pair) (Statement, error)
	selectAll(ctx context.Context, table string, filter []query.Pair) (Statement, error)
}

var (
	// SQLite is the dialect of the embedded SQL backend.
	SQLite = &Dialect{
		name: "sqlite",
		types: map[record.Kind]string{
			record.KindString:  "VARCHAR(255)",
			record.KindInteger: "INTEGER",
		},
		dml: sqliteBuilder{},
	}

	// MySQL is the dialect of the networked SQL backend.
	MySQL = &Dialect{
		name: "mysql",
		types: map[record.Kind]string{
			record.KindString:  "VARCHAR(255)",
			record.KindInteger: "INTEGER",
			record.KindBoolean: "BOOLEAN",
		},
		dml: mysqlBuilder{},
	}
)

// Name returns the name of the dialect.
func (d *Dialect) Name() string {
	return d.name
}

// MapType returns the column type for the given kind. The second return
// value is false if the dialect cannot store the kind.
func (d *Dialect) MapType(kind record.Kind) (string, bool) {
	sqlType, ok := d.types[kind]
	return sqlType, ok
}

// Supports returns whether the dialect can store the kind.
func (d *Dialect) Supports(kind record.Kind) bool {
	_, ok := d.types[kind]
	return ok
}

// Persisted returns the fields of the schema the dialect stores, in
// declaration order.
func (d *Dialect) Persisted(s *record.Schema) []record.Field {
	var fields []record.Field
	for _, f := range s.Fields() {
		if d.Supports(f.Kind) {
			fields = append(fields, f)
		}
	}
	return fields
}

// CreateTable builds the CREATE TABLE statement of the schema: the primary
// key first, then ordinary fields, then foreign fields with their REFERENCES
// clause. Fields of unsupported kinds are left out.
func (d *Dialect) CreateTable(s *record.Schema) (Statement, error) {
	if err := d.validate(s); err != nil {
		return Statement{}, err
	}

	var columns []string
	for _, role := range []record.Role{record.RolePrimary, record.RoleField, record.RoleForeign} {
		for _, f := range s.FieldsByRole(role) {
			def, ok := d.columnDef(f)
			if !ok {
				continue
			}
			columns = append(columns, def)
		}
	}

	return Statement{
		SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", s.Name, strings.Join(columns, ", ")),
	}, nil
}

// AddColumn builds the statement adding the column of field f to the table.
func (d *Dialect) AddColumn(s *record.Schema, f record.Field) (Statement, error) {
	if f.Role == record.RoleForeign && f.Reference == nil {
		return Statement{}, &record.SchemaError{Table: s.Name, Field: f.Name, Reason: "foreign field is missing its reference (references=table.field)"}
	}

	def, ok := d.columnDef(f)
	if !ok {
		return Statement{}, fmt.Errorf("%s cannot store field %s of kind %s", d.name, f.Name, f.Kind)
	}

	// A primary key cannot be added to an existing table.
	def = strings.TrimSuffix(def, " PRIMARY KEY")

	return Statement{
		SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", s.Name, def),
	}, nil
}

// validate checks the role constraints of the schema and that the dialect
// can store its primary key.
func (d *Dialect) validate(s *record.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	pk, _ := s.PrimaryKey()
	if !d.Supports(pk.Kind) {
		return &record.SchemaError{
			Table:  s.Name,
			Field:  pk.Name,
			Reason: fmt.Sprintf("primary key of kind %s cannot be stored by %s", pk.Kind, d.name),
		}
	}
	return nil
}

func (d *Dialect) columnDef(f record.Field) (string, bool) {
	sqlType, ok := d.MapType(f.Kind)
	if !ok {
		return "", false
	}

	switch f.Role {
	case record.RolePrimary:
		return fmt.Sprintf("%s %s PRIMARY KEY", f.Name, sqlType), true
	case record.RoleForeign:
		if f.Reference == nil {
			return fmt.Sprintf("%s %s", f.Name, sqlType), true
		}
		return fmt.Sprintf("%s %s REFERENCES %s(%s)", f.Name, sqlType, f.Reference.Table, f.Reference.Field), true
	default:
		return fmt.Sprintf("%s %s", f.Name, sqlType), true
	}
}

// Migrate returns the statements that bring a table with the given columns
// up to the schema. No columns means the table does not exist yet and is
// created. Otherwise a column is added for every stored field the table is
// missing; existing columns are left untouched.
func (d *Dialect) Migrate(s *record.Schema, columns []string) ([]Statement, error) {
	if err := d.validate(s); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		stmt, err := d.CreateTable(s)
		if err != nil {
			return nil, err
		}
		return []Statement{stmt}, nil
	}

	var stmts []Statement
	for _, f := range d.Persisted(s) {
		if slices.ContainsFunc(columns, func(column string) bool {
			return strings.EqualFold(column, f.Name)
		}) {
			continue
		}
		stmt, err := d.AddColumn(s, f)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// Insert builds the statement inserting the payload as a new row.
func (d *Dialect) Insert(ctx context.Context, s *record.Schema, payload map[string]any) (Statement, error) {
	fields := d.Persisted(s)
	columns := make([]string, 0, len(fields))
	values := make([]any, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.Name)
		values = append(values, payload[f.Name])
	}
	if len(columns) == 0 {
		return Statement{}, fmt.Errorf("table %s has no columns %s can store", s.Name, d.name)
	}

	return d.dml.insert(ctx, s.Name, columns, values)
}

// Update builds the statement updating the row with the primary key of the
// payload. All other stored columns are set.
func (d *Dialect) Update(ctx context.Context, s *record.Schema, payload map[string]any) (Statement, error) {
	pk, err := s.PrimaryKey()
	if err != nil {
		return Statement{}, err
	}
	pkValue := payload[pk.Name]
	if pkValue == nil {
		return Statement{}, fmt.Errorf("cannot update record of table %s without primary key value", s.Name)
	}

	var (
		columns []string
		values  []any
	)
	for _, f := range d.Persisted(s) {
		if f.Role == record.RolePrimary {
			continue
		}
		columns = append(columns, f.Name)
		values = append(values, payload[f.Name])
	}
	if len(columns) == 0 {
		return Statement{}, fmt.Errorf("table %s has no columns to update", s.Name)
	}

	return d.dml.update(ctx, s.Name, columns, values, []query.Pair{{Field: pk.Name, Value: pkValue}})
}

// Delete builds the statement deleting all rows matching q.
func (d *Dialect) Delete(ctx context.Context, s *record.Schema, q *query.Query) (Statement, error) {
	return d.dml.delete(ctx, s.Name, q.Pairs())
}

// Select builds the statement selecting all rows matching q.
func (d *Dialect) Select(ctx context.Context, s *record.Schema, q *query.Query) (Statement, error) {
	return d.dml.selectAll(ctx, s.Name, q.Pairs())
}
