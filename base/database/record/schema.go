package record

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

// TagName is the struct tag key that declares record fields.
const TagName = "record"

// Struct Tag Options.
var (
	TagPrimary          = "primary"
	TagForeign          = "foreign"
	TagIgnore           = "ignore"
	TagPrefixReferences = "references="
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Role describes how a field takes part in the table.
type Role uint8

// Field Roles.
const (
	RoleField Role = iota
	RolePrimary
	RoleForeign
)

func (r Role) String() string {
	switch r {
	case RoleField:
		return "field"
	case RolePrimary:
		return "primary"
	case RoleForeign:
		return "foreign"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Kind is the backend independent value type of a field.
type Kind uint8

// Value Kinds.
const (
	KindUnknown Kind = iota
	KindString
	KindInteger
	KindBoolean
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Reference points a foreign field at a field of another table.
type Reference struct {
	Table string
	Field string
}

// Field describes one persisted field of a record type.
type Field struct {
	Name      string
	Kind      Kind
	Role      Role
	Nullable  bool
	Reference *Reference
	GoType    reflect.Type

	index []int
}

// Schema is the immutable description of a record type bound to a table.
type Schema struct {
	Name string

	fields []Field
	goType reflect.Type
}

// NewSchema declares a schema from explicit field descriptions. Schemas
// declared this way are not bound to a Go type and can only be used to build
// statements.
func NewSchema(name string, fields ...Field) *Schema {
	return &Schema{
		Name:   name,
		fields: slices.Clone(fields),
	}
}

// PrimaryField declares a primary key field.
func PrimaryField(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind, Role: RolePrimary}
}

// OrdinaryField declares an ordinary field.
func OrdinaryField(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind, Role: RoleField}
}

// ForeignField declares a field referencing refField of refTable.
func ForeignField(name string, kind Kind, refTable, refField string) Field {
	return Field{
		Name: name,
		Kind: kind,
		Role: RoleForeign,
		Reference: &Reference{
			Table: refTable,
			Field: refField,
		},
	}
}

// Generate generates the schema of the record type of sample for the table
// with the given name. Only the declaration is validated here, role
// constraints are checked by Validate.
func Generate(table string, sample any) (*Schema, error) {
	if !identifierPattern.MatchString(table) {
		return nil, &SchemaError{Table: table, Reason: "invalid table name"}
	}

	val := reflect.ValueOf(sample)
	if !val.IsValid() {
		return nil, fmt.Errorf("%w, got %T", ErrStructExpected, sample)
	}
	t := val.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %T", ErrStructExpected, sample)
	}

	s := &Schema{
		Name:   table,
		goType: t,
	}

	for i := range t.NumField() {
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		field, skip, err := getField(table, fieldType)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		if _, exists := s.Field(field.Name); exists {
			return nil, &SchemaError{Table: table, Field: field.Name, Reason: "declared more than once"}
		}
		s.fields = append(s.fields, field)
	}

	return s, nil
}

// GenerateFor is like Generate for the record type R.
func GenerateFor[R any](table string) (*Schema, error) {
	return Generate(table, new(R))
}

func getField(table string, fieldType reflect.StructField) (field Field, skip bool, err error) {
	field = Field{
		Name:  fieldType.Name,
		Role:  RoleField,
		index: fieldType.Index,
	}

	ft := fieldType.Type
	if ft.Kind() == reflect.Ptr {
		field.Nullable = true
		ft = ft.Elem()
	}
	field.GoType = ft
	field.Kind = kindOf(ft)

	parts := strings.Split(fieldType.Tag.Get(TagName), ",")
	if parts[0] == "-" {
		return field, true, nil
	}
	if parts[0] != "" {
		field.Name = parts[0]
	}

	var foreign bool
	for _, option := range parts[1:] {
		switch {
		case option == TagIgnore:
			return field, true, nil
		case option == TagPrimary:
			field.Role = RolePrimary
		case option == TagForeign:
			foreign = true
		case strings.HasPrefix(option, TagPrefixReferences):
			ref, err := parseReference(strings.TrimPrefix(option, TagPrefixReferences))
			if err != nil {
				return field, false, &SchemaError{Table: table, Field: field.Name, Reason: err.Error()}
			}
			field.Reference = ref
		case option == "":
		default:
			return field, false, &SchemaError{Table: table, Field: field.Name, Reason: fmt.Sprintf("unknown tag option %q", option)}
		}
	}

	if !identifierPattern.MatchString(field.Name) {
		return field, false, &SchemaError{Table: table, Field: field.Name, Reason: "invalid field name"}
	}

	switch {
	case foreign && field.Role == RolePrimary:
		return field, false, &SchemaError{Table: table, Field: field.Name, Reason: "field cannot be primary and foreign"}
	case foreign:
		field.Role = RoleForeign
	case field.Reference != nil:
		return field, false, &SchemaError{Table: table, Field: field.Name, Reason: "only foreign fields may reference another table"}
	}

	return field, false, nil
}

func parseReference(value string) (*Reference, error) {
	table, field, ok := strings.Cut(value, ".")
	if !ok || !identifierPattern.MatchString(table) || !identifierPattern.MatchString(field) {
		return nil, fmt.Errorf("invalid reference %q, expected table.field", value)
	}
	return &Reference{Table: table, Field: field}, nil
}

func kindOf(t reflect.Type) Kind {
	switch NormalizeKind(t.Kind()) { //nolint:exhaustive
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Uint:
		return KindInteger
	case reflect.Bool:
		return KindBoolean
	case reflect.Float64:
		return KindFloat
	default:
		return KindUnknown
	}
}

// NormalizeKind returns a normalized kind of the given kind.
func NormalizeKind(kind reflect.Kind) reflect.Kind {
	switch {
	case kind >= reflect.Int && kind <= reflect.Int64:
		return reflect.Int
	case kind >= reflect.Uint && kind <= reflect.Uintptr:
		return reflect.Uint
	case kind >= reflect.Float32 && kind <= reflect.Float64:
		return reflect.Float64
	default:
		return kind
	}
}

// Fields returns all persisted fields in declaration order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// FieldsByRole returns the fields with the given role in declaration order.
func (s *Schema) FieldsByRole(role Role) []Field {
	var fields []Field
	for _, f := range s.fields {
		if f.Role == role {
			fields = append(fields, f)
		}
	}
	return fields
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the names of all persisted fields.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// PrimaryKey returns the primary key field.
func (s *Schema) PrimaryKey() (Field, error) {
	primary := s.FieldsByRole(RolePrimary)
	switch len(primary) {
	case 1:
		return primary[0], nil
	case 0:
		return Field{}, &SchemaError{Table: s.Name, Reason: "no primary key field declared"}
	default:
		return Field{}, &SchemaError{Table: s.Name, Reason: fmt.Sprintf("%d primary key fields declared, expected exactly one", len(primary))}
	}
}

// Validate checks the role constraints of the schema.
func (s *Schema) Validate() error {
	if _, err := s.PrimaryKey(); err != nil {
		return err
	}
	for _, f := range s.FieldsByRole(RoleForeign) {
		if f.Reference == nil {
			return &SchemaError{Table: s.Name, Field: f.Name, Reason: "foreign field is missing its reference (references=table.field)"}
		}
	}
	return nil
}

// GoType returns the record type the schema was generated from. It is nil
// for schemas declared with NewSchema.
func (s *Schema) GoType() reflect.Type {
	return s.goType
}

func (s *Schema) structValue(v any) (reflect.Value, error) {
	if s.goType == nil {
		return reflect.Value{}, fmt.Errorf("schema %s is not bound to a record type", s.Name)
	}
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w, got nil %T", ErrStructExpected, v)
		}
		val = val.Elem()
	}
	if !val.IsValid() || val.Type() != s.goType {
		return reflect.Value{}, fmt.Errorf("record of table %s must be %s, got %T", s.Name, s.goType, v)
	}
	return val, nil
}
