package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCustomer struct {
	Identifier string  `record:"identifier,primary"`
	Name       *string `record:"name"`
	Age        int
	Group      string `record:"group,foreign,references=groups.identifier"`
	Cached     string `record:"-"`
	Session    string `record:"session,ignore"`
	Active     bool   `record:"active"`
	Score      float32

	internal string //nolint:unused
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	s, err := Generate("customer", testCustomer{})
	require.NoError(t, err)

	assert.Equal(t, "customer", s.Name)
	assert.Equal(t, []string{"identifier", "name", "Age", "group", "active", "Score"}, s.FieldNames())

	pk, err := s.PrimaryKey()
	require.NoError(t, err)
	assert.Equal(t, "identifier", pk.Name)
	assert.Equal(t, KindString, pk.Kind)

	name, ok := s.Field("name")
	require.True(t, ok)
	assert.True(t, name.Nullable)
	assert.Equal(t, KindString, name.Kind)
	assert.Equal(t, RoleField, name.Role)

	group, ok := s.Field("group")
	require.True(t, ok)
	assert.Equal(t, RoleForeign, group.Role)
	assert.Equal(t, &Reference{Table: "groups", Field: "identifier"}, group.Reference)

	age, _ := s.Field("Age")
	assert.Equal(t, KindInteger, age.Kind)
	active, _ := s.Field("active")
	assert.Equal(t, KindBoolean, active.Kind)
	score, _ := s.Field("Score")
	assert.Equal(t, KindFloat, score.Kind)

	_, ok = s.Field("Cached")
	assert.False(t, ok)
	_, ok = s.Field("session")
	assert.False(t, ok)

	assert.Len(t, s.FieldsByRole(RoleField), 4)
	assert.NoError(t, s.Validate())

	// Pointer samples and the generic variant describe the same type.
	fromPtr, err := Generate("customer", &testCustomer{})
	require.NoError(t, err)
	assert.Equal(t, s, fromPtr)
	generic, err := GenerateFor[testCustomer]("customer")
	require.NoError(t, err)
	assert.Equal(t, s, generic)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name   string
		Table  string
		Sample any
	}{
		{
			"Not a struct",
			"t",
			42,
		},
		{
			"Nil sample",
			"t",
			nil,
		},
		{
			"Invalid table name",
			"drop table;",
			testCustomer{},
		},
		{
			"Unknown option",
			"t",
			struct {
				ID string `record:"id,primary,unique"`
			}{},
		},
		{
			"Invalid field name",
			"t",
			struct {
				ID string `record:"i d,primary"`
			}{},
		},
		{
			"Primary and foreign",
			"t",
			struct {
				ID string `record:"id,primary,foreign,references=a.b"`
			}{},
		},
		{
			"Reference on ordinary field",
			"t",
			struct {
				ID string `record:"id,references=a.b"`
			}{},
		},
		{
			"Malformed reference",
			"t",
			struct {
				ID string `record:"id,foreign,references=ab"`
			}{},
		},
		{
			"Duplicate field name",
			"t",
			struct {
				A string `record:"x"`
				B string `record:"x"`
			}{},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			_, err := Generate(c.Table, c.Sample)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	noPrimary, err := Generate("t", struct {
		Name string
	}{})
	require.NoError(t, err)

	var schemaErr *SchemaError
	err = noPrimary.Validate()
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "t", schemaErr.Table)
	_, err = noPrimary.PrimaryKey()
	assert.Error(t, err)

	twoPrimary, err := Generate("t", struct {
		A string `record:"a,primary"`
		B string `record:"b,primary"`
	}{})
	require.NoError(t, err)
	assert.True(t, errors.As(twoPrimary.Validate(), &schemaErr))

	missingReference, err := Generate("t", struct {
		ID    string `record:"id,primary"`
		Owner string `record:"owner,foreign"`
	}{})
	require.NoError(t, err)
	err = missingReference.Validate()
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "owner", schemaErr.Field)
}

func TestNewSchema(t *testing.T) {
	t.Parallel()

	s := NewSchema("orders",
		PrimaryField("id", KindInteger),
		OrdinaryField("item", KindString),
		ForeignField("customer", KindString, "customer", "identifier"),
	)
	require.NoError(t, s.Validate())
	assert.Nil(t, s.GoType())

	_, err := s.Encode(struct{}{})
	assert.Error(t, err)
}
