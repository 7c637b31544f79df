package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name     string
		Query    *Query
		Expected []Pair
	}{
		{
			"Nil query",
			nil,
			nil,
		},
		{
			"Empty query",
			New(),
			nil,
		},
		{
			"Keeps declaration order",
			New().Match("identifier", "u1").Match("name", "Smudge"),
			[]Pair{{"identifier", "u1"}, {"name", "Smudge"}},
		},
		{
			"Last value of a duplicate wins",
			New().Match("name", "a").Match("age", 3).Match("name", "b"),
			[]Pair{{"name", "b"}, {"age", 3}},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, c.Expected, c.Query.Pairs())
			assert.Equal(t, len(c.Expected), c.Query.Len())
			assert.Equal(t, len(c.Expected) == 0, c.Query.IsEmpty())
		})
	}
}

func TestPrint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "query all", New().Print())
	assert.Equal(t, `query where name = "Smudge" and age = 3`, New().Match("name", "Smudge").Match("age", 3).Print())
}
