package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/recorddb/base/database/query"
)

type myInt int16

type encodeRecord struct {
	ID      string  `record:"id,primary"`
	Name    *string `record:"name"`
	Count   myInt   `record:"count"`
	Visits  uint8   `record:"visits"`
	Enabled bool    `record:"enabled"`
	Ignored string  `record:"-"`
}

func TestEncode(t *testing.T) {
	t.Parallel()

	s, err := GenerateFor[encodeRecord]("encode")
	require.NoError(t, err)

	name := "Smudge"
	payload, err := s.Encode(&encodeRecord{
		ID:      "u1",
		Name:    &name,
		Count:   3,
		Visits:  7,
		Enabled: true,
		Ignored: "nope",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":      "u1",
		"name":    "Smudge",
		"count":   int64(3),
		"visits":  int64(7),
		"enabled": true,
	}, payload)

	// Explicit nulls are kept.
	payload, err = s.Encode(encodeRecord{ID: "u2"})
	require.NoError(t, err)
	value, ok := payload["name"]
	assert.True(t, ok)
	assert.Nil(t, value)

	_, err = s.Encode(&testCustomer{})
	assert.Error(t, err)
	_, err = s.Encode((*encodeRecord)(nil))
	assert.Error(t, err)
}

func TestAsQuery(t *testing.T) {
	t.Parallel()

	s, err := GenerateFor[encodeRecord]("encode")
	require.NoError(t, err)

	r := &encodeRecord{ID: "u1", Count: 2}
	q, err := s.AsQuery(r)
	require.NoError(t, err)
	assert.Equal(t, []query.Pair{
		{Field: "id", Value: "u1"},
		{Field: "count", Value: int64(2)},
		{Field: "visits", Value: int64(0)},
		{Field: "enabled", Value: false},
	}, q.Pairs())

	again, err := s.AsQuery(r)
	require.NoError(t, err)
	assert.Equal(t, q, again)
}
