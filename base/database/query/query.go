package query

import (
	"fmt"
	"strings"
)

// Example:
// query.New().
//   Match("name", "Smudge").
//   Match("age", 3)

// Pair is a single equality constraint.
type Pair struct {
	Field string
	Value any
}

// Query is an ordered set of equality constraints. All constraints must hold
// for a record to match. An empty (or nil) query matches every record.
type Query struct {
	pairs []Pair
}

// New creates a new empty query.
func New() *Query {
	return &Query{}
}

// Match adds the constraint field = value and returns the query.
func (q *Query) Match(field string, value any) *Query {
	q.pairs = append(q.pairs, Pair{Field: field, Value: value})
	return q
}

// Pairs returns the effective constraints. A field that was matched more than
// once appears at the position of its first match with the value of its last.
func (q *Query) Pairs() []Pair {
	if q == nil || len(q.pairs) == 0 {
		return nil
	}

	index := make(map[string]int, len(q.pairs))
	pairs := make([]Pair, 0, len(q.pairs))
	for _, p := range q.pairs {
		if i, ok := index[p.Field]; ok {
			pairs[i].Value = p.Value
			continue
		}
		index[p.Field] = len(pairs)
		pairs = append(pairs, p)
	}
	return pairs
}

// Len returns the number of effective constraints.
func (q *Query) Len() int {
	return len(q.Pairs())
}

// IsEmpty returns whether the query has no constraints.
func (q *Query) IsEmpty() bool {
	return q == nil || len(q.pairs) == 0
}

// Print returns the string representation of the query.
func (q *Query) Print() string {
	pairs := q.Pairs()
	if len(pairs) == 0 {
		return "query all"
	}

	conditions := make([]string, 0, len(pairs))
	for _, p := range pairs {
		conditions = append(conditions, fmt.Sprintf("%s = %#v", p.Field, p.Value))
	}
	return "query where " + strings.Join(conditions, " and ")
}
