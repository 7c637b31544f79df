package record

import (
	"reflect"

	"github.com/safing/recorddb/base/database/query"
)

// Encode returns the write payload of the record v, keyed by field name.
// Every persisted field is present; nil pointers are encoded as nil.
func (s *Schema) Encode(v any) (map[string]any, error) {
	val, err := s.structValue(v)
	if err != nil {
		return nil, err
	}

	res := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		res[f.Name] = encodeValue(f, val.FieldByIndex(f.index))
	}
	return res, nil
}

// AsQuery returns a query matching every non-nil field of the record v.
// A nil field is never translated to an IS NULL condition.
func (s *Schema) AsQuery(v any) (*query.Query, error) {
	payload, err := s.Encode(v)
	if err != nil {
		return nil, err
	}

	q := query.New()
	for _, f := range s.fields {
		value := payload[f.Name]
		if value == nil {
			continue
		}
		q.Match(f.Name, value)
	}
	return q, nil
}

// encodeValue normalizes the field value to the basic Go types every
// backend driver accepts.
func encodeValue(f Field, val reflect.Value) any {
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch NormalizeKind(val.Kind()) { //nolint:exhaustive
	case reflect.String:
		return val.String()
	case reflect.Int:
		return val.Int()
	case reflect.Uint:
		return int64(val.Uint()) //nolint:gosec // Record integers are stored as signed 64 bit values.
	case reflect.Bool:
		return val.Bool()
	case reflect.Float64:
		return val.Float()
	default:
		return val.Interface()
	}
}
