package record

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

var errUnexpectedType = errors.New("unexpected value type")

// Row is a single result row or document, keyed by column name.
type Row map[string]any

// Decode assigns the values of row to the record dst, which must be a pointer
// to the schema's record type. Only fields accepted by include are decoded;
// a nil include decodes every field. A decoded field that is missing from the
// row fails with a MarshalError. Columns without a field are ignored.
func (s *Schema) Decode(row Row, dst any, include func(Field) bool) error {
	if reflect.TypeOf(dst) == nil || reflect.TypeOf(dst).Kind() != reflect.Ptr {
		return fmt.Errorf("%w, got %T", ErrStructExpected, dst)
	}
	target, err := s.structValue(dst)
	if err != nil {
		return err
	}

	for _, f := range s.fields {
		if include != nil && !include(f) {
			continue
		}

		raw, ok := row[f.Name]
		if !ok {
			return &MarshalError{Table: s.Name, Field: f.Name, Reason: "field is missing from the stored row"}
		}

		if err := assign(target.FieldByIndex(f.index), raw); err != nil {
			return &MarshalError{Table: s.Name, Field: f.Name, Reason: "cannot assign stored value", Err: err}
		}
	}

	return nil
}

func assign(target reflect.Value, raw any) error {
	// NULL keeps the zero value or resets the pointer.
	if raw == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	if target.Kind() == reflect.Ptr {
		storage := reflect.New(target.Type().Elem())
		if err := assignValue(storage.Elem(), raw); err != nil {
			return err
		}
		target.Set(storage)
		return nil
	}

	return assignValue(target, raw)
}

func assignValue(target reflect.Value, raw any) error {
	switch NormalizeKind(target.Kind()) { //nolint:exhaustive
	case reflect.String:
		switch v := raw.(type) {
		case string:
			target.SetString(v)
		case []byte:
			target.SetString(string(v))
		default:
			return fmt.Errorf("%w: cannot decode %T into %s", errUnexpectedType, raw, target.Type())
		}

	case reflect.Int:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if target.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, target.Type())
		}
		target.SetInt(n)

	case reflect.Uint:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if n < 0 || target.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, target.Type())
		}
		target.SetUint(uint64(n))

	case reflect.Bool:
		b, err := toBool(raw)
		if err != nil {
			return err
		}
		target.SetBool(b)

	case reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return err
		}
		target.SetFloat(f)

	default:
		rv := reflect.ValueOf(raw)
		switch {
		case rv.Type().AssignableTo(target.Type()):
			target.Set(rv)
		case rv.Type().ConvertibleTo(target.Type()):
			target.Set(rv.Convert(target.Type()))
		default:
			return fmt.Errorf("%w: cannot decode %T into %s", errUnexpectedType, raw, target.Type())
		}
	}

	return nil
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil //nolint:gosec
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("%w: cannot decode %T into an integer", errUnexpectedType, raw)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v is not an integer", errUnexpectedType, f)
	}
	return int64(f), nil
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case []byte:
		return strconv.ParseBool(string(v))
	default:
		n, err := toInt64(raw)
		if err != nil {
			return false, fmt.Errorf("%w: cannot decode %T into a boolean", errUnexpectedType, raw)
		}
		return n != 0, nil
	}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		n, err := toInt64(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot decode %T into a float", errUnexpectedType, raw)
		}
		return float64(n), nil
	}
}
