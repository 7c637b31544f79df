package record

import (
	"errors"
	"fmt"
)

// ErrStructExpected is returned when a record value is not a struct.
var ErrStructExpected = errors.New("record must be a struct")

// SchemaError describes an invalid record type declaration. It is a
// programmer error and surfaces at table definition time.
type SchemaError struct {
	Table  string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error in table %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("schema error in table %s, field %s: %s", e.Table, e.Field, e.Reason)
}

// MarshalError describes a row or document that does not fit the declared
// record type.
type MarshalError struct {
	Table  string
	Field  string
	Reason string
	Err    error
}

func (e *MarshalError) Error() string {
	msg := fmt.Sprintf("failed to marshal field %s of table %s: %s", e.Field, e.Table, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MarshalError) Unwrap() error {
	return e.Err
}
