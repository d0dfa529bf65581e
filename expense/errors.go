package expense

import (
	"errors"
	"fmt"
)

// ErrUnknownType is wrapped by ParseError when a type name is not recognized.
var ErrUnknownType = errors.New("unknown expense type")

// ParseError is returned when a field cannot be parsed into its expected type.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) GetField() string {
	return e.Field
}
