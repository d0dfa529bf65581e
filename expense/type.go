package expense

import (
	"fmt"
	"strings"
)

// Type classifies an expense. The set is closed: Fixed, Variable and Recurring.
type Type int

const (
	Fixed Type = iota
	Variable
	Recurring
)

var typeNames = [...]string{
	Fixed:     "FIXED",
	Variable:  "VARIABLE",
	Recurring: "RECURRING",
}

// String returns the persisted name of the type (FIXED, VARIABLE, RECURRING).
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t >= 0 && int(t) < len(typeNames)
}

// ParseType parses a type name case-insensitively. Surrounding whitespace is
// not trimmed: " FIXED" is not a type name.
func ParseType(s string) (Type, error) {
	upper := strings.ToUpper(s)
	for i, name := range typeNames {
		if name == upper {
			return Type(i), nil
		}
	}
	return 0, &ParseError{Field: "type", Value: s, Err: ErrUnknownType}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid expense type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
