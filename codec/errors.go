package codec

import "fmt"

// DecodeError is a fatal decode failure on one line. Lines before it have
// already been applied to the target. Field level failures wrap an
// *expense.ParseError.
type DecodeError struct {
	Filename string // empty when decoding from a reader without a name
	Line     int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Filename, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) GetLine() int {
	return e.Line
}

// RejectedLineError wraps an Add rejection for a well-formed line. Decoding
// continues after it.
type RejectedLineError struct {
	Line int
	Err  error
}

func (e *RejectedLineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RejectedLineError) Unwrap() error {
	return e.Err
}

func (e *RejectedLineError) GetLine() int {
	return e.Line
}
