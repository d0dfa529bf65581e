package loader

import "fmt"

// FileError is returned when the ledger file cannot be opened, read or written.
// The in-memory ledger is unaffected by a failed save.
type FileError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
