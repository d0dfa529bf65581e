// Package loader moves a ledger between memory and a file on disk.
//
// Saving appends: every Save writes a new header and the full record list to
// the end of the file, so repeated saves to one destination accumulate blocks.
// Loading replays the file through the codec into an existing ledger. Use
// WithOverwrite to truncate the destination on save instead.
//
// Example usage:
//
//	ldr := loader.New()
//	if err := ldr.Save(ctx, "expenses.txt", l); err != nil {
//	    log.Fatal(err)
//	}
//
//	fresh := ledger.New(ledger.WithCurrency("EUR"))
//	result, err := ldr.Load(ctx, "expenses.txt", fresh)
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/telemetry"
)

// Loader reads and writes ledger files.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithOverwrite())
type Loader struct {
	// Overwrite truncates the destination on Save instead of appending.
	Overwrite bool

	// FileMode is used when Save creates the file.
	FileMode os.FileMode

	logger *slog.Logger
}

// Option configures how files are saved and loaded.
type Option func(*Loader)

// WithOverwrite makes Save replace the file contents.
func WithOverwrite() Option {
	return func(l *Loader) {
		l.Overwrite = true
	}
}

// WithFileMode sets the permissions of newly created files.
func WithFileMode(mode os.FileMode) Option {
	return func(l *Loader) {
		l.FileMode = mode
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		FileMode: 0o644,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Save encodes src and writes it to filename. The encoding is built in memory
// first, so a failed save never leaves a partial block behind from encoding.
func (l *Loader) Save(ctx context.Context, filename string, src codec.Source) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.save %s", filepath.Base(filename)))
	defer timer.End()

	var buf bytes.Buffer
	if err := codec.Encode(&buf, src); err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if l.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	writeTimer := timer.Child("loader.write")
	defer writeTimer.End()

	f, err := os.OpenFile(filename, flags, l.FileMode)
	if err != nil {
		return &FileError{Op: "save", Path: filename, Err: err}
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return &FileError{Op: "save", Path: filename, Err: err}
	}
	if err := f.Close(); err != nil {
		return &FileError{Op: "save", Path: filename, Err: err}
	}

	l.logger.DebugContext(ctx, "ledger saved",
		"file", filename,
		"bytes", buf.Len(),
		"overwrite", l.Overwrite,
	)
	return nil
}

// Load replays filename into dst. Records applied before a fatal decode error
// stay in dst.
func (l *Loader) Load(ctx context.Context, filename string, dst codec.Target) (*codec.Result, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.load %s", filepath.Base(filename)))
	defer timer.End()

	f, err := os.Open(filename)
	if err != nil {
		return nil, &FileError{Op: "load", Path: filename, Err: err}
	}
	defer func() { _ = f.Close() }()

	return l.decode(telemetry.WithTimer(ctx, timer), filename, f, dst)
}

// LoadBytes replays data into dst. The name is used in error messages only.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte, dst codec.Target) (*codec.Result, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.load %s", name))
	defer timer.End()

	return l.decode(telemetry.WithTimer(ctx, timer), name, bytes.NewReader(data), dst)
}

func (l *Loader) decode(ctx context.Context, name string, r io.Reader, dst codec.Target) (*codec.Result, error) {
	result, err := codec.Decode(ctx, r, dst)

	var decodeErr *codec.DecodeError
	var validationErrs *ledger.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &decodeErr):
		decodeErr.Filename = name
	case errors.As(err, &validationErrs):
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		// The file opened but could not be read to the end.
		err = &FileError{Op: "load", Path: name, Err: err}
	}

	if result != nil {
		l.logger.DebugContext(ctx, "ledger loaded",
			"file", name,
			"lines", result.Lines,
			"applied", result.Applied,
			"skipped", len(result.Skipped),
		)
	}
	return result, err
}
