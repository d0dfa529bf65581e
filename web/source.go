package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/ledger"
)

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// LineError is a load problem pinned to a line of the ledger file.
type LineError struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// SourceResponse is the JSON response structure for the source endpoint.
type SourceResponse struct {
	Filepath string      `json:"filepath"`
	Source   string      `json:"source"`
	Skipped  []int       `json:"skipped"`
	Errors   []LineError `json:"errors"`
}

// StatusResponse is the JSON response structure for the status endpoint.
type StatusResponse struct {
	Version   string    `json:"version"`
	CommitSHA string    `json:"commitSha"`
	Filepath  string    `json:"filepath"`
	LoadedAt  time.Time `json:"loadedAt"`
	Lines     int       `json:"lines"`
	Applied   int       `json:"applied"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
}

// lineErrors flattens a load error into per-line entries. Rejected lines come
// first in file order; a fatal decode error is always last.
func lineErrors(result *codec.Result, err error) []LineError {
	out := []LineError{}

	rejections := []error(nil)
	if result != nil {
		rejections = result.Rejected
	}
	var validationErrs *ledger.ValidationErrors
	if errors.As(err, &validationErrs) {
		rejections = validationErrs.Errors
		err = nil
	}

	for _, e := range rejections {
		entry := LineError{Message: e.Error()}
		var rejected *codec.RejectedLineError
		if errors.As(e, &rejected) {
			entry.Line = rejected.GetLine()
			entry.Message = rejected.Err.Error()
		}
		out = append(out, entry)
	}

	if err != nil {
		entry := LineError{Message: err.Error(), Fatal: true}
		var decodeErr *codec.DecodeError
		if errors.As(err, &decodeErr) {
			entry.Line = decodeErr.GetLine()
			entry.Message = decodeErr.Err.Error()
		}
		out = append(out, entry)
	}
	return out
}

// handleGetSource handles GET requests to /api/source.
// Returns the content of the ledger file as last loaded, with load errors.
func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	response := &SourceResponse{
		Filepath: s.ledgerFile,
		Source:   string(s.source),
		Skipped:  []int{},
		Errors:   lineErrors(s.result, s.loadErr),
	}
	if s.result != nil && s.result.Skipped != nil {
		response.Skipped = s.result.Skipped
	}
	s.mu.RUnlock()

	writeJSONResponse(w, response)
}

// handleGetStatus handles GET requests to /api/status.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	response := &StatusResponse{
		Version:   s.Version,
		CommitSHA: s.CommitSHA,
		Filepath:  s.ledgerFile,
		LoadedAt:  s.loadedAt,
		Errors:    len(lineErrors(s.result, s.loadErr)),
	}
	if s.result != nil {
		response.Lines = s.result.Lines
		response.Applied = s.result.Applied
		response.Skipped = len(s.result.Skipped)
	}
	s.mu.RUnlock()

	writeJSONResponse(w, response)
}
