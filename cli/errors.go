package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/expense"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	source []byte
}

// NewErrorRenderer creates a renderer with source content for context.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{source: source}
}

// Render formats a single error with styling and context. Errors that carry a
// line number are shown with the surrounding lines of the source.
func (r *ErrorRenderer) Render(err error) string {
	var lined interface{ GetLine() int }
	if r.source == nil || !errors.As(err, &lined) {
		return err.Error()
	}

	line := lined.GetLine()
	column := 0

	var parseErr *expense.ParseError
	if errors.As(err, &parseErr) && parseErr.Value != "" {
		column = r.columnOf(line, parseErr.Value)
	}

	return r.renderWithSourceContext(line, column, err.Error())
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// columnOf returns the 1-based column of value on line, or 0 when not found.
func (r *ErrorRenderer) columnOf(line int, value string) int {
	lines := strings.Split(string(r.source), "\n")
	if line < 1 || line > len(lines) {
		return 0
	}
	idx := strings.Index(lines[line-1], value)
	if idx < 0 {
		return 0
	}
	return idx + 1
}

func (r *ErrorRenderer) renderWithSourceContext(line, column int, message string) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(r.source), "\n")

	startLine := line - 3
	endLine := line + 1

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(sourceLines[i]))
		buf.WriteByte('\n')

		if i == line-1 && column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// isLineError reports whether err is pinned to a line of the decoded source.
func isLineError(err error) bool {
	var decodeErr *codec.DecodeError
	var rejected *codec.RejectedLineError
	return errors.As(err, &decodeErr) || errors.As(err, &rejected)
}
