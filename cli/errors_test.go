package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/ledger"
)

const brokenSource = "Monthly Limit: 100\n" +
	"Food,5,2024-03-01,VARIABLE,x,USD\n" +
	"Food,5,2024-03-02,VARIABLE,x,USD\n" +
	"Fuel,7,2024-03-02,WEEKLY,x,USD\n" +
	"Food,9,2024-03-03,VARIABLE,x,USD\n"

func decodeErr(t *testing.T, source string) error {
	t.Helper()
	_, err := codec.Decode(context.Background(), strings.NewReader(source), ledger.New())
	assert.Error(t, err)
	return err
}

func TestErrorRenderer_RenderDecodeErrorWithSourceContext(t *testing.T) {
	err := decodeErr(t, brokenSource)

	output := NewErrorRenderer([]byte(brokenSource)).Render(err)

	assert.Contains(t, output, "line 4")
	assert.Contains(t, output, "WEEKLY")

	lines := strings.Split(output, "\n")
	var caretLine string
	for i, line := range lines {
		if strings.HasPrefix(line, "   Fuel,7") {
			caretLine = lines[i+1]
		}
	}
	assert.NotEqual(t, "", caretLine, "expected the faulty line in context")

	// The caret points at the type field.
	assert.Equal(t, strings.Index("Fuel,7,2024-03-02,WEEKLY", "WEEKLY"), strings.Index(caretLine, "^")-3)

	// Context stops one line after the faulty one.
	assert.Contains(t, output, "Food,9,2024-03-03")
	assert.NotContains(t, output, "Monthly Limit")
}

func TestErrorRenderer_RenderRejectedLines(t *testing.T) {
	source := "Monthly Limit: 100\nFood,0,2024-03-01,VARIABLE,x,USD\nFood,4,2024-03-01,VARIABLE,x,USD\nFood,-1,2024-03-01,VARIABLE,x,USD\n"
	err := decodeErr(t, source)

	var validationErrs *ledger.ValidationErrors
	assert.True(t, errors.As(err, &validationErrs))

	output := NewErrorRenderer([]byte(source)).RenderAll(validationErrs.Errors)
	assert.Contains(t, output, "line 2")
	assert.Contains(t, output, "line 4")
	assert.Contains(t, output, "\n\n")
	assert.NotContains(t, output, "^")
}

func TestErrorRenderer_FallsBackToMessage(t *testing.T) {
	t.Run("no source", func(t *testing.T) {
		err := decodeErr(t, brokenSource)
		assert.Equal(t, err.Error(), NewErrorRenderer(nil).Render(err))
	})

	t.Run("no line", func(t *testing.T) {
		err := errors.New("disk on fire")
		assert.Equal(t, "disk on fire", NewErrorRenderer([]byte(brokenSource)).Render(err))
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Equal(t, "", NewErrorRenderer(nil).RenderAll(nil))
	})
}
