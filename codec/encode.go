package codec

import (
	"bufio"
	"io"
	"strings"

	"github.com/robinvdvleuten/expenses/expense"
)

// Encode writes the header line followed by one line per record in store order.
// Fields are written verbatim; a category containing a comma produces a line
// that Decode will skip.
func Encode(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(HeaderPrefix + src.MonthlyLimit().String() + "\n"); err != nil {
		return err
	}

	for _, record := range src.AllExpenses() {
		if _, err := bw.WriteString(encodeRecord(record)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func encodeRecord(r expense.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Category)
	sb.WriteByte(',')
	sb.WriteString(r.Amount.String())
	sb.WriteByte(',')
	sb.WriteString(r.Date.String())
	sb.WriteByte(',')
	sb.WriteString(r.Type.String())
	sb.WriteByte(',')
	sb.WriteString(r.CreatedAt.Format(TimestampLayout))
	sb.WriteByte(',')
	sb.WriteString(r.Currency)
	sb.WriteByte('\n')
	return sb.String()
}
