package codec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/telemetry"
	"github.com/shopspring/decimal"
)

// Result summarizes a Decode call.
type Result struct {
	Lines         int   // lines read, header included
	HeaderFound   bool  // first line carried the monthly limit
	Applied       int   // records added to the target
	Skipped       []int // line numbers without exactly six fields
	LimitExceeded int   // adds that reported the monthly limit exceeded

	// Rejected holds a *RejectedLineError per well-formed line the target
	// refused, including those read before a fatal error.
	Rejected []error
}

const (
	initialLineBuffer = 64 * 1024
	// maxLineLength bounds a single line. Longer junk lines are still read so
	// they can be skipped like any other malformed line.
	maxLineLength = math.MaxInt32
)

// Decode reads r line by line and replays it into dst.
//
// The first line is always consumed as the header; when it starts with
// HeaderPrefix its value becomes the monthly limit. Every following line must
// split into exactly six comma separated fields (trailing empty fields are
// dropped first), otherwise it is skipped and recorded in Result.Skipped.
//
// An amount that is not a number, an unknown type name or a malformed date is
// fatal: Decode stops and returns a *DecodeError, keeping the records already
// applied. An add rejected by dst for a well-formed line (for example a
// non-positive amount) does not stop decoding; such rejections are returned
// together as *ledger.ValidationErrors of *RejectedLineError. When decoding
// stops on a fatal error the rejections seen so far remain in Result.Rejected.
func Decode(ctx context.Context, r io.Reader, dst Target) (*Result, error) {
	timer := telemetry.StartTimer(ctx, "codec.decode")
	defer timer.End()

	result := &Result{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineLength)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Lines++
		line := scanner.Text()

		if result.Lines == 1 {
			if err := decodeHeader(line, dst, result); err != nil {
				return result, err
			}
			continue
		}

		fields := splitFields(line)
		if len(fields) != recordFields {
			result.Skipped = append(result.Skipped, result.Lines)
			continue
		}

		exceeded, err := decodeRecord(result.Lines, fields, dst)
		if err != nil {
			var rejection *RejectedLineError
			if errors.As(err, &rejection) {
				result.Rejected = append(result.Rejected, rejection)
				continue
			}
			return result, err
		}

		result.Applied++
		if exceeded {
			result.LimitExceeded++
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read line %d: %w", result.Lines+1, err)
	}

	if len(result.Rejected) > 0 {
		return result, &ledger.ValidationErrors{Errors: result.Rejected}
	}
	return result, nil
}

func decodeHeader(line string, dst Target, result *Result) error {
	if !strings.HasPrefix(line, HeaderPrefix) {
		return nil
	}

	value := strings.TrimSpace(strings.TrimPrefix(line, HeaderPrefix))
	limit, err := decimal.NewFromString(value)
	if err != nil {
		return &DecodeError{Line: 1, Err: &expense.ParseError{Field: "monthly limit", Value: value, Err: err}}
	}

	dst.SetMonthlyLimit(limit)
	result.HeaderFound = true
	return nil
}

// decodeRecord applies one record line. The createdAt and currency fields are
// read but not used.
func decodeRecord(lineNo int, fields []string, dst Target) (bool, error) {
	category := fields[0]
	date := fields[2]

	amountText := strings.TrimSpace(fields[1])
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return false, &DecodeError{Line: lineNo, Err: &expense.ParseError{Field: "amount", Value: fields[1], Err: err}}
	}

	typ, err := expense.ParseType(fields[3])
	if err != nil {
		return false, &DecodeError{Line: lineNo, Err: err}
	}

	exceeded, err := dst.Add(category, amount, date, typ)
	if err != nil {
		var validationErr *ledger.ValidationError
		if errors.As(err, &validationErr) {
			return false, &RejectedLineError{Line: lineNo, Err: err}
		}

		// Malformed dates surface here as *expense.ParseError.
		return false, &DecodeError{Line: lineNo, Err: err}
	}

	return exceeded, nil
}

// splitFields splits on commas and drops trailing empty fields, so a record
// with an empty currency does not count as six fields.
func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}
