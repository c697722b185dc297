// Package normalizer turns raw CSV rows into typed transaction candidates.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fjacquet/bankflow/internal/dateutils"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/parsererror"

	"github.com/shopspring/decimal"
)

// ErrMalformedRow is wrapped by row errors whose width differs from the
// header's.
var ErrMalformedRow = errors.New("malformed row")

// NormalizedRow is a parsed CSV row. Amount is unsigned.
type NormalizedRow struct {
	Row          int
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	Direction    models.Direction
	Account      string
	Counterparty string
	Notes        string
}

// Transaction builds an uncategorized transaction from the row.
func (r NormalizedRow) Transaction() models.Transaction {
	return models.Transaction{
		Date:         r.Date,
		Description:  r.Description,
		Amount:       r.Amount,
		Direction:    r.Direction,
		Account:      r.Account,
		Counterparty: r.Counterparty,
		Notes:        r.Notes,
	}
}

// Normalizer holds the header synonyms and defaults used for a batch.
type Normalizer struct {
	synonyms       HeaderSynonyms
	defaultAccount string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSynonyms replaces the header synonym table.
func WithSynonyms(s HeaderSynonyms) Option {
	return func(n *Normalizer) { n.synonyms = s }
}

// WithDefaultAccount sets the account stored for rows without one.
func WithDefaultAccount(account string) Option {
	return func(n *Normalizer) {
		if strings.TrimSpace(account) != "" {
			n.defaultAccount = account
		}
	}
}

// New returns a Normalizer using DefaultSynonyms and models.DefaultAccount
// unless overridden.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		synonyms:       DefaultSynonyms(),
		defaultAccount: models.DefaultAccount,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ResolveColumns resolves header with the normalizer's synonyms.
func (n *Normalizer) ResolveColumns(header []string) (Columns, error) {
	return ResolveColumns(header, n.synonyms)
}

// Normalize parses one data row. rowNum is 1-based and only used in the
// returned *parsererror.RowError.
func (n *Normalizer) Normalize(rowNum int, row []string, cols Columns) (NormalizedRow, error) {
	if len(row) != cols.Width {
		return NormalizedRow{}, &parsererror.RowError{
			Row: rowNum,
			Err: fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRow, cols.Width, len(row)),
		}
	}

	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, _, err := dateutils.ParseTransactionDate(cell(cols.Date))
	if err != nil {
		return NormalizedRow{}, &parsererror.RowError{
			Row: rowNum,
			Err: &parsererror.ParseError{Field: string(FieldDate), Value: cell(cols.Date), Err: err},
		}
	}

	signed, err := ParseAmount(cell(cols.Amount))
	if err != nil {
		return NormalizedRow{}, &parsererror.RowError{
			Row: rowNum,
			Err: &parsererror.ParseError{Field: string(FieldAmount), Value: cell(cols.Amount), Err: err},
		}
	}

	var dir models.Direction
	if cols.HasDirection() {
		dir = ParseDirection(cell(cols.Direction))
	} else {
		dir = DirectionFromSign(signed)
	}

	account := cell(cols.Account)
	if account == "" {
		account = n.defaultAccount
	}

	return NormalizedRow{
		Row:          rowNum,
		Date:         date,
		Description:  cell(cols.Description),
		Amount:       signed.Abs(),
		Direction:    dir,
		Account:      account,
		Counterparty: cell(cols.Counterparty),
		Notes:        cell(cols.Notes),
	}, nil
}

// NormalizeAll resolves the header and normalizes every row. Row failures
// are returned in rowErrs. The error is non-nil when the header lacks a
// mandatory column or when none of a non-empty set of rows succeeded.
func (n *Normalizer) NormalizeAll(header []string, rows [][]string) (ok []NormalizedRow, rowErrs []error, err error) {
	cols, err := n.ResolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	for i, row := range rows {
		nr, rerr := n.Normalize(i+1, row, cols)
		if rerr != nil {
			rowErrs = append(rowErrs, rerr)
			continue
		}
		ok = append(ok, nr)
	}

	if len(rows) > 0 && len(ok) == 0 {
		return nil, rowErrs, &parsererror.BatchError{
			Total:  len(rows),
			First:  rowErrs[0],
			Errors: errorStrings(rowErrs),
		}
	}
	return ok, rowErrs, nil
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

var amountJunk = regexp.MustCompile(`[^0-9,.\-]`)

// ParseAmount parses a bank amount cell into a signed decimal.
//
// Everything except digits, ',', '.' and '-' is dropped. A comma is the
// decimal separator when it is the only separator or the last one; dots
// before it are thousands separators. When the dot comes last, commas are
// thousands separators. Repeated occurrences of a single separator kind are
// thousands separators too ("1.234.567").
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := amountJunk.ReplaceAllString(raw, "")
	negative := strings.Contains(s, "-")
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", raw)
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseDirection reads an explicit direction cell: anything containing
// "credit" (any case) is a credit, everything else a debit.
func ParseDirection(cell string) models.Direction {
	if strings.Contains(strings.ToLower(cell), "credit") {
		return models.Credit
	}
	return models.Debit
}

// DirectionFromSign infers the direction from a signed amount: zero and
// positive amounts are credits.
func DirectionFromSign(amount decimal.Decimal) models.Direction {
	if amount.IsNegative() {
		return models.Debit
	}
	return models.Credit
}
