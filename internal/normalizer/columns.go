package normalizer

import (
	"strings"

	"fjacquet/bankflow/internal/parsererror"
)

// Field is a logical column of the canonical schema.
type Field string

const (
	FieldDate         Field = "date"
	FieldDescription  Field = "description"
	FieldAmount       Field = "amount"
	FieldDirection    Field = "direction"
	FieldAccount      Field = "account"
	FieldCounterparty Field = "counterparty"
	FieldNotes        Field = "notes"
)

// logicalFields is the resolution order; the first three are mandatory.
var logicalFields = []Field{
	FieldDate, FieldDescription, FieldAmount,
	FieldDirection, FieldAccount, FieldCounterparty, FieldNotes,
}

func (f Field) required() bool {
	return f == FieldDate || f == FieldDescription || f == FieldAmount
}

// HeaderSynonyms lists, per logical field, the header names that may carry
// it, most preferred first.
type HeaderSynonyms map[Field][]string

// DefaultSynonyms returns the header names recognised out of the box.
func DefaultSynonyms() HeaderSynonyms {
	return HeaderSynonyms{
		FieldDate:         {"Date", "date", "DATE", "Transaction Date", "transaction_date"},
		FieldDescription:  {"Name / Description", "Description", "description", "DESCRIPTION", "Transaction Description"},
		FieldAmount:       {"Amount (EUR)", "Amount", "amount", "AMOUNT", "Transaction Amount"},
		FieldDirection:    {"Debit/credit", "Type", "type", "TYPE", "Transaction Type"},
		FieldAccount:      {"Account", "account", "ACCOUNT", "Account Number"},
		FieldCounterparty: {"Counterparty", "counterparty", "COUNTERPARTY", "Payee"},
		FieldNotes:        {"Notifications", "notes", "NOTES", "Memo"},
	}
}

// Merge returns a copy of s where the synonyms in extra are tried after the
// existing ones.
func (s HeaderSynonyms) Merge(extra HeaderSynonyms) HeaderSynonyms {
	out := make(HeaderSynonyms, len(s))
	for f, names := range s {
		out[f] = append([]string(nil), names...)
	}
	for f, names := range extra {
		out[f] = append(out[f], names...)
	}
	return out
}

// Columns maps logical fields to header indexes; -1 means absent.
type Columns struct {
	Date         int
	Description  int
	Amount       int
	Direction    int
	Account      int
	Counterparty int
	Notes        int

	// Width is the number of header fields; data rows must match it.
	Width int
}

func (c *Columns) set(f Field, idx int) {
	switch f {
	case FieldDate:
		c.Date = idx
	case FieldDescription:
		c.Description = idx
	case FieldAmount:
		c.Amount = idx
	case FieldDirection:
		c.Direction = idx
	case FieldAccount:
		c.Account = idx
	case FieldCounterparty:
		c.Counterparty = idx
	case FieldNotes:
		c.Notes = idx
	}
}

// HasDirection reports whether an explicit direction column was found.
func (c Columns) HasDirection() bool { return c.Direction >= 0 }

// ResolveColumns matches header against the synonyms. Exact matches win;
// a case-insensitive match is accepted otherwise. A missing date,
// description or amount column yields *parsererror.MissingColumnsError.
func ResolveColumns(header []string, synonyms HeaderSynonyms) (Columns, error) {
	cols := Columns{
		Date: -1, Description: -1, Amount: -1,
		Direction: -1, Account: -1, Counterparty: -1, Notes: -1,
		Width: len(header),
	}

	exact := make(map[string]int, len(header))
	folded := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		if _, ok := folded[strings.ToLower(h)]; !ok {
			folded[strings.ToLower(h)] = i
		}
	}

	used := map[int]bool{}
	var missing []string
	for _, f := range logicalFields {
		idx := lookup(synonyms[f], exact, folded, used)
		if idx < 0 && f.required() {
			missing = append(missing, string(f))
			continue
		}
		if idx >= 0 {
			used[idx] = true
		}
		cols.set(f, idx)
	}

	if len(missing) > 0 {
		return cols, &parsererror.MissingColumnsError{Missing: missing, Header: header}
	}
	return cols, nil
}

func lookup(names []string, exact, folded map[string]int, used map[int]bool) int {
	for _, n := range names {
		if idx, ok := exact[n]; ok && !used[idx] {
			return idx
		}
	}
	for _, n := range names {
		if idx, ok := folded[strings.ToLower(n)]; ok && !used[idx] {
			return idx
		}
	}
	return -1
}
