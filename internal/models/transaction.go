package models

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/bankflow/internal/taxonomy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction tells whether money came in or went out.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// ParseDirection accepts "credit" or "debit", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Credit):
		return Credit, nil
	case string(Debit):
		return Debit, nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

func (d Direction) String() string { return string(d) }

// Transaction is the canonical record produced by an import. Amount is
// always unsigned; Direction carries the sign.
type Transaction struct {
	ID           string                `json:"id" yaml:"id"`
	Date         time.Time             `json:"date" yaml:"date"`
	Description  string                `json:"description" yaml:"description"`
	Amount       decimal.Decimal       `json:"amount" yaml:"amount"`
	Direction    Direction             `json:"direction" yaml:"direction"`
	MainCategory taxonomy.MainCategory `json:"mainCategory" yaml:"main_category"`
	SubCategory  taxonomy.SubCategory  `json:"subCategory" yaml:"sub_category"`
	Account      string                `json:"account" yaml:"account"`
	Counterparty string                `json:"counterparty,omitempty" yaml:"counterparty,omitempty"`
	Notes        string                `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt    time.Time             `json:"createdAt" yaml:"created_at"`
}

// NewID returns a fresh opaque transaction identifier.
func NewID() string {
	return uuid.NewString()
}

// Category returns the transaction's category pair.
func (t Transaction) Category() taxonomy.Pair {
	return taxonomy.Pair{Main: t.MainCategory, Sub: t.SubCategory}
}

// SetCategory assigns a pair, substituting the fallback for invalid ones.
// It reports whether a substitution happened.
func (t *Transaction) SetCategory(p taxonomy.Pair) bool {
	if !p.Valid() {
		t.MainCategory, t.SubCategory = taxonomy.Fallback.Main, taxonomy.Fallback.Sub
		return true
	}
	t.MainCategory, t.SubCategory = p.Main, p.Sub
	return false
}

// Identity returns the duplicate-detection key of the transaction.
func (t Transaction) Identity() IdentityKey {
	return NewIdentityKey(t.Date, t.Description, t.Amount, t.Direction)
}

// Validate checks the invariants a stored transaction must hold.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction id is empty")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is empty")
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must be unsigned, got %s", t.Amount)
	}
	if t.Direction != Credit && t.Direction != Debit {
		return fmt.Errorf("invalid direction %q", t.Direction)
	}
	if !taxonomy.IsValidPair(t.MainCategory, t.SubCategory) {
		return fmt.Errorf("%w: %s/%s", taxonomy.ErrInvalidPair, t.MainCategory, t.SubCategory)
	}
	return nil
}

// IdentityKey identifies a logical transaction: same calendar day, same
// description, same amount and same direction.
type IdentityKey struct {
	Day         time.Time
	Description string
	Amount      decimal.Decimal
	Direction   Direction
}

// NewIdentityKey truncates date to its UTC calendar day.
func NewIdentityKey(date time.Time, description string, amount decimal.Decimal, dir Direction) IdentityKey {
	return IdentityKey{
		Day:         StartOfDay(date),
		Description: description,
		Amount:      amount,
		Direction:   dir,
	}
}

// DayRange returns the inclusive bounds [00:00:00, 23:59:59.999999999] of the
// key's calendar day.
func (k IdentityKey) DayRange() (time.Time, time.Time) {
	start := StartOfDay(k.Day)
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// Matches reports whether t has the same identity as k.
func (k IdentityKey) Matches(t Transaction) bool {
	start, end := k.DayRange()
	if t.Date.Before(start) || t.Date.After(end) {
		return false
	}
	return t.Description == k.Description && t.Amount.Equal(k.Amount) && t.Direction == k.Direction
}

func (k IdentityKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Day.Format("2006-01-02"), k.Description, k.Amount.String(), k.Direction)
}

// StartOfDay returns midnight UTC of the calendar day of t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
