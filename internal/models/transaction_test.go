package models

import (
	"testing"
	"time"

	"fjacquet/bankflow/internal/taxonomy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" Credit ")
	require.NoError(t, err)
	assert.Equal(t, Credit, d)

	d, err = ParseDirection("DEBIT")
	require.NoError(t, err)
	assert.Equal(t, Debit, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestSetCategorySubstitutesFallback(t *testing.T) {
	var tx Transaction
	assert.False(t, tx.SetCategory(taxonomy.Pair{Main: taxonomy.Housing, Sub: taxonomy.Rent}))
	assert.Equal(t, taxonomy.Rent, tx.SubCategory)

	assert.True(t, tx.SetCategory(taxonomy.Pair{Main: taxonomy.Housing, Sub: taxonomy.Groceries}))
	assert.Equal(t, taxonomy.Fallback, tx.Category())
}

func TestIdentityKeyMatches(t *testing.T) {
	day := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	key := NewIdentityKey(day.Add(13*time.Hour), "Albert Heijn", decimal.RequireFromString("45.30"), Debit)

	start, end := key.DayRange()
	assert.Equal(t, day, start)
	assert.Equal(t, day.Add(24*time.Hour-time.Nanosecond), end)

	base := Transaction{Date: day, Description: "Albert Heijn", Amount: decimal.RequireFromString("45.3"), Direction: Debit}
	assert.True(t, key.Matches(base))

	late := base
	late.Date = day.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	assert.True(t, key.Matches(late))

	nextDay := base
	nextDay.Date = day.Add(24 * time.Hour)
	assert.False(t, key.Matches(nextDay))

	credit := base
	credit.Direction = Credit
	assert.False(t, key.Matches(credit))

	otherText := base
	otherText.Description = "albert heijn"
	assert.False(t, key.Matches(otherText))
}

func TestValidate(t *testing.T) {
	tx := Transaction{
		ID:           NewID(),
		Date:         time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString("10"),
		Direction:    Debit,
		MainCategory: taxonomy.Miscellaneous,
		SubCategory:  taxonomy.Other,
	}
	require.NoError(t, tx.Validate())

	bad := tx
	bad.Amount = decimal.RequireFromString("-1")
	assert.Error(t, bad.Validate())

	bad = tx
	bad.SubCategory = taxonomy.Salary
	assert.ErrorIs(t, bad.Validate(), taxonomy.ErrInvalidPair)
}

func TestSignedAmount(t *testing.T) {
	amt := decimal.RequireFromString("12.50")
	assert.Equal(t, "-12.50", FormatAmount(SignedAmount(amt, Debit)))
	assert.Equal(t, "12.50", FormatAmount(SignedAmount(amt, Credit)))
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.1, 1.0},
		{0.05, 0.1},
		{0.1 + 0.1 + 0.1, 0.3},
		{0.7, 0.7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ClampConfidence(tt.in), 1e-9)
	}
}

func TestPatternMatchesDescription(t *testing.T) {
	p := CategoryPattern{Pattern: "albert heijn"}
	assert.True(t, p.MatchesDescription("ALBERT HEIJN 1234 Amsterdam"))
	assert.False(t, p.MatchesDescription("Jumbo"))
	assert.False(t, CategoryPattern{}.MatchesDescription("anything"))
}
