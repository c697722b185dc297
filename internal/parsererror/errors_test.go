package parsererror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	base := errors.New("invalid decimal")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "parse error",
			err:      &ParseError{Field: "amount", Value: "abc", Err: base},
			expected: "failed to parse amount='abc': invalid decimal",
		},
		{
			name:     "row error",
			err:      &RowError{Row: 3, Err: base},
			expected: "row 3: invalid decimal",
		},
		{
			name:     "missing columns",
			err:      &MissingColumnsError{Missing: []string{"date", "amount"}, Header: []string{"Foo", "Description"}},
			expected: "missing required columns: date, amount (found: Foo, Description)",
		},
		{
			name:     "batch error",
			err:      &BatchError{Total: 2, First: &RowError{Row: 1, Err: base}},
			expected: "all 2 rows failed: row 1: invalid decimal",
		},
		{
			name:     "batch error stopped by error cap",
			err:      &BatchError{Total: 80, Processed: 50, First: &RowError{Row: 1, Err: base}},
			expected: "all 50 processed rows failed, stopped before the remaining 30 of 80 rows: row 1: invalid decimal",
		},
		{
			name:     "batch error with every row processed",
			err:      &BatchError{Total: 3, Processed: 3},
			expected: "all 3 rows failed",
		},
		{
			name:     "batch error without cause",
			err:      &BatchError{Total: 4},
			expected: "all 4 rows failed",
		},
		{
			name:     "categorization",
			err:      &CategorizationError{Description: "bol.com", Strategy: "AI", Err: base},
			expected: `categorization failed for "bol.com" using AI: invalid decimal`,
		},
		{
			name:     "validation",
			err:      &ValidationError{Field: "month", Reason: "expected YYYY-MM"},
			expected: "invalid month: expected YYYY-MM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrapChain(t *testing.T) {
	base := errors.New("root cause")
	err := &BatchError{Total: 1, First: &RowError{Row: 1, Err: &ParseError{Field: "date", Value: "x", Err: base}}}

	assert.ErrorIs(t, err, base)

	var rowErr *RowError
	assert.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Row)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "date", parseErr.Field)
}
