package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionDate(t *testing.T) {
	jan15 := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		input      string
		want       time.Time
		wantFormat string
	}{
		{"compact", "20230115", jan15, FormatCompact},
		{"iso", "2023-01-15", jan15, FormatISO},
		{"iso single digits", "2023-1-5", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), FormatISO},
		{"day first slash", "15/01/2023", jan15, FormatDaySlash},
		{"ambiguous slash is day first", "03/04/2023", time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC), FormatDaySlash},
		{"us slash when day first impossible", "01/15/2023", jan15, FormatUSSlash},
		{"day first dash", "15-01-2023", jan15, FormatDayDash},
		{"textual day month", "15 Jan 2023", jan15, "2 Jan 2006"},
		{"textual long month", "15 January 2023", jan15, "2 January 2006"},
		{"textual month day", "Jan 15, 2023", jan15, "Jan 2, 2006"},
		{"padded whitespace", "  15  Jan   2023 ", jan15, "2 Jan 2006"},
		{"european dots fallback", "15.01.2023", jan15, "02.01.2006"},
		{"timestamp fallback", "2023-01-15T10:30:00Z", jan15, time.RFC3339},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, format, err := ParseTransactionDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestParseTransactionDate_Rejects(t *testing.T) {
	for _, input := range []string{"2023-02-30", "20230230", "31/02/2023", "", "   ", "yesterday", "2023-13-01", "32 Jan 2023"} {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseTransactionDate(input)
			assert.Error(t, err)
		})
	}
}

func TestParseTransactionDate_LeapDay(t *testing.T) {
	got, _, err := ParseTransactionDate("29/02/2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	_, _, err = ParseTransactionDate("29/02/2023")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	start, end, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), end)

	_, _, err = ParseMonth("02/2024")
	assert.Error(t, err)
}

func TestToISODate(t *testing.T) {
	assert.Equal(t, "2023-01-15", ToISODate(time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC)))
}
