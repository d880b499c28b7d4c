package timephrase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 2024-03-15 is a Friday.
var refNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func TestNormalize_Phrases(t *testing.T) {
	cases := []struct {
		input string
		start string
		end   string
	}{
		{"show me all sellers from last month", "2024-02-01", "2024-02-29"},
		{"buyers added this month", "2024-03-01", "2024-03-15"},
		{"deals from last year", "2023-01-01", "2023-12-31"},
		{"leads this year", "2024-01-01", "2024-03-15"},
		{"sales this week", "2024-03-11", "2024-03-15"},
		{"sales last week", "2024-03-04", "2024-03-10"},
		{"who called yesterday", "2024-03-14", "2024-03-14"},
		{"leads created today", "2024-03-15", "2024-03-15"},
		{"report for this quarter", "2024-01-01", "2024-03-15"},
		{"report for last quarter", "2023-10-01", "2023-12-31"},
		{"LAST MONTH in caps", "2024-02-01", "2024-02-29"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			r, ok := Normalize(tc.input, refNow)
			require.True(t, ok)
			require.Equal(t, tc.start, r.StartDate())
			require.Equal(t, tc.end, r.EndDate())
		})
	}
}

func TestNormalize_NoPhrase(t *testing.T) {
	_, ok := Normalize("list all vendor emails", refNow)
	require.False(t, ok)
}

func TestNormalize_LastQuarterWrapsYear(t *testing.T) {
	// Reference in Q1 means last quarter is Q4 of the previous year.
	jan := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	r, ok := Normalize("last quarter", jan)
	require.True(t, ok)
	require.Equal(t, "2024-10-01", r.StartDate())
	require.Equal(t, "2024-12-31", r.EndDate())
}

func TestNormalize_OrderingInvariant(t *testing.T) {
	inputs := []string{
		"today", "yesterday", "this week", "last week", "this month",
		"last month", "this quarter", "last quarter", "this year", "last year",
	}
	for _, input := range inputs {
		r, ok := Normalize(input, refNow)
		require.True(t, ok, input)
		require.False(t, r.Start.After(r.End), "start > end for %q", input)
		require.False(t, r.End.After(refNow), "end > now for %q", input)
	}
}

func TestNormalize_FirstMatchWins(t *testing.T) {
	// "last month" precedes "today" in the table; co-occurring phrases
	// resolve to the earlier table entry.
	r, ok := Normalize("compare today against last month", refNow)
	require.True(t, ok)
	require.Equal(t, "2024-02-01", r.StartDate())
}
