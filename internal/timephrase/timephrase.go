// Package timephrase maps vague natural-language time references ("last
// month", "this quarter") to explicit inclusive date ranges. It is pure:
// no clock access, no I/O; callers supply the reference instant.
package timephrase

import (
	"strings"
	"time"
)

// Range is an inclusive calendar date range. Start never exceeds End and,
// when derived from a relative phrase, End never exceeds the reference
// instant.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the ISO calendar date of the range start.
func (r Range) StartDate() string { return r.Start.Format("2006-01-02") }

// EndDate returns the ISO calendar date of the range end.
func (r Range) EndDate() string { return r.End.Format("2006-01-02") }

type phraseRule struct {
	phrase  string
	resolve func(now time.Time) (time.Time, time.Time)
}

// Table order matters: matching stops at the first phrase found in the
// input. Inputs with several co-occurring phrases are ambiguous and
// resolve to whichever appears first here; callers should not rely on
// that behavior.
var phrases = []phraseRule{
	{"last month", func(now time.Time) (time.Time, time.Time) {
		endPrev := date(now.Year(), now.Month(), 1).AddDate(0, 0, -1)
		return date(endPrev.Year(), endPrev.Month(), 1), endPrev
	}},
	{"this month", func(now time.Time) (time.Time, time.Time) {
		return date(now.Year(), now.Month(), 1), now
	}},
	{"last year", func(now time.Time) (time.Time, time.Time) {
		return date(now.Year()-1, time.January, 1), date(now.Year()-1, time.December, 31)
	}},
	{"this year", func(now time.Time) (time.Time, time.Time) {
		return date(now.Year(), time.January, 1), now
	}},
	{"this week", func(now time.Time) (time.Time, time.Time) {
		return now.AddDate(0, 0, -weekdayFromMonday(now)), now
	}},
	{"last week", func(now time.Time) (time.Time, time.Time) {
		wd := weekdayFromMonday(now)
		return now.AddDate(0, 0, -(wd + 7)), now.AddDate(0, 0, -(wd + 1))
	}},
	{"yesterday", func(now time.Time) (time.Time, time.Time) {
		y := now.AddDate(0, 0, -1)
		return y, y
	}},
	{"today", func(now time.Time) (time.Time, time.Time) {
		return now, now
	}},
	{"this quarter", func(now time.Time) (time.Time, time.Time) {
		return quarterRange(now, 0)
	}},
	{"last quarter", func(now time.Time) (time.Time, time.Time) {
		return quarterRange(now, -1)
	}},
}

// Normalize scans text for a recognized vague time phrase and resolves it
// against now. The second return is false when no phrase is present.
func Normalize(text string, now time.Time) (Range, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range phrases {
		if !strings.Contains(lowered, rule.phrase) {
			continue
		}
		start, end := rule.resolve(now)
		if end.After(now) {
			end = now
		}
		return Range{Start: start, End: end}, true
	}
	return Range{}, false
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekdayFromMonday counts days since the most recent Monday (Monday = 0).
func weekdayFromMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// quarterRange resolves the calendar quarter containing now shifted by
// offset quarters, wrapping across year boundaries.
func quarterRange(now time.Time, offset int) (time.Time, time.Time) {
	q := (int(now.Month())-1)/3 + 1 + offset
	year := now.Year()
	for q < 1 {
		q += 4
		year--
	}
	for q > 4 {
		q -= 4
		year++
	}
	startMonth := time.Month((q-1)*3 + 1)
	// Day zero of the following month is the last day of the quarter.
	end := date(year, startMonth+3, 0)
	return date(year, startMonth, 1), end
}
