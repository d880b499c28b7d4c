// Package report turns a free-text report request into a parameterized
// SQL query and renders the result as a downloadable artifact. Extraction
// goes through the generative text service; compilation is a deterministic
// in-code rulebook so the trust boundary stays in this package.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/theboatbrokers/brokerchat/internal/llm"
	"github.com/theboatbrokers/brokerchat/internal/timephrase"
)

// ErrFilterExtraction means the oracle reply did not contain a parseable
// filter object. It is a hard failure, never a silent empty filter.
var ErrFilterExtraction = errors.New("report: could not extract filters")

// DateRange carries ISO calendar dates that bind directly as statement
// parameters.
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Filters is the structured report request. Empty string, "null", "any"
// and "all" are one equivalent "no constraint" class on every field.
type Filters struct {
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	DateRange *DateRange `json:"date_range"`
	BoatType  string     `json:"boat_type"`
	SternType string     `json:"stern_type"`
	Budget    string     `json:"budget"`
	Layout    string     `json:"layout"`
}

// isUnset reports whether a filter value means "no constraint".
func isUnset(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "any", "all":
		return true
	}
	return false
}

// typeSynonyms folds the business-facing vocabulary onto the discriminator
// values the database actually stores.
var typeSynonyms = map[string]string{
	"vendor":  "seller",
	"vendors": "seller",
	"seller":  "seller",
	"sellers": "seller",
	"buyer":   "buyer",
	"buyers":  "buyer",
	"sale":    "deals",
	"sales":   "deals",
	"deal":    "deals",
	"deals":   "deals",
}

// NormalizeType maps a report-type synonym to its canonical value; unknown
// values pass through unchanged for the compiler to reject.
func NormalizeType(t string) string {
	key := strings.ToLower(strings.TrimSpace(t))
	if canonical, ok := typeSynonyms[key]; ok {
		return canonical
	}
	return key
}

// ExtractionPrompt enumerates the exact closed vocabulary for every filter
// field. Any new enum value in the admin panel requires a change here; the
// vocabulary is part of the external contract.
func ExtractionPrompt(userText string, tr *timephrase.Range) string {
	timeInfo := ""
	if tr != nil {
		timeInfo = fmt.Sprintf(`
NOTE:
Based on user's input, the following time context was detected:
Start Date: %s
End Date: %s
`, tr.StartDate(), tr.EndDate())
	}

	return fmt.Sprintf(`You are a smart assistant that extracts structured filters from natural language.

Given the user message below, extract the following filters:

- type: one of 'vendors', 'buyers', or 'sales' (synonyms: seller = vendors)
- status:
    - For vendors/buyers: one of 'all', 'new', 'won', 'archived'
    - For sales: one of 'all', 'current', 'completed', 'cancelled'
- date_range: extract as {"start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD"}
- boat_type: one of 'narrow_boat', 'wide_beam', 'any'
- stern_type: one of 'cruiser', 'semi_traditional', 'traditional', 'euro_cruiser', 'other', 'any'
- budget: one of 'Under £25K', '£25k-50k', '£50k-75k', '£75k-£100k', '£100k+', 'All' (only for buyers/sales)
- layout: one of 'traditional', 'reverse', 'engine_room', 'any' (only for buyers/sales)

Return output as a JSON object. If a filter is not specified in the message, set its value to null.

User message:
"""
%s
"""

Time context:
"""
%s
"""
`, userText, timeInfo)
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ParseFilters locates the first brace-delimited JSON object in a raw
// oracle reply and decodes it. Markdown fences around the object are
// tolerated because the scan keys on braces, not fences.
func ParseFilters(raw string) (Filters, error) {
	m := jsonObjectRe.FindString(raw)
	if m == "" {
		return Filters{}, fmt.Errorf("%w: no JSON object in response", ErrFilterExtraction)
	}
	var f Filters
	if err := json.Unmarshal([]byte(m), &f); err != nil {
		return Filters{}, fmt.Errorf("%w: %v", ErrFilterExtraction, err)
	}
	f.Type = NormalizeType(f.Type)
	return f, nil
}

// ExtractFilters runs the full first stage: oracle delegation, defensive
// parse, synonym normalization. tr is the time range already recognized
// in the user text, if any; when present it overrides whatever the oracle
// put in date_range.
func ExtractFilters(ctx context.Context, oracle llm.Client, userText string, tr *timephrase.Range) (Filters, error) {
	reply, err := oracle.Generate(ctx, ExtractionPrompt(userText, tr))
	if err != nil {
		return Filters{}, err
	}
	f, err := ParseFilters(reply)
	if err != nil {
		return Filters{}, err
	}
	if tr != nil {
		f.DateRange = &DateRange{Start: tr.StartDate(), End: tr.EndDate()}
	}
	return f, nil
}
