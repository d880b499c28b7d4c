package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theboatbrokers/brokerchat/internal/llm"
	"github.com/theboatbrokers/brokerchat/internal/timephrase"
)

type fakeOracle struct {
	reply string
	err   error
}

func (f *fakeOracle) Generate(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

func (f *fakeOracle) GenerateStream(_ context.Context, _ string) (llm.Stream, error) {
	panic("not used")
}

func TestParseFilters_PlainJSON(t *testing.T) {
	raw := `{"type": "vendors", "status": "won", "date_range": null,
		"boat_type": "narrow_boat", "stern_type": null, "budget": null, "layout": null}`

	f, err := ParseFilters(raw)
	require.NoError(t, err)
	assert.Equal(t, "seller", f.Type)
	assert.Equal(t, "won", f.Status)
	assert.Equal(t, "narrow_boat", f.BoatType)
	assert.Nil(t, f.DateRange)
}

func TestParseFilters_FencedJSONWithProse(t *testing.T) {
	raw := "Sure, here are the filters:\n```json\n{\"type\": \"sales\", \"status\": \"completed\"}\n```"
	f, err := ParseFilters(raw)
	require.NoError(t, err)
	assert.Equal(t, "deals", f.Type)
	assert.Equal(t, "completed", f.Status)
}

func TestParseFilters_NoObjectIsHardFailure(t *testing.T) {
	_, err := ParseFilters("I could not determine any filters.")
	require.ErrorIs(t, err, ErrFilterExtraction)
}

func TestParseFilters_MalformedObjectIsHardFailure(t *testing.T) {
	_, err := ParseFilters(`{"type": "buyers", "status": }`)
	require.ErrorIs(t, err, ErrFilterExtraction)
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"vendor": "seller", "Vendors": "seller", "sellers": "seller",
		"buyer": "buyer", "BUYERS": "buyer",
		"sale": "deals", "sales": "deals", "deal": "deals", "deals": "deals",
		"charterer": "charterer",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeType(in), in)
	}
}

func TestExtractFilters_TimeRangeOverridesOracle(t *testing.T) {
	oracle := &fakeOracle{reply: `{"type": "buyers", "date_range": {"start_date": "1999-01-01", "end_date": "1999-12-31"}}`}
	tr := &timephrase.Range{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}

	f, err := ExtractFilters(context.Background(), oracle, "buyer report from last month", tr)
	require.NoError(t, err)
	require.NotNil(t, f.DateRange)
	assert.Equal(t, "2024-02-01", f.DateRange.Start)
	assert.Equal(t, "2024-02-29", f.DateRange.End)
}

func TestExtractionPrompt_EnumeratesVocabulary(t *testing.T) {
	prompt := ExtractionPrompt("report of buyers", nil)
	for _, token := range []string{"narrow_boat", "wide_beam", "semi_traditional", "euro_cruiser", "£25k-50k", "engine_room"} {
		assert.Contains(t, prompt, token)
	}
}
