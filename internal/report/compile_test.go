package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireArity(t *testing.T, q Query) {
	t.Helper()
	require.Equal(t, strings.Count(q.Statement, "?"), len(q.Params),
		"placeholder count must match parameter count")
}

func TestCompile_SellerUsesSellerColumns(t *testing.T) {
	q, err := Compile(Filters{Type: "seller", BoatType: "narrow_boat"})
	require.NoError(t, err)
	requireArity(t, q)

	assert.Contains(t, q.Statement, "FROM leads")
	assert.Contains(t, q.Statement, "type = ?")
	assert.Contains(t, q.Statement, "seller_preference_boat = ?")
	assert.NotContains(t, q.Statement, "buyer_preference_boat")
	assert.Equal(t, []any{"seller", "narrow_boat"}, q.Params)
}

func TestCompile_BuyerUsesBuyerColumns(t *testing.T) {
	q, err := Compile(Filters{
		Type:      "buyer",
		Status:    "won",
		BoatType:  "wide_beam",
		SternType: "cruiser",
		Budget:    "£50k-75k",
		Layout:    "reverse",
	})
	require.NoError(t, err)
	requireArity(t, q)

	for _, col := range []string{
		"buyer_preference_boat", "buyer_preference_stern_type",
		"buyer_budget", "buyer_preference_layout", "status = ?",
	} {
		assert.Contains(t, q.Statement, col)
	}
	assert.Equal(t, []any{"buyer", "won", "wide_beam", "cruiser", "£50k-75k", "reverse"}, q.Params)
}

func TestCompile_SellerDropsBuyerOnlyFields(t *testing.T) {
	q, err := Compile(Filters{Type: "seller", Budget: "£100k+", Layout: "traditional"})
	require.NoError(t, err)
	requireArity(t, q)

	assert.NotContains(t, q.Statement, "budget")
	assert.NotContains(t, q.Statement, "layout")
	assert.Equal(t, []any{"seller"}, q.Params)
}

func TestCompile_SentinelsAreOmitted(t *testing.T) {
	for _, sentinel := range []string{"", "null", "any", "all", "Any", "ALL"} {
		q, err := Compile(Filters{Type: "buyer", Status: sentinel, BoatType: sentinel})
		require.NoError(t, err)
		requireArity(t, q)
		assert.NotContains(t, q.Statement, "status = ?", sentinel)
		assert.NotContains(t, q.Statement, "boat", sentinel)
	}
}

func TestCompile_DateRangeUsesTwoPlaceholders(t *testing.T) {
	q, err := Compile(Filters{
		Type:      "buyer",
		DateRange: &DateRange{Start: "2024-02-01", End: "2024-02-29"},
	})
	require.NoError(t, err)
	requireArity(t, q)

	assert.Contains(t, q.Statement, "created_at BETWEEN ? AND ?")
	assert.NotContains(t, q.Statement, "2024-02-01", "dates must bind, not interpolate")
	assert.Equal(t, []any{"buyer", "2024-02-01", "2024-02-29"}, q.Params)
}

func TestCompile_DealsAllSentinelsHasNoWhere(t *testing.T) {
	q, err := Compile(Filters{Type: "deals", Status: "all", BoatType: "any", Budget: "All"})
	require.NoError(t, err)
	requireArity(t, q)

	assert.NotContains(t, q.Statement, "WHERE")
	assert.Contains(t, q.Statement, "ORDER BY deals.created_at ASC")
	assert.Empty(t, q.Params)
}

func TestCompile_DealsMatchesEitherRole(t *testing.T) {
	q, err := Compile(Filters{Type: "deals", BoatType: "narrow_boat", SternType: "cruiser"})
	require.NoError(t, err)
	requireArity(t, q)

	assert.Contains(t, q.Statement, "buyer_lead.buyer_preference_boat = ? OR seller_lead.seller_preference_boat = ?")
	assert.Contains(t, q.Statement, "buyer_lead.buyer_preference_stern_type = ? OR seller_lead.seller_preference_stern_type = ?")
	assert.Equal(t, []any{"narrow_boat", "narrow_boat", "cruiser", "cruiser"}, q.Params)
}

func TestCompile_DealsBudgetAndLayoutBindBuyerOnly(t *testing.T) {
	q, err := Compile(Filters{Type: "deals", Budget: "£25k-50k", Layout: "engine_room"})
	require.NoError(t, err)
	requireArity(t, q)

	assert.Contains(t, q.Statement, "buyer_lead.buyer_budget = ?")
	assert.Contains(t, q.Statement, "buyer_lead.buyer_preference_layout = ?")
	assert.NotContains(t, q.Statement, "seller_lead.buyer_budget")
}

func TestCompile_DealsJoinsBothRoles(t *testing.T) {
	q, err := Compile(Filters{Type: "deals"})
	require.NoError(t, err)

	assert.Contains(t, q.Statement, "JOIN leads AS buyer_lead")
	assert.Contains(t, q.Statement, "JOIN leads AS seller_lead")
	assert.Contains(t, q.Statement, "JOIN boat_buyers")
	assert.Contains(t, q.Statement, "JOIN boat_sellers")
}

func TestCompile_UnknownTypeRejected(t *testing.T) {
	_, err := Compile(Filters{Type: "charterer"})
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Compile(Filters{})
	require.ErrorIs(t, err, ErrUnsupportedType)
}
