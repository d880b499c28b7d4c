package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedType means the normalized report type matched neither the
// lead roles nor deals.
var ErrUnsupportedType = errors.New("report: unsupported report type")

// Query is a parameterized statement plus its ordered bound values. Filter
// values are never interpolated into the statement text.
type Query struct {
	Statement string
	Params    []any
}

// leadAliases maps filter field names onto role-prefixed lead columns.
// budget and layout exist only on the buyer side; a seller request drops
// them silently rather than erring.
var leadAliases = map[string]map[string]string{
	"buyer": {
		"boat_type":  "buyer_preference_boat",
		"stern_type": "buyer_preference_stern_type",
		"budget":     "buyer_budget",
		"layout":     "buyer_preference_layout",
	},
	"seller": {
		"boat_type":  "seller_preference_boat",
		"stern_type": "seller_preference_stern_type",
	},
}

// salesSelectClause names the deal and role columns a sales report shows,
// with the business-facing headers the spreadsheet uses.
const salesSelectClause = `SELECT
  deals.status AS ` + "`Sales Status`" + `,
  deals.sale_price AS ` + "`Sale Price`" + `,
  deals.deposit AS ` + "`Deposit`" + `,
  deals.balance AS ` + "`Balance`" + `,
  deals.commission AS ` + "`Commission`" + `,
  deals.balance_date AS ` + "`Balance Date`" + `,
  deals.deposit_date AS ` + "`Deposit Date`" + `,
  deals.sale_price_date AS ` + "`Sale Price Date`" + `,
  deals.survey AS ` + "`Survey Status`" + `,
  deals.amendment AS ` + "`Amendment Status`" + `,
  seller_lead.first_name_1 AS ` + "`Vendor First Name 1`" + `,
  seller_lead.surname_1 AS ` + "`Vendor Surname 1`" + `,
  seller_lead.email_1 AS ` + "`Vendor Email 1`" + `,
  seller_lead.telephone_1 AS ` + "`Vendor Phone 1`" + `,
  seller_lead.address_1 AS ` + "`Vendor Address 1`" + `,
  seller_lead.seller_boat_name AS ` + "`Vendor Boat Name`" + `,
  seller_lead.seller_boat_lying_at AS ` + "`Vendor Boat Location`" + `,
  seller_lead.seller_preference_boat AS ` + "`Vendor Boat Type`" + `,
  seller_lead.seller_boat_length AS ` + "`Vendor Boat Length`" + `,
  seller_lead.seller_preference_stern_type AS ` + "`Vendor Stern Type`" + `,
  seller_lead.seller_boat_year_built AS ` + "`Vendor Year Built`" + `,
  seller_lead.seller_boat_builder AS ` + "`Vendor Builder`" + `,
  seller_lead.seller_valuation_low AS ` + "`Vendor Valuation Low`" + `,
  seller_lead.seller_valuation_high AS ` + "`Vendor Valuation High`" + `,
  seller_lead.seller_commission_rate AS ` + "`Vendor Commission Rate`" + `,
  buyer_lead.first_name_1 AS ` + "`Buyer First Name 1`" + `,
  buyer_lead.surname_1 AS ` + "`Buyer Surname 1`" + `,
  buyer_lead.email_1 AS ` + "`Buyer Email 1`" + `,
  buyer_lead.telephone_1 AS ` + "`Buyer Phone 1`" + `,
  buyer_lead.address_1 AS ` + "`Buyer Address 1`" + `,
  buyer_lead.buyer_preference_boat AS ` + "`Buyer Boat Preference`" + `,
  buyer_lead.buyer_preference_stern_type AS ` + "`Buyer Stern Type`" + `,
  buyer_lead.buyer_preference_length AS ` + "`Buyer Length`" + `,
  buyer_lead.buyer_preference_layout AS ` + "`Buyer Layout`" + `,
  buyer_lead.buyer_budget AS ` + "`Buyer Budget`"

const salesFromClause = `
FROM deals
JOIN boat_buyers ON deals.boat_buyer_id = boat_buyers.id
JOIN boat_sellers ON deals.boat_seller_id = boat_sellers.id
JOIN leads AS buyer_lead ON boat_buyers.lead_id = buyer_lead.id
JOIN leads AS seller_lead ON boat_sellers.lead_id = seller_lead.id`

// Compile turns a filter object into a parameterized query through the
// deterministic field-mapping rulebook. Unset sentinel values are omitted
// from the WHERE clause entirely, never translated into no-op comparisons.
func Compile(f Filters) (Query, error) {
	var q Query
	var err error

	switch f.Type {
	case "buyer", "seller":
		q = compileLeads(f)
	case "deals":
		q = compileDeals(f)
	default:
		return Query{}, fmt.Errorf("%w: %q", ErrUnsupportedType, f.Type)
	}
	if err = checkArity(q); err != nil {
		return Query{}, err
	}
	return q, nil
}

// checkArity enforces the placeholder/parameter parity invariant before a
// query ever reaches the store.
func checkArity(q Query) error {
	if n := strings.Count(q.Statement, "?"); n != len(q.Params) {
		return fmt.Errorf("report: placeholder count %d does not match %d parameters", n, len(q.Params))
	}
	return nil
}

func compileLeads(f Filters) Query {
	where := []string{"type = ?"}
	params := []any{f.Type}

	if !isUnset(f.Status) {
		where = append(where, "status = ?")
		params = append(params, f.Status)
	}
	if f.DateRange != nil && f.DateRange.Start != "" && f.DateRange.End != "" {
		where = append(where, "created_at BETWEEN ? AND ?")
		params = append(params, f.DateRange.Start, f.DateRange.End)
	}

	aliases := leadAliases[f.Type]
	for _, field := range []struct{ name, value string }{
		{"boat_type", f.BoatType},
		{"stern_type", f.SternType},
		{"budget", f.Budget},
		{"layout", f.Layout},
	} {
		column, ok := aliases[field.name]
		if !ok || isUnset(field.value) {
			continue
		}
		where = append(where, column+" = ?")
		params = append(params, field.value)
	}

	return Query{
		Statement: "SELECT * FROM leads WHERE " + strings.Join(where, " AND "),
		Params:    params,
	}
}

func compileDeals(f Filters) Query {
	var where []string
	var params []any

	if !isUnset(f.Status) {
		where = append(where, "deals.status = ?")
		params = append(params, f.Status)
	}
	if f.DateRange != nil && f.DateRange.Start != "" && f.DateRange.End != "" {
		where = append(where, "deals.created_at BETWEEN ? AND ?")
		params = append(params, f.DateRange.Start, f.DateRange.End)
	}
	// Boat and stern preferences match either role of the deal.
	if !isUnset(f.BoatType) {
		where = append(where, "(buyer_lead.buyer_preference_boat = ? OR seller_lead.seller_preference_boat = ?)")
		params = append(params, f.BoatType, f.BoatType)
	}
	if !isUnset(f.SternType) {
		where = append(where, "(buyer_lead.buyer_preference_stern_type = ? OR seller_lead.seller_preference_stern_type = ?)")
		params = append(params, f.SternType, f.SternType)
	}
	if !isUnset(f.Budget) {
		where = append(where, "buyer_lead.buyer_budget = ?")
		params = append(params, f.Budget)
	}
	if !isUnset(f.Layout) {
		where = append(where, "buyer_lead.buyer_preference_layout = ?")
		params = append(params, f.Layout)
	}

	stmt := salesSelectClause + salesFromClause
	if len(where) > 0 {
		stmt += "\nWHERE " + strings.Join(where, " AND ")
	}
	stmt += "\nORDER BY deals.created_at ASC"

	return Query{Statement: stmt, Params: params}
}
