package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/quantity"
)

// Options are presentation and logistics inputs of a summary. Changing them
// only re-runs Build.
type Options struct {
	Freight        decimal.Decimal
	HideUnitPrices bool
	Currency       string
}

// Summary is the budget roll-up of a set of priced items.
type Summary struct {
	Subtotals      map[catalog.Role]decimal.Decimal `json:"subtotals"`
	MaterialsTotal decimal.Decimal                  `json:"materials_total"`
	Freight        decimal.Decimal                  `json:"freight"`
	GrandTotal     decimal.Decimal                  `json:"grand_total"`
	TotalBasis     float64                          `json:"total_basis"`
	BasisMeasure   catalog.Measure                  `json:"basis_measure"`
	BasisArea      float64                          `json:"basis_area"`
	// PricePerUnitArea is nil when the proposal has no area basis.
	PricePerUnitArea *decimal.Decimal `json:"price_per_unit_area"`
	// TotalMass is nil when no item carries a unit mass.
	TotalMass      *float64 `json:"total_mass,omitempty"`
	HideUnitPrices bool     `json:"hide_unit_prices"`
	Currency       string   `json:"currency,omitempty"`
	ItemCount      int      `json:"item_count"`
}

// Build aggregates already priced items. It never recomputes quantities or
// line totals.
func Build(items []LineItem, basis quantity.Basis, opts Options) (Summary, error) {
	if opts.Freight.IsNegative() {
		return Summary{}, &quantity.InvalidParameterError{Field: "freight", Reason: "must be at least 0"}
	}

	subtotals := make(map[catalog.Role]decimal.Decimal)
	materials := decimal.Zero
	var mass float64
	hasMass := false

	for _, item := range items {
		subtotals[item.Role] = subtotals[item.Role].Add(item.LineTotal)
		materials = materials.Add(item.LineTotal)
		if item.UnitMass > 0 {
			mass += item.PurchasableQuantity * item.UnitMass
			hasMass = true
		}
	}

	grand := materials.Add(opts.Freight)

	summary := Summary{
		Subtotals:      subtotals,
		MaterialsTotal: materials,
		Freight:        opts.Freight,
		GrandTotal:     grand,
		TotalBasis:     basis.Total(),
		BasisMeasure:   basis.Primary,
		BasisArea:      basis.Area,
		HideUnitPrices: opts.HideUnitPrices,
		Currency:       opts.Currency,
		ItemCount:      len(items),
	}
	if basis.Area > 0 {
		perArea := grand.Div(decimal.NewFromFloat(basis.Area)).Round(2)
		summary.PricePerUnitArea = &perArea
	}
	if hasMass {
		summary.TotalMass = &mass
	}
	return summary, nil
}

// Breakdown lists the subtotals in display order.
func (s Summary) Breakdown() []RoleSubtotal {
	out := make([]RoleSubtotal, 0, len(s.Subtotals))
	for _, r := range subtotalRoles(s.Subtotals) {
		out = append(out, RoleSubtotal{Role: r, Total: s.Subtotals[r]})
	}
	return out
}

// RoleSubtotal is one row of the breakdown.
type RoleSubtotal struct {
	Role  catalog.Role    `json:"role"`
	Total decimal.Decimal `json:"total"`
}
