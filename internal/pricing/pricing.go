package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/quantity"
)

// quantityTolerance applies to lines built outside the calculator, which
// already reports purchasable >= with waste >= net exactly.
const quantityTolerance = 1e-6

// ErrAggregationInconsistency reports an internal invariant violation. No
// total is produced when it occurs.
var ErrAggregationInconsistency = errors.New("aggregation inconsistency")

// LineItem is a priced line of the bill of materials.
type LineItem struct {
	quantity.Line
	LineTotal decimal.Decimal `json:"line_total"`
	// EffectiveWastePercent is derived from the quantities for display only;
	// the configured WastePercent is what the calculation uses.
	EffectiveWastePercent float64 `json:"effective_waste_percent"`
}

// Result groups the priced items and their summary.
type Result struct {
	Items   []LineItem `json:"items"`
	Summary Summary    `json:"summary"`
}

// PriceLineItems prices the lines and builds a summary without freight.
func PriceLineItems(lines []quantity.Line, basis quantity.Basis) (Result, error) {
	items, err := Price(lines)
	if err != nil {
		return Result{}, err
	}

	summary, err := Build(items, basis, Options{})
	if err != nil {
		return Result{}, err
	}
	return Result{Items: items, Summary: summary}, nil
}

// Price computes LineTotal = purchasable quantity x unit price, rounded to
// cents, after checking the quantity invariants of every line.
func Price(lines []quantity.Line) ([]LineItem, error) {
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		if err := checkLine(line); err != nil {
			return nil, err
		}

		total := decimal.NewFromFloat(line.PurchasableQuantity).Mul(line.UnitPrice).Round(2)
		items = append(items, LineItem{
			Line:                  line,
			LineTotal:             total,
			EffectiveWastePercent: effectiveWaste(line),
		})
	}
	return items, nil
}

func checkLine(l quantity.Line) error {
	for _, v := range []float64{l.NetQuantity, l.QuantityWithWaste, l.PurchasableQuantity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("item %s: non-finite quantity: %w", l.ItemID, ErrAggregationInconsistency)
		}
	}

	switch {
	case l.NetQuantity < 0:
		return fmt.Errorf("item %s: negative net quantity %v: %w", l.ItemID, l.NetQuantity, ErrAggregationInconsistency)
	case l.QuantityWithWaste < l.NetQuantity-quantityTolerance:
		return fmt.Errorf("item %s: quantity with waste %v below net %v: %w", l.ItemID, l.QuantityWithWaste, l.NetQuantity, ErrAggregationInconsistency)
	case l.PurchasableQuantity < l.QuantityWithWaste-quantityTolerance:
		return fmt.Errorf("item %s: purchasable %v below quantity with waste %v: %w", l.ItemID, l.PurchasableQuantity, l.QuantityWithWaste, ErrAggregationInconsistency)
	case l.UnitPrice.IsNegative():
		return fmt.Errorf("item %s: negative unit price %s: %w", l.ItemID, l.UnitPrice, ErrAggregationInconsistency)
	}
	return nil
}

func effectiveWaste(l quantity.Line) float64 {
	if l.NetQuantity == 0 {
		return 0
	}
	return (l.QuantityWithWaste/l.NetQuantity - 1) * 100
}

// subtotalRoles returns the roles present in the summary in breakdown order.
func subtotalRoles(subtotals map[catalog.Role]decimal.Decimal) []catalog.Role {
	roles := make([]catalog.Role, 0, len(subtotals))
	for _, r := range catalog.Roles {
		if _, ok := subtotals[r]; ok {
			roles = append(roles, r)
		}
	}
	return roles
}
