package quantity

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
)

// Override fixes the net quantity of one catalog item, replacing the value
// the formula would derive. Waste, rounding and pricing still apply.
type Override struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

// Line is the quantity part of a calculated line item.
type Line struct {
	ItemID              string          `json:"item_id"`
	Description         string          `json:"description"`
	Role                catalog.Role    `json:"role"`
	Unit                string          `json:"unit"`
	NetQuantity         float64         `json:"net_quantity"`
	QuantityWithWaste   float64         `json:"quantity_with_waste"`
	PurchasableQuantity float64         `json:"purchasable_quantity"`
	WastePercent        float64         `json:"waste_percent"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	UnitMass            float64         `json:"unit_mass,omitempty"`
	Overridden          bool            `json:"overridden,omitempty"`
}

// ComputeLineItems validates the parameters, derives the net basis and turns
// the composition into quantity lines.
func ComputeLineItems(p Parameters, composition []catalog.CompositionItem, overrides []Override) (Basis, []Line, error) {
	basis, err := NetBasis(p)
	if err != nil {
		return Basis{}, nil, err
	}

	lines, err := DeriveLines(basis, composition, overrides)
	if err != nil {
		return Basis{}, nil, err
	}
	return basis, lines, nil
}

// DeriveLines applies the composition to a basis. Items are processed in
// ascending calculation order so an item may depend on the purchasable
// quantity of an earlier one. Items whose net quantity is zero are left out
// unless an override names them.
func DeriveLines(basis Basis, composition []catalog.CompositionItem, overrides []Override) ([]Line, error) {
	items := catalog.Snapshot(composition)

	fixed, err := indexOverrides(items, overrides)
	if err != nil {
		return nil, err
	}

	purchased := make(map[string]float64, len(items))
	skipped := make(map[string]bool)
	lines := make([]Line, 0, len(items))

	for _, item := range items {
		if err := checkItem(item); err != nil {
			return nil, err
		}

		qty, overridden := fixed[item.ItemID]
		if !overridden {
			if basis.SkipRoles[item.Role] || (item.DependsOn != "" && skipped[item.DependsOn]) {
				skipped[item.ItemID] = true
				continue
			}
			qty, err = netQuantity(basis, item, purchased)
			if err != nil {
				return nil, err
			}
		}

		withWaste := ApplyWaste(qty, item.WastePercent)
		purchasable := RoundPurchasable(withWaste, item.EffectiveRounding())
		// Rounding absorbs float noise below epsilon; the reported quantities
		// absorb it too so purchasable >= with waste >= net holds exactly.
		withWaste = math.Min(withWaste, purchasable)
		qty = math.Min(qty, withWaste)
		purchased[item.ItemID] = purchasable

		if qty == 0 && !overridden {
			continue
		}

		lines = append(lines, Line{
			ItemID:              item.ItemID,
			Description:         item.Description,
			Role:                item.Role,
			Unit:                item.Unit,
			NetQuantity:         qty,
			QuantityWithWaste:   withWaste,
			PurchasableQuantity: purchasable,
			WastePercent:        item.WastePercent,
			UnitPrice:           item.UnitPrice,
			UnitMass:            item.UnitMass,
			Overridden:          overridden,
		})
	}

	return lines, nil
}

func netQuantity(basis Basis, item catalog.CompositionItem, purchased map[string]float64) (float64, error) {
	if item.DependsOn != "" {
		base, ok := purchased[item.DependsOn]
		if !ok {
			return 0, fmt.Errorf("item %s depends on %s, which is not calculated before it: %w", item.ItemID, item.DependsOn, ErrCompositionInvalid)
		}
		return base * item.BaseConsumptionRate, nil
	}

	measure := item.Measure
	if measure == "" {
		measure = MeasureArea
	}
	if measure == catalog.MeasureFixed {
		return item.BaseConsumptionRate, nil
	}

	value, ok := basis.Measures[measure]
	if !ok {
		return 0, fmt.Errorf("item %s uses measure %q, which this category does not produce: %w", item.ItemID, measure, ErrCompositionInvalid)
	}
	return value * item.BaseConsumptionRate, nil
}

func checkItem(item catalog.CompositionItem) error {
	switch {
	case item.ItemID == "":
		return fmt.Errorf("item without id: %w", ErrCompositionInvalid)
	case item.BaseConsumptionRate < 0:
		return fmt.Errorf("item %s has a negative consumption rate: %w", item.ItemID, ErrCompositionInvalid)
	case item.WastePercent < 0:
		return fmt.Errorf("item %s has a negative waste percent: %w", item.ItemID, ErrCompositionInvalid)
	case item.UnitPrice.IsNegative():
		return fmt.Errorf("item %s has a negative unit price: %w", item.ItemID, ErrCompositionInvalid)
	}
	return nil
}

func indexOverrides(items []catalog.CompositionItem, overrides []Override) (map[string]float64, error) {
	if len(overrides) == 0 {
		return nil, nil
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ItemID] = true
	}

	fixed := make(map[string]float64, len(overrides))
	for i, o := range overrides {
		if o.ItemID == "" {
			return nil, invalid(fieldIndex("overrides", i, "item_id"), "is required")
		}
		if !(o.Quantity >= 0) {
			return nil, invalid(fieldIndex("overrides", i, "quantity"), "must be at least 0")
		}
		if !known[o.ItemID] {
			return nil, invalid(fieldIndex("overrides", i, "item_id"), "item %q is not part of the composition", o.ItemID)
		}
		if _, dup := fixed[o.ItemID]; dup {
			return nil, invalid(fieldIndex("overrides", i, "item_id"), "item %q is overridden twice", o.ItemID)
		}
		fixed[o.ItemID] = o.Quantity
	}
	return fixed, nil
}

// ApplyWaste adds the configured loss percentage to a net quantity.
func ApplyWaste(net, wastePercent float64) float64 {
	return net * (1 + wastePercent/100)
}

// RoundPurchasable turns a waste-adjusted quantity into what is ordered.
// Discrete units round up to whole units; continuous measures round up to
// centesimal precision.
func RoundPurchasable(q float64, rounding catalog.Rounding) float64 {
	if rounding == catalog.RoundingCeil {
		return ceilTolerant(q)
	}
	return ceilTolerant(q*100) / 100
}
