package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Category identifies which formula set and composition a calculation uses.
type Category string

const (
	CategoryDrywallPartition Category = "drywall-partition"
	CategoryShingleRoof      Category = "shingle-roof"
	CategorySolarSystem      Category = "solar-system"
	CategoryFlooring         Category = "flooring"
	CategoryCeiling          Category = "ceiling"
	CategoryFiberglassLintel Category = "fiberglass-lintel"
)

// Categories lists every supported category in display order.
var Categories = []Category{
	CategoryDrywallPartition,
	CategoryShingleRoof,
	CategorySolarSystem,
	CategoryFlooring,
	CategoryCeiling,
	CategoryFiberglassLintel,
}

// ParseCategory validates a raw category tag.
func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Role is the structural role of an item; subtotals are grouped by it.
type Role string

const (
	RoleBoard      Role = "board"
	RoleProfile    Role = "profile"
	RoleInsulation Role = "insulation"
	RoleAccessory  Role = "accessory"
	RoleFinish     Role = "finish"
	RoleEquipment  Role = "equipment"
)

// Roles lists every role in breakdown order.
var Roles = []Role{RoleBoard, RoleProfile, RoleInsulation, RoleAccessory, RoleFinish, RoleEquipment}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Rounding is the purchasable rounding policy of an item.
type Rounding string

const (
	// RoundingAuto derives the policy from the unit of measure.
	RoundingAuto Rounding = ""
	// RoundingCeil rounds up to whole sellable units.
	RoundingCeil Rounding = "ceil"
	// RoundingContinuous rounds up to pricing precision (0.01).
	RoundingContinuous Rounding = "continuous"
)

var discreteUnits = map[string]bool{
	"un":  true,
	"pc":  true,
	"cx":  true,
	"pct": true,
	"rl":  true,
	"br":  true,
	"sc":  true,
}

// Measure names a basis quantity produced by a category formula.
type Measure string

// MeasureFixed marks items whose consumption rate is an absolute count.
const MeasureFixed Measure = "fixed"

// CompositionItem is one catalog entry of a composition.
type CompositionItem struct {
	ItemID              string          `json:"item_id"`
	Description         string          `json:"description"`
	Role                Role            `json:"role"`
	Unit                string          `json:"unit"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	BaseConsumptionRate float64         `json:"base_consumption_rate"`
	WastePercent        float64         `json:"waste_percent"`
	CalculationOrder    int             `json:"calculation_order"`
	Measure             Measure         `json:"measure,omitempty"`
	DependsOn           string          `json:"depends_on,omitempty"`
	Rounding            Rounding        `json:"rounding,omitempty"`
	UnitMass            float64         `json:"unit_mass,omitempty"`
}

// EffectiveRounding resolves RoundingAuto against the unit of measure.
func (i CompositionItem) EffectiveRounding() Rounding {
	if i.Rounding != RoundingAuto {
		return i.Rounding
	}
	if discreteUnits[i.Unit] {
		return RoundingCeil
	}
	return RoundingContinuous
}

// Request selects a composition.
type Request struct {
	Category Category
	Key      string
}

func (r Request) String() string {
	return fmt.Sprintf("%s/%s", r.Category, r.Key)
}

// Lookup is the catalog boundary consumed by the engine.
//
// Composition returns the whole composition in one response so that a
// calculation never mixes two catalog states. It returns an error wrapping
// ErrCompositionNotFound when nothing is configured and a *ServiceError when
// the catalog could not be reached.
type Lookup interface {
	Composition(ctx context.Context, req Request) ([]CompositionItem, error)
	Configured(ctx context.Context, category Category, key string) (bool, error)
}

// Snapshot returns a copy of items sorted by calculation order. Ties keep
// item id order so equal inputs always produce the same sequence.
func Snapshot(items []CompositionItem) []CompositionItem {
	out := make([]CompositionItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CalculationOrder != out[j].CalculationOrder {
			return out[i].CalculationOrder < out[j].CalculationOrder
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}
