package quantity

import (
	"fmt"
	"math"

	"github.com/Simplici0/obra.works/internal/catalog"
)

// Measures produced by the category formulas. Composition items name one of
// them (or catalog.MeasureFixed) as the quantity that drives consumption.
const (
	MeasureArea             catalog.Measure = "area"
	MeasureWallLength       catalog.Measure = "wall_length"
	MeasureStudCount        catalog.Measure = "stud_count"
	MeasureStudLength       catalog.Measure = "stud_length"
	MeasureDoors            catalog.Measure = "doors"
	MeasureWindows          catalog.Measure = "windows"
	MeasureOpeningPerimeter catalog.Measure = "opening_perimeter"
	MeasurePerimeter        catalog.Measure = "perimeter"
	MeasureRidge            catalog.Measure = "ridge"
	MeasureHipValley        catalog.Measure = "hip_valley"
	MeasureMasonryEdge      catalog.Measure = "masonry_edge"
	MeasureSystemKWp        catalog.Measure = "system_kwp"
	MeasurePanels           catalog.Measure = "panels"
	MeasureArrayArea        catalog.Measure = "array_area"
	MeasureBaseboard        catalog.Measure = "baseboard"
	MeasureLength           catalog.Measure = "length"
	MeasurePieces           catalog.Measure = "pieces"
)

const epsilon = 1e-9

// Basis holds the net quantities derived from the parameters before catalog
// rates and waste are applied.
type Basis struct {
	// Area is the net area used for price per m². Zero when the category is
	// not priced by area.
	Area float64 `json:"area"`
	// Primary names the measure reported as the proposal's total basis.
	Primary  catalog.Measure             `json:"primary"`
	Measures map[catalog.Measure]float64 `json:"measures"`
	// Derived holds informational figures such as estimated savings.
	Derived map[string]float64 `json:"derived,omitempty"`
	// SkipRoles lists roles that do not apply to this proposal.
	SkipRoles map[catalog.Role]bool `json:"skip_roles,omitempty"`
}

// Total is the value of the primary measure.
func (b Basis) Total() float64 {
	return b.Measures[b.Primary]
}

// Formula derives the net basis of one category.
type Formula interface {
	NetBasis(p Parameters) (Basis, error)
}

var formulas = map[catalog.Category]Formula{
	catalog.CategoryDrywallPartition: partitionFormula{},
	catalog.CategoryShingleRoof:      roofFormula{},
	catalog.CategorySolarSystem:      solarFormula{},
	catalog.CategoryFlooring:         flooringFormula{},
	catalog.CategoryCeiling:          ceilingFormula{},
	catalog.CategoryFiberglassLintel: lintelFormula{},
}

// FormulaFor returns the formula registered for a category.
func FormulaFor(category catalog.Category) (Formula, error) {
	f, ok := formulas[category]
	if !ok {
		return nil, invalid("category", "no formula for category %q", category)
	}
	return f, nil
}

// NetBasis validates p and derives its basis with the category formula.
func NetBasis(p Parameters) (Basis, error) {
	if p == nil {
		return Basis{}, invalid("parameters", "are required")
	}
	f, err := FormulaFor(p.Category())
	if err != nil {
		return Basis{}, err
	}
	if err := validateStruct(p); err != nil {
		return Basis{}, err
	}
	return f.NetBasis(p)
}

func unexpectedParams(f Formula, p Parameters) error {
	return fmt.Errorf("%T: unexpected parameters %T", f, p)
}

// ceilTolerant rounds up, treating values within epsilon of an integer as
// that integer.
func ceilTolerant(x float64) float64 {
	if r := math.Round(x); math.Abs(x-r) < epsilon {
		return r
	}
	return math.Ceil(x)
}

func newBasis(area float64, primary catalog.Measure) Basis {
	return Basis{
		Area:     area,
		Primary:  primary,
		Measures: make(map[catalog.Measure]float64),
	}
}
