package quantity

import (
	"math"

	"github.com/Simplici0/obra.works/internal/catalog"
)

type partitionFormula struct{}

// NetBasis subtracts the openings from the wall area (never below zero) and
// lays out studs at the requested spacing plus two jamb studs per opening.
func (f partitionFormula) NetBasis(p Parameters) (Basis, error) {
	params, ok := p.(PartitionParams)
	if !ok {
		return Basis{}, unexpectedParams(f, p)
	}

	spacing := params.StudSpacing
	if spacing == 0 {
		spacing = defaultStudSpacing
	}

	var openingArea, openingPerimeter float64
	var doors, windows int
	for _, o := range params.Openings {
		n := float64(o.count())
		openingArea += o.Width * o.Height * n
		openingPerimeter += 2 * (o.Width + o.Height) * n
		if o.Kind == "window" {
			windows += o.count()
		} else {
			doors += o.count()
		}
	}

	area := NetWallArea(params.Width, params.Height, openingArea)
	studs := ceilTolerant(params.Width/spacing) + 1 + float64(2*(doors+windows))

	b := newBasis(area, MeasureArea)
	b.Measures[MeasureArea] = area
	b.Measures[MeasureWallLength] = params.Width
	b.Measures[MeasureStudCount] = studs
	b.Measures[MeasureStudLength] = studs * params.Height
	b.Measures[MeasureDoors] = float64(doors)
	b.Measures[MeasureWindows] = float64(windows)
	b.Measures[MeasureOpeningPerimeter] = openingPerimeter
	if !params.AcousticInsulation {
		b.SkipRoles = map[catalog.Role]bool{catalog.RoleInsulation: true}
	}
	return b, nil
}

// NetWallArea is width·height minus the openings, clamped at zero.
func NetWallArea(width, height, openingArea float64) float64 {
	return math.Max(0, width*height-openingArea)
}
