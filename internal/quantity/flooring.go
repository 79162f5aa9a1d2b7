package quantity

import "math"

type flooringFormula struct{}

func (f flooringFormula) NetBasis(p Parameters) (Basis, error) {
	params, ok := p.(FlooringParams)
	if !ok {
		return Basis{}, unexpectedParams(f, p)
	}

	area := params.Length * params.Width
	b := newBasis(area, MeasureArea)
	b.Measures[MeasureArea] = area
	b.Measures[MeasurePerimeter] = 2 * (params.Length + params.Width)
	b.Measures[MeasureBaseboard] = math.Max(0, 2*(params.Length+params.Width)-params.DoorwayWidth)
	return b, nil
}
