package quantity

type ceilingFormula struct{}

func (f ceilingFormula) NetBasis(p Parameters) (Basis, error) {
	params, ok := p.(CeilingParams)
	if !ok {
		return Basis{}, unexpectedParams(f, p)
	}

	area := params.Length * params.Width
	b := newBasis(area, MeasureArea)
	b.Measures[MeasureArea] = area
	b.Measures[MeasurePerimeter] = 2 * (params.Length + params.Width)
	return b, nil
}
