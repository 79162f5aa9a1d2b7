package quantity

type lintelFormula struct{}

// NetBasis adds the bearing on both sides of every span. Lintels are sold by
// length, so there is no area basis.
func (f lintelFormula) NetBasis(p Parameters) (Basis, error) {
	params, ok := p.(LintelParams)
	if !ok {
		return Basis{}, unexpectedParams(f, p)
	}

	bearing := orDefault(params.BearingLength, defaultBearingLength)

	var length, pieces float64
	for _, o := range params.Openings {
		n := float64(o.Count)
		if o.Count == 0 {
			n = 1
		}
		length += (o.Width + 2*bearing) * n
		pieces += n
	}

	b := newBasis(0, MeasureLength)
	b.Measures[MeasureLength] = length
	b.Measures[MeasurePieces] = pieces
	return b, nil
}
