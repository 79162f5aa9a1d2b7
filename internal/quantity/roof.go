package quantity

// MinShingleSlopePercent is the lowest pitch shingles can be installed on.
const MinShingleSlopePercent = 18.0

type roofFormula struct{}

func (f roofFormula) NetBasis(p Parameters) (Basis, error) {
	params, ok := p.(RoofParams)
	if !ok {
		return Basis{}, unexpectedParams(f, p)
	}
	if params.SlopePercent < MinShingleSlopePercent {
		return Basis{}, invalid("slope_percent", "%.1f%% is below the minimum installable pitch of %.0f%%", params.SlopePercent, MinShingleSlopePercent)
	}

	b := newBasis(params.RoofArea, MeasureArea)
	b.Measures[MeasureArea] = params.RoofArea
	b.Measures[MeasurePerimeter] = params.Perimeter
	b.Measures[MeasureRidge] = params.RidgeLength
	b.Measures[MeasureHipValley] = params.HipValleyLength
	b.Measures[MeasureMasonryEdge] = params.MasonryEdgeLength
	return b, nil
}
