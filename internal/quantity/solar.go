package quantity

const daysPerMonth = 30.0

type solarFormula struct{}

// NetBasis sizes the array from consumption:
// kWp = monthly kWh / (30 · sun hours · performance ratio).
// Solar proposals are priced by system size, so Basis.Area stays zero.
func (f solarFormula) NetBasis(p Parameters) (Basis, error) {
	params, ok := p.(SolarParams)
	if !ok {
		return Basis{}, unexpectedParams(f, p)
	}

	panelW := orDefault(params.PanelPowerW, defaultPanelPowerW)
	sunHours := orDefault(params.SunHours, defaultSunHours)
	pr := orDefault(params.PerformanceRatio, defaultPerformance)
	panelArea := orDefault(params.PanelArea, defaultPanelArea)

	requiredKWp := params.MonthlyConsumptionKWh / (daysPerMonth * sunHours * pr)
	panels := ceilTolerant(requiredKWp * 1000 / panelW)
	installedKWp := panels * panelW / 1000
	generation := installedKWp * daysPerMonth * sunHours * pr

	b := newBasis(0, MeasureSystemKWp)
	b.Measures[MeasureSystemKWp] = installedKWp
	b.Measures[MeasurePanels] = panels
	b.Measures[MeasureArrayArea] = panels * panelArea
	b.Derived = map[string]float64{
		"required_kwp":                 requiredKWp,
		"estimated_monthly_generation": generation,
		"estimated_monthly_savings":    minFloat(generation, params.MonthlyConsumptionKWh) * params.TariffPerKWh,
	}
	return b, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
