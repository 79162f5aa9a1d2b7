package quantity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/obra.works/internal/catalog"
)

// Parameters is the category-specific input of a calculation. Values are
// never modified by the calculator.
type Parameters interface {
	Category() catalog.Category
	// CompositionKey selects which composition of the category to use.
	CompositionKey() string
}

const (
	defaultStudSpacing   = 0.6
	defaultRoofLine      = "standard"
	defaultInstallation  = "roof"
	defaultPanelPowerW   = 550
	defaultSunHours      = 4.5
	defaultPerformance   = 0.8
	defaultPanelArea     = 2.58
	defaultBearingLength = 0.2
	defaultKey           = "default"
)

// Opening is a door or window cut out of a partition.
type Opening struct {
	Kind   string  `json:"kind" validate:"omitempty,oneof=door window"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	// Count defaults to 1 when omitted.
	Count int `json:"count" validate:"gte=0"`
}

func (o Opening) count() int {
	if o.Count == 0 {
		return 1
	}
	return o.Count
}

// PartitionParams describes a drywall partition wall.
type PartitionParams struct {
	Width              float64   `json:"width" validate:"gt=0"`
	Height             float64   `json:"height" validate:"gt=0"`
	WallType           string    `json:"wall_type" validate:"required"`
	StudSpacing        float64   `json:"stud_spacing" validate:"gte=0,lte=1.2"`
	AcousticInsulation bool      `json:"acoustic_insulation"`
	Openings           []Opening `json:"openings" validate:"dive"`
}

func (PartitionParams) Category() catalog.Category { return catalog.CategoryDrywallPartition }
func (p PartitionParams) CompositionKey() string  { return p.WallType }

// RoofParams describes a shingle roof. Linear elements are measured
// separately from the field area.
type RoofParams struct {
	RoofArea          float64 `json:"roof_area" validate:"gt=0"`
	Perimeter         float64 `json:"perimeter" validate:"gte=0"`
	RidgeLength       float64 `json:"ridge_length" validate:"gte=0"`
	HipValleyLength   float64 `json:"hip_valley_length" validate:"gte=0"`
	MasonryEdgeLength float64 `json:"masonry_edge_length" validate:"gte=0"`
	SlopePercent      float64 `json:"slope_percent" validate:"gt=0"`
	Line              string  `json:"line"`
}

func (RoofParams) Category() catalog.Category { return catalog.CategoryShingleRoof }

func (p RoofParams) CompositionKey() string {
	if p.Line == "" {
		return defaultRoofLine
	}
	return p.Line
}

// SolarParams describes a grid-tied photovoltaic system sized from the
// customer's consumption. Zero optional fields take market defaults.
type SolarParams struct {
	MonthlyConsumptionKWh float64 `json:"monthly_consumption_kwh" validate:"gt=0"`
	TariffPerKWh          float64 `json:"tariff_per_kwh" validate:"gte=0"`
	InstallationType      string  `json:"installation_type" validate:"omitempty,oneof=roof ground carport"`
	PanelPowerW           float64 `json:"panel_power_w" validate:"gte=0"`
	SunHours              float64 `json:"sun_hours" validate:"gte=0,lte=12"`
	PerformanceRatio      float64 `json:"performance_ratio" validate:"gte=0,lte=1"`
	PanelArea             float64 `json:"panel_area" validate:"gte=0"`
}

func (SolarParams) Category() catalog.Category { return catalog.CategorySolarSystem }

func (p SolarParams) CompositionKey() string {
	if p.InstallationType == "" {
		return defaultInstallation
	}
	return p.InstallationType
}

// FlooringParams describes a rectangular room floor.
type FlooringParams struct {
	Length       float64 `json:"length" validate:"gt=0"`
	Width        float64 `json:"width" validate:"gt=0"`
	FloorType    string  `json:"floor_type" validate:"required"`
	DoorwayWidth float64 `json:"doorway_width" validate:"gte=0"`
}

func (FlooringParams) Category() catalog.Category { return catalog.CategoryFlooring }
func (p FlooringParams) CompositionKey() string  { return p.FloorType }

// CeilingParams describes a rectangular suspended ceiling.
type CeilingParams struct {
	Length      float64 `json:"length" validate:"gt=0"`
	Width       float64 `json:"width" validate:"gt=0"`
	CeilingType string  `json:"ceiling_type" validate:"required"`
}

func (CeilingParams) Category() catalog.Category { return catalog.CategoryCeiling }
func (p CeilingParams) CompositionKey() string  { return p.CeilingType }

// LintelOpening is a span that needs a fiberglass lintel.
type LintelOpening struct {
	Width float64 `json:"width" validate:"gt=0"`
	Count int     `json:"count" validate:"gte=0"`
}

// LintelParams describes the openings of a masonry job.
type LintelParams struct {
	Openings []LintelOpening `json:"openings" validate:"min=1,dive"`
	// BearingLength is the support on each side of the span.
	BearingLength float64 `json:"bearing_length" validate:"gte=0,lte=1"`
}

func (LintelParams) Category() catalog.Category { return catalog.CategoryFiberglassLintel }
func (LintelParams) CompositionKey() string    { return defaultKey }

// RequireCompositionKey reports an empty composition key as an invalid
// parameter on the field that selects it.
func RequireCompositionKey(p Parameters) error {
	if p.CompositionKey() != "" {
		return nil
	}
	field := "composition_key"
	switch p.(type) {
	case PartitionParams:
		field = "wall_type"
	case FlooringParams:
		field = "floor_type"
	case CeilingParams:
		field = "ceiling_type"
	}
	return invalid(field, "is required")
}

// Decode parses the JSON parameters of a category. Unknown fields are
// rejected so a misspelled input never silently falls back to zero.
func Decode(category catalog.Category, raw []byte) (Parameters, error) {
	switch category {
	case catalog.CategoryDrywallPartition:
		return decodeInto(PartitionParams{}, raw)
	case catalog.CategoryShingleRoof:
		return decodeInto(RoofParams{}, raw)
	case catalog.CategorySolarSystem:
		return decodeInto(SolarParams{}, raw)
	case catalog.CategoryFlooring:
		return decodeInto(FlooringParams{}, raw)
	case catalog.CategoryCeiling:
		return decodeInto(CeilingParams{}, raw)
	case catalog.CategoryFiberglassLintel:
		return decodeInto(LintelParams{}, raw)
	default:
		return nil, invalid("category", "unsupported category %q", category)
	}
}

// Merge applies a partial JSON update on top of base. Only the fields named
// in patch change; unknown fields are rejected. A named list replaces the
// base list as a whole.
func Merge(base Parameters, patch []byte) (Parameters, error) {
	var named map[string]json.RawMessage
	if err := json.Unmarshal(patch, &named); err != nil {
		return nil, invalid("parameters", "%v", err)
	}
	_, replaceOpenings := named["openings"]

	// Decoding reuses a slice's backing array, so base lists are either
	// dropped or copied before the patch is applied.
	switch p := base.(type) {
	case PartitionParams:
		if replaceOpenings {
			p.Openings = nil
		} else {
			p.Openings = append([]Opening(nil), p.Openings...)
		}
		return decodeInto(p, patch)
	case RoofParams:
		return decodeInto(p, patch)
	case SolarParams:
		return decodeInto(p, patch)
	case FlooringParams:
		return decodeInto(p, patch)
	case CeilingParams:
		return decodeInto(p, patch)
	case LintelParams:
		if replaceOpenings {
			p.Openings = nil
		} else {
			p.Openings = append([]LintelOpening(nil), p.Openings...)
		}
		return decodeInto(p, patch)
	default:
		return nil, fmt.Errorf("merge parameters: unsupported type %T", base)
	}
}

func decodeInto[T Parameters](v T, raw []byte) (Parameters, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, invalid("parameters", "%v", err)
	}
	return v, nil
}
