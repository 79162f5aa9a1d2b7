package seed

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/quantity"
)

// Composition is a default composition installed by the seed.
type Composition struct {
	Category catalog.Category
	Key      string
	Items    []catalog.CompositionItem
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Compositions returns the default catalog. Carport solar installations are
// left unconfigured on purpose so the product line can be set up by hand.
func Compositions() []Composition {
	return []Composition{
		{catalog.CategoryDrywallPartition, "st-73", partitionItems(catalog.CompositionItem{
			ItemID: "board-st-12.5", Description: "Chapa drywall ST 12,5 mm 1,20 x 2,40 m", Unit: "un",
			UnitPrice: price("45.90"), UnitMass: 23,
		})},
		{catalog.CategoryDrywallPartition, "ru-73", partitionItems(catalog.CompositionItem{
			ItemID: "board-ru-12.5", Description: "Chapa drywall RU 12,5 mm 1,20 x 2,40 m", Unit: "un",
			UnitPrice: price("59.90"), UnitMass: 24,
		})},
		{catalog.CategoryShingleRoof, "standard", []catalog.CompositionItem{
			{ItemID: "shingle-bundle", Description: "Telha shingle (pacote 3,1 m²)", Role: catalog.RoleBoard, Unit: "pct", UnitPrice: price("189.90"), BaseConsumptionRate: 1 / 3.1, WastePercent: 10, CalculationOrder: 1, UnitMass: 31},
			{ItemID: "osb-11", Description: "Placa OSB 11,1 mm 1,22 x 2,44 m", Role: catalog.RoleBoard, Unit: "un", UnitPrice: price("79.90"), BaseConsumptionRate: 1 / 2.9768, WastePercent: 5, CalculationOrder: 2, UnitMass: 19.5},
			{ItemID: "underlayment", Description: "Manta subcobertura (rolo 86 m²)", Role: catalog.RoleInsulation, Unit: "rl", UnitPrice: price("310.00"), BaseConsumptionRate: 1.0 / 86, WastePercent: 10, CalculationOrder: 3},
			{ItemID: "roofing-nail", Description: "Prego para shingle (kg)", Role: catalog.RoleAccessory, Unit: "kg", UnitPrice: price("22.00"), BaseConsumptionRate: 0.25, WastePercent: 5, CalculationOrder: 4, DependsOn: "shingle-bundle"},
			{ItemID: "ridge-cap", Description: "Cumeeira shingle", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("6.50"), BaseConsumptionRate: 3, WastePercent: 5, CalculationOrder: 5, Measure: quantity.MeasureRidge},
			{ItemID: "valley-membrane", Description: "Manta para águas furtadas e espigões", Role: catalog.RoleAccessory, Unit: "m", UnitPrice: price("42.00"), BaseConsumptionRate: 1, WastePercent: 10, CalculationOrder: 6, Measure: quantity.MeasureHipValley},
			{ItemID: "step-flashing", Description: "Rufo de encontro com alvenaria", Role: catalog.RoleFinish, Unit: "m", UnitPrice: price("27.50"), BaseConsumptionRate: 1, WastePercent: 10, CalculationOrder: 7, Measure: quantity.MeasureMasonryEdge},
			{ItemID: "drip-edge", Description: "Pingadeira de beiral", Role: catalog.RoleFinish, Unit: "m", UnitPrice: price("19.90"), BaseConsumptionRate: 1, WastePercent: 5, CalculationOrder: 8, Measure: quantity.MeasurePerimeter},
		}},
		{catalog.CategorySolarSystem, "roof", solarItems("rail-kit-roof", "Kit estrutura para telhado (por módulo)", "165.00")},
		{catalog.CategorySolarSystem, "ground", solarItems("rail-kit-ground", "Kit estrutura de solo (por módulo)", "240.00")},
		{catalog.CategoryFlooring, "laminate", []catalog.CompositionItem{
			{ItemID: "laminate-box", Description: "Piso laminado (caixa 2,2 m²)", Role: catalog.RoleFinish, Unit: "cx", UnitPrice: price("129.90"), BaseConsumptionRate: 1 / 2.2, WastePercent: 10, CalculationOrder: 1, UnitMass: 17},
			{ItemID: "foam-underlay", Description: "Manta de polietileno 2 mm", Role: catalog.RoleInsulation, Unit: "m2", UnitPrice: price("6.90"), BaseConsumptionRate: 1, WastePercent: 5, CalculationOrder: 2},
			{ItemID: "baseboard", Description: "Rodapé MDF 7 cm (barra 2,4 m)", Role: catalog.RoleFinish, Unit: "br", UnitPrice: price("39.90"), BaseConsumptionRate: 1 / 2.4, WastePercent: 10, CalculationOrder: 3, Measure: quantity.MeasureBaseboard},
			{ItemID: "baseboard-clip", Description: "Presilha de rodapé", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("0.60"), BaseConsumptionRate: 4, CalculationOrder: 4, DependsOn: "baseboard"},
		}},
		{catalog.CategoryCeiling, "gypsum", []catalog.CompositionItem{
			{ItemID: "ceiling-board", Description: "Chapa drywall ST 12,5 mm 1,20 x 1,80 m", Role: catalog.RoleBoard, Unit: "un", UnitPrice: price("39.90"), BaseConsumptionRate: 1 / 2.16, WastePercent: 10, CalculationOrder: 1, UnitMass: 17.3},
			{ItemID: "f530", Description: "Perfil F530 (barra 3 m)", Role: catalog.RoleProfile, Unit: "br", UnitPrice: price("17.90"), BaseConsumptionRate: 2.2 / 3, WastePercent: 5, CalculationOrder: 2},
			{ItemID: "perimeter-angle", Description: "Cantoneira de perímetro (barra 3 m)", Role: catalog.RoleProfile, Unit: "br", UnitPrice: price("12.90"), BaseConsumptionRate: 1.0 / 3, WastePercent: 5, CalculationOrder: 3, Measure: quantity.MeasurePerimeter},
			{ItemID: "hanger", Description: "Regulador com pendural", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("2.40"), BaseConsumptionRate: 1.4, WastePercent: 5, CalculationOrder: 4},
			{ItemID: "ceiling-screw", Description: "Parafuso 3,5 x 25 mm", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("0.08"), BaseConsumptionRate: 25, WastePercent: 5, CalculationOrder: 5, DependsOn: "ceiling-board"},
			{ItemID: "ceiling-compound", Description: "Massa para juntas (kg)", Role: catalog.RoleFinish, Unit: "kg", UnitPrice: price("3.20"), BaseConsumptionRate: 0.5, WastePercent: 5, CalculationOrder: 6},
		}},
		{catalog.CategoryFiberglassLintel, "default", []catalog.CompositionItem{
			{ItemID: "fiberglass-lintel", Description: "Verga de fibra de vidro (m)", Role: catalog.RoleProfile, Unit: "m", UnitPrice: price("68.00"), BaseConsumptionRate: 1, WastePercent: 5, CalculationOrder: 1, Measure: quantity.MeasureLength, UnitMass: 2.1},
			{ItemID: "lintel-anchor", Description: "Chumbador para verga", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("4.50"), BaseConsumptionRate: 2, CalculationOrder: 2, Measure: quantity.MeasurePieces},
			{ItemID: "structural-adhesive", Description: "Adesivo estrutural (bisnaga)", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("32.00"), BaseConsumptionRate: 0.3, CalculationOrder: 3, Measure: quantity.MeasurePieces},
		}},
	}
}

func partitionItems(board catalog.CompositionItem) []catalog.CompositionItem {
	board.Role = catalog.RoleBoard
	board.BaseConsumptionRate = 2 / 2.88
	board.WastePercent = 10
	board.CalculationOrder = 1
	board.Measure = quantity.MeasureArea

	return []catalog.CompositionItem{
		board,
		{ItemID: "stud-70", Description: "Montante 70 mm (barra 3 m)", Role: catalog.RoleProfile, Unit: "br", UnitPrice: price("28.50"), BaseConsumptionRate: 1.0 / 3, WastePercent: 5, CalculationOrder: 2, Measure: quantity.MeasureStudLength, UnitMass: 1.9},
		{ItemID: "track-70", Description: "Guia 70 mm (barra 3 m)", Role: catalog.RoleProfile, Unit: "br", UnitPrice: price("22.90"), BaseConsumptionRate: 2.0 / 3, WastePercent: 5, CalculationOrder: 3, Measure: quantity.MeasureWallLength, UnitMass: 1.6},
		{ItemID: "mineral-wool", Description: "Lã mineral 50 mm", Role: catalog.RoleInsulation, Unit: "m2", UnitPrice: price("18.90"), BaseConsumptionRate: 1, WastePercent: 5, CalculationOrder: 4},
		{ItemID: "board-screw", Description: "Parafuso 3,5 x 25 mm", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("0.08"), BaseConsumptionRate: 30, WastePercent: 5, CalculationOrder: 5, DependsOn: board.ItemID},
		{ItemID: "frame-screw", Description: "Parafuso metal-metal 4,2 x 13 mm", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("0.09"), BaseConsumptionRate: 4, WastePercent: 5, CalculationOrder: 6, Measure: quantity.MeasureStudCount},
		{ItemID: "anchor", Description: "Bucha com parafuso para guia", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("0.45"), BaseConsumptionRate: 2 / 0.6, WastePercent: 5, CalculationOrder: 7, Measure: quantity.MeasureWallLength},
		{ItemID: "door-reinforcement", Description: "Reforço de madeira para batente", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("28.50"), BaseConsumptionRate: 2, CalculationOrder: 8, Measure: quantity.MeasureDoors},
		{ItemID: "joint-tape", Description: "Fita de papel microperfurada", Role: catalog.RoleFinish, Unit: "m", UnitPrice: price("0.35"), BaseConsumptionRate: 3, WastePercent: 5, CalculationOrder: 9},
		{ItemID: "joint-compound", Description: "Massa para juntas (kg)", Role: catalog.RoleFinish, Unit: "kg", UnitPrice: price("3.20"), BaseConsumptionRate: 1, WastePercent: 5, CalculationOrder: 10},
	}
}

func solarItems(kitID, kitDescription, kitPrice string) []catalog.CompositionItem {
	return []catalog.CompositionItem{
		{ItemID: "module-550", Description: "Módulo fotovoltaico 550 W", Role: catalog.RoleEquipment, Unit: "un", UnitPrice: price("890.00"), BaseConsumptionRate: 1, CalculationOrder: 1, Measure: quantity.MeasurePanels, UnitMass: 27.5},
		{ItemID: "inverter", Description: "Inversor on-grid", Role: catalog.RoleEquipment, Unit: "un", UnitPrice: price("4200.00"), BaseConsumptionRate: 1, CalculationOrder: 2, Measure: catalog.MeasureFixed, UnitMass: 18},
		{ItemID: kitID, Description: kitDescription, Role: catalog.RoleProfile, Unit: "un", UnitPrice: price(kitPrice), BaseConsumptionRate: 1, CalculationOrder: 3, DependsOn: "module-550"},
		{ItemID: "solar-cable", Description: "Cabo solar 6 mm²", Role: catalog.RoleAccessory, Unit: "m", UnitPrice: price("8.90"), BaseConsumptionRate: 4, WastePercent: 10, CalculationOrder: 4, Measure: quantity.MeasurePanels},
		{ItemID: "mc4-pair", Description: "Par de conectores MC4", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("18.00"), BaseConsumptionRate: 1, CalculationOrder: 5, DependsOn: "module-550"},
		{ItemID: "string-box", Description: "String box CC", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: price("650.00"), BaseConsumptionRate: 1, CalculationOrder: 6, Measure: catalog.MeasureFixed},
	}
}

// Static returns an in-memory catalog holding the default compositions.
func Static() *catalog.Static {
	s := catalog.NewStatic()
	for _, c := range Compositions() {
		s.Set(c.Category, c.Key, c.Items...)
	}
	return s
}
