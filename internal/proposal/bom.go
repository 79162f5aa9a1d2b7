package proposal

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/obra.works/internal/pricing"
)

const bomSheet = "BOM"

// ExportBOM renders the bill of materials of p as an .xlsx workbook. Unit
// prices are left blank when the proposal hides them.
func ExportBOM(p Proposal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), bomSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	widths := []float64{6, 40, 12, 8, 12, 14, 14, 14, 16}
	lastCol := columns[len(columns)-1]
	for i, col := range columns {
		if err := f.SetColWidth(bomSheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	itemStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()})
	if err != nil {
		return nil, fmt.Errorf("create item style: %w", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create label style: %w", err)
	}

	title := p.Title
	if title == "" {
		title = string(p.Category)
	}
	if err := f.MergeCell(bomSheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(bomSheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(bomSheet, "A1", lastCol+"1", titleStyle)
	f.SetCellValue(bomSheet, "A2", fmt.Sprintf("%s / %s - %s", p.Category, p.Key, p.CreatedAt.Format("2006-01-02")))

	headers := []string{"#", "Description", "Role", "Unit", "Net qty", "Qty with waste", "Purchasable", "Unit price", "Line total"}
	for i, h := range headers {
		f.SetCellValue(bomSheet, columns[i]+"4", h)
	}
	f.SetCellStyle(bomSheet, "A4", lastCol+"4", headerStyle)

	row := 5
	for i, item := range p.Items {
		r := fmt.Sprint(row)
		desc := item.Description
		if desc == "" {
			desc = item.ItemID
		}
		f.SetCellValue(bomSheet, "A"+r, i+1)
		f.SetCellValue(bomSheet, "B"+r, sanitizeExcelCell(desc))
		f.SetCellValue(bomSheet, "C"+r, string(item.Role))
		f.SetCellValue(bomSheet, "D"+r, sanitizeExcelCell(item.Unit))
		f.SetCellValue(bomSheet, "E"+r, item.NetQuantity)
		f.SetCellValue(bomSheet, "F"+r, item.QuantityWithWaste)
		f.SetCellValue(bomSheet, "G"+r, item.PurchasableQuantity)
		if !p.Summary.HideUnitPrices {
			f.SetCellValue(bomSheet, "H"+r, item.UnitPrice.InexactFloat64())
		}
		f.SetCellValue(bomSheet, "I"+r, item.LineTotal.InexactFloat64())
		f.SetCellStyle(bomSheet, "A"+r, lastCol+r, itemStyle)
		row++
	}

	row++
	writeTotal := func(label string, value any) {
		r := fmt.Sprint(row)
		f.SetCellValue(bomSheet, "H"+r, label)
		f.SetCellStyle(bomSheet, "H"+r, "H"+r, labelStyle)
		f.SetCellValue(bomSheet, "I"+r, value)
		row++
	}

	for _, sub := range p.Summary.Breakdown() {
		writeTotal(string(sub.Role)+":", sub.Total.InexactFloat64())
	}
	writeTotal("Materials:", p.Summary.MaterialsTotal.InexactFloat64())
	writeTotal("Freight:", p.Summary.Freight.InexactFloat64())
	writeTotal("Grand total:", p.Summary.GrandTotal.InexactFloat64())
	writeTotal("Per m²:", perAreaCell(p.Summary))
	if p.Summary.TotalMass != nil {
		writeTotal("Mass (kg):", *p.Summary.TotalMass)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func perAreaCell(s pricing.Summary) any {
	if s.PricePerUnitArea == nil {
		return "N/A"
	}
	return s.PricePerUnitArea.InexactFloat64()
}

// sanitizeExcelCell prefixes characters Excel would read as the start of a
// formula.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
