package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// FinalReportRow is one student's aggregated approved hours.
type FinalReportRow struct {
	NUA      string
	FullName string
	Career   string
	Sede     string
	DP       int
	RS       int
	CEE      int
	FCI      int
	AC       int
	Total    int
}

// RenderFinalReportXLSX builds the end-of-period workbook: one row per
// student with approved hours broken down by area.
func RenderFinalReportXLSX(periodName string, rows []FinalReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Reporte Final"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("Reporte final de horas - %s", periodName)); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	if err != nil {
		return nil, fmt.Errorf("build title style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return nil, fmt.Errorf("style title: %w", err)
	}

	headers := []string{"NUA", "Nombre", "Carrera", "Sede", "DP", "RS", "CEE", "FCI", "AC", "Total"}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, fmt.Errorf("build header style: %w", err)
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, fmt.Errorf("resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{row.NUA, row.FullName, row.Career, row.Sede, row.DP, row.RS, row.CEE, row.FCI, row.AC, row.Total}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+4)
			if err != nil {
				return nil, fmt.Errorf("resolve data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "C", 45); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "D", "D", 14); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
