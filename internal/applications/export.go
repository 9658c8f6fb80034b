package applications

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetApplications = "Applications"
	sheetSummary      = "Summary"
)

var exportColumns = []string{"COMPANY", "POSITION", "STATUS", "DATE APPLIED", "LAST UPDATED"}

// Export renders the user's applications as an XLSX workbook with an
// Applications sheet and a Summary sheet of per-status counts.
func (s *Service) Export(ctx context.Context, userID string) ([]byte, string, error) {
	apps, err := s.List(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	data, err := buildWorkbook(apps)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("applications_%s.xlsx", s.now().UTC().Format("20060102_150405"))
	return data, filename, nil
}

func buildWorkbook(apps []Application) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetApplications); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetApplications, cell, col)
	}
	endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	f.SetCellStyle(sheetApplications, "A1", endCell, headerStyle)

	for rowIdx, app := range apps {
		values := []any{app.Company, app.Position, app.Status, app.Date, app.UpdatedAt.UTC().Format("2006-01-02 15:04")}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetApplications, cell, v)
		}
	}
	for i := range exportColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetApplications, colName, colName, 22)
	}

	stats := computeStats(apps)
	f.SetCellValue(sheetSummary, "A1", "STATUS")
	f.SetCellValue(sheetSummary, "B1", "COUNT")
	f.SetCellStyle(sheetSummary, "A1", "B1", headerStyle)
	for i, sc := range stats.ByStatus {
		row := i + 2
		f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), sc.Status)
		f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), sc.Count)
	}
	totalRow := len(stats.ByStatus) + 2
	f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", totalRow), "Total")
	f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", totalRow), stats.Total)
	f.SetColWidth(sheetSummary, "A", "A", 24)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
