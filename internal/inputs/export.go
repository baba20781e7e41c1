package inputs

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Daily inputs"

var exportHeadings = []string{"Date", "POS revenue", "Wolt revenue", "Labor cost", "Grocery cost", "Updated at"}

// WriteWorkbook renders every stored row as an xlsx workbook.
func (s *Service) WriteWorkbook(ctx context.Context, w io.Writer) error {
	rows, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("inputs: export: %w", err)
	}
	for i, h := range exportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("inputs: export: %w", err)
		}
	}
	for i, row := range rows {
		values := []interface{}{row.Date, row.TotalRevenue, row.WoltRevenue, row.LaborCost, row.BCGroceryCost, row.UpdatedAt.UTC().Format("2006-01-02 15:04:05")}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("inputs: export row %s: %w", row.Date, err)
		}
	}
	return f.Write(w)
}
