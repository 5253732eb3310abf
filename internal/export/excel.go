package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the farmer rows are written to.
const SheetName = "Farmers"

// Excel encodes the rows as an XLSX workbook with a single Farmers sheet.
func Excel(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	writeRow := func(rowIndex int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIndex)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(SheetName, cell, &cells)
	}

	if err := writeRow(1, Headers()); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(i+2, row.cells()); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
