package parse

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"reportaudit/internal/model"
)

// parseExcel reads the first sheet of an xlsx workbook. Monthly vendor
// exports put their data table on the first sheet; additional sheets are
// charts or legends and are ignored.
func parseExcel(path string) (*model.ParsedTable, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer func() { _ = workbook.Close() }()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	cells, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return tableFromCells(cells)
}
