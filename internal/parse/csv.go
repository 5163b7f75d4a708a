package parse

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"reportaudit/internal/model"
)

// parseCSV reads a CSV file, sniffing the delimiter from the header line.
// Vendor exports in this domain use either comma or semicolon.
func parseCSV(path string) (*model.ParsedTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := strings.TrimPrefix(string(data), "\uFEFF")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("file is empty")
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed csv: %w", err)
	}

	return tableFromCells(records)
}

// sniffDelimiter picks semicolon over comma when the header line contains
// more of them.
func sniffDelimiter(text string) rune {
	header := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		header = text[:idx]
	}
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}
