// Package parse turns report files on disk into tables of named text
// columns. One dispatcher fans out on file extension to per-format readers;
// every failure surfaces as a common.ParseError carrying the path and
// format, so callers can mark the file unanalyzable without guessing why.
package parse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reportaudit/internal/common"
	"reportaudit/internal/model"
)

// Dispatcher routes files to format-specific readers by extension.
type Dispatcher struct{}

// NewDispatcher creates the standard file parser.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Parse reads the file into a table. Unsupported formats, including PDF,
// return a ParseError rather than a silent skip.
func (d *Dispatcher) Parse(ctx context.Context, path string) (*model.ParsedTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := formatOf(path)
	var (
		table *model.ParsedTable
		err   error
	)

	switch format {
	case "csv":
		table, err = parseCSV(path)
	case "xlsx":
		table, err = parseExcel(path)
	case "html":
		table, err = parseHTML(path)
	case "pdf":
		return nil, common.NewParseError(path, format, fmt.Errorf("pdf extraction is not supported"))
	default:
		return nil, common.NewParseError(path, format, fmt.Errorf("unsupported file format %q", filepath.Ext(path)))
	}
	if err != nil {
		return nil, common.NewParseError(path, format, err)
	}

	meta, err := d.Metadata(path)
	if err != nil {
		return nil, err
	}
	table.Metadata = meta
	return table, nil
}

// ExtractText renders the file as plain text for the content and classifier
// detection stages, capped at maxChars.
func (d *Dispatcher) ExtractText(ctx context.Context, path string, maxChars int) (string, error) {
	format := formatOf(path)
	if format == "html" {
		text, err := extractHTMLText(path)
		if err != nil {
			return "", common.NewParseError(path, format, err)
		}
		return capText(text, maxChars), nil
	}

	table, err := d.Parse(ctx, path)
	if err != nil {
		return "", err
	}
	return capText(flattenTable(table), maxChars), nil
}

// Metadata stats the file without parsing it.
func (d *Dispatcher) Metadata(path string) (model.TableMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.TableMetadata{}, common.NewParseError(path, formatOf(path), err)
	}
	return model.TableMetadata{
		SourcePath: path,
		Format:     formatOf(path),
		SizeBytes:  info.Size(),
	}, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".html", ".htm":
		return "html"
	case ".pdf":
		return "pdf"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

// flattenTable renders header plus rows, one line per row, for text-level
// keyword matching.
func flattenTable(table *model.ParsedTable) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(table.Columns, " | "))
	sb.WriteString("\n")
	for _, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = row[col]
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func capText(text string, maxChars int) string {
	if maxChars > 0 && len(text) > maxChars {
		return text[:maxChars]
	}
	return text
}

// tableFromCells converts a header row plus data rows into the row-map
// shape analyzers consume. Short rows pad with empty strings; duplicate or
// empty header cells get positional suffixes so no column is lost.
func tableFromCells(cells [][]string) (*model.ParsedTable, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("file contains no rows")
	}

	header := cells[0]
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		for seen[name] {
			name = fmt.Sprintf("%s_%d", name, i+1)
		}
		seen[name] = true
		columns[i] = name
	}

	rows := make([]model.Row, 0, len(cells)-1)
	for _, record := range cells[1:] {
		row := make(model.Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return &model.ParsedTable{Columns: columns, Rows: rows}, nil
}
