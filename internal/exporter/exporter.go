// Package exporter writes filtered contract sets to CSV, JSON, or Excel.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"samscope/internal/models"
)

// Format selects the export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "xlsx"
)

// ParseFormat returns the Format for name, or an error for unknown names.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCSV, FormatJSON, FormatExcel:
		return Format(name), nil
	case "excel":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// Export writes contracts to w in the given format. Exports carry the full
// original rows, so columns that were imported but never column-mapped are
// included.
func Export(w io.Writer, format Format, contracts []*models.Contract) error {
	switch format {
	case FormatCSV:
		return exportCSV(w, contracts)
	case FormatJSON:
		return exportJSON(w, contracts)
	case FormatExcel:
		return exportExcel(w, contracts)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// exportHeaders returns the canonical headers plus any extra columns found
// in the original rows, extras sorted for a stable layout.
func exportHeaders(contracts []*models.Contract) []string {
	known := make(map[string]bool, len(models.CSVHeaders))
	for _, h := range models.CSVHeaders {
		known[h] = true
	}
	extraSet := map[string]bool{}
	for _, c := range contracts {
		for k := range c.ToRaw() {
			if !known[k] {
				extraSet[k] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	return append(append([]string{}, models.CSVHeaders...), extras...)
}

func contractRow(c *models.Contract, headers []string) []string {
	raw := c.ToRaw()
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = raw[h]
	}
	return row
}

func exportCSV(w io.Writer, contracts []*models.Contract) error {
	headers := exportHeaders(contracts)
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range contracts {
		if err := cw.Write(contractRow(c, headers)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportJSON(w io.Writer, contracts []*models.Contract) error {
	rows := make([]map[string]string, len(contracts))
	for i, c := range contracts {
		rows[i] = c.ToRaw()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func exportExcel(w io.Writer, contracts []*models.Contract) error {
	headers := exportHeaders(contracts)
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write sheet header: %w", err)
	}
	for i, c := range contracts {
		values := contractRow(c, headers)
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write sheet row: %w", err)
		}
	}
	return f.Write(w)
}
