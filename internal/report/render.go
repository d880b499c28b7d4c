package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// artifactName builds a collision-free file name from the report type.
func artifactName(reportType, ext string) string {
	return fmt.Sprintf("%s_report_%s.%s", reportType, uuid.NewString()[:8], ext)
}

func isDateColumn(name string) bool {
	lowered := strings.ToLower(name)
	return strings.Contains(lowered, "date") || strings.HasSuffix(lowered, "_at")
}

func capitalize(s string) string {
	if s == "" {
		return "Report"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// WriteXLSX renders rows into a styled spreadsheet under dir and returns
// the file path. Columns keep select order, get sized to their content,
// and date-like columns carry a yyyy-mm-dd number format.
func WriteXLSX(columns []string, rows []map[string]any, reportType, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := capitalize(reportType)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}

	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return "", err
	}

	for ci, col := range columns {
		cell, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return "", err
		}

		width := len(col)
		for ri, row := range rows {
			text := cellText(row[col])
			if len(text) > width {
				width = len(text)
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, text); err != nil {
				return "", err
			}
		}

		colName, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return "", err
		}
		if err := f.SetColWidth(sheet, colName, colName, float64(width+2)); err != nil {
			return "", err
		}
		if isDateColumn(col) {
			if err := f.SetColStyle(sheet, colName, dateStyle); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(dir, artifactName(reportType, "xlsx"))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV renders rows as a plain CSV counterpart of the spreadsheet.
func WriteCSV(columns []string, rows []map[string]any, reportType, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, artifactName(reportType, "csv"))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cellText(row[col])
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
