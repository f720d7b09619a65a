package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSXPages renders each sheet of an XLSX export (the RAFAM format some
// municipalities publish instead of a PDF) as one tab-separated text page,
// so the router and extractor operate on it unchanged.
func LoadXLSXPages(path string) ([]string, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	pages := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var b strings.Builder
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		pages = append(pages, b.String())
	}
	return pages, nil
}
