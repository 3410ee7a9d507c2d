package source

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsSpreadsheet reports whether name is an Excel workbook.
func IsSpreadsheet(name string) bool {
	return strings.EqualFold(path.Ext(name), ".xlsx")
}

// ParseXLSX reads the first worksheet of an Excel workbook into a Table.
//
// Cells are read as displayed, so a date column must be formatted the way
// the CSV export writes it. Line is the worksheet row number.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: sheet %q: %w", sheet, err)
	}

	var b tableBuilder
	for i, row := range rows {
		for j := range row {
			row[j] = string(sanitizeUTF8([]byte(row[j])))
		}
		if err := b.add(i+1, row); err != nil {
			return nil, err
		}
	}
	return b.table()
}
