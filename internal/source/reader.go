package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxHeaderSearchRows is the maximum number of rows to scan for the header.
var MaxHeaderSearchRows = 20

var (
	// ErrEmptyFile is returned when the source has no rows at all.
	ErrEmptyFile = errors.New("empty file")

	// ErrMissingIDColumn is returned when no header row with an ID column is found.
	ErrMissingIDColumn = fmt.Errorf("missing required column %q", ColID)
)

// utf8BOM is prepended by some Windows tools.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes a complete CSV document into a Table.
//
// The header is the first row (within MaxHeaderSearchRows) that contains an
// ID column; anything above it is ignored. Blank rows are skipped.
func Parse(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var b tableBuilder
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		if err := b.add(line, row); err != nil {
			return nil, err
		}
	}
	return b.table()
}

// tableBuilder finds the header and collects the records after it. CSV and
// spreadsheet sources share it.
type tableBuilder struct {
	header  []string
	index   HeaderIndex
	records []Record
	scanned int
}

func (b *tableBuilder) add(line int, row []string) error {
	if b.header == nil {
		b.scanned++
		idx := MakeHeaderIndex(row)
		if idx.Has(ColID) {
			b.header, b.index = row, idx
			return nil
		}
		if b.scanned >= MaxHeaderSearchRows {
			return ErrMissingIDColumn
		}
		return nil
	}

	if !isEmptyRow(row) {
		b.records = append(b.records, NewRecord(line, row, b.index))
	}
	return nil
}

func (b *tableBuilder) table() (*Table, error) {
	if b.scanned == 0 {
		return nil, ErrEmptyFile
	}
	if b.header == nil {
		return nil, ErrMissingIDColumn
	}
	return &Table{Header: b.header, Records: b.records}, nil
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with U+FFFD so that text columns
// never fail to encode on insert.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
