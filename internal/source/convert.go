package source

// convert.go turns raw cells into PostgreSQL values.
//
// Blank cells become invalid pgtype values (SQL NULL) and never an error:
// absence is normal in this export. A non-blank cell that cannot be parsed is
// an error, and the importer fails that record rather than storing a guess.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// dateLayouts are tried in order; all carry four-digit years.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006", "01/02/2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a string to pgtype.Date.
func ToPgDate(s string) (pgtype.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}, nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}, nil
		}
	}

	return pgtype.Date{}, fmt.Errorf("invalid date %q", s)
}

// ToPgInt4 converts a string to pgtype.Int4.
// Integral float spellings ("12.0", as written by spreadsheet and dataframe
// exports) and thousands separators are accepted.
func ToPgInt4(s string) (pgtype.Int4, error) {
	n, ok, err := parseInteger(s, math.MinInt32, math.MaxInt32)
	if err != nil || !ok {
		return pgtype.Int4{Valid: false}, err
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}, nil
}

// ToPgFloat8 converts a string to pgtype.Float8.
func ToPgFloat8(s string) (pgtype.Float8, error) {
	s = cleanNumber(s)
	if s == "" {
		return pgtype.Float8{Valid: false}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}, fmt.Errorf("invalid number %q", s)
	}
	return pgtype.Float8{Float64: f, Valid: true}, nil
}

// ParseID parses the stable show key. Unlike the other converters a blank
// value is an error: a record without a key cannot be imported.
func ParseID(s string) (int64, error) {
	n, ok, err := parseInteger(s, math.MinInt64, math.MaxInt64)
	if err != nil {
		return 0, fmt.Errorf("invalid show id: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("empty required field %q", ColID)
	}
	return n, nil
}

// parseInteger reports ok=false for blank input.
func parseInteger(s string, lo, hi int64) (int64, bool, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, false, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < lo || n > hi {
			return 0, false, fmt.Errorf("invalid number %q: out of range", s)
		}
		return n, true, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || f < float64(lo) || f > float64(hi) {
		return 0, false, fmt.Errorf("invalid number %q", s)
	}
	return int64(f), true, nil
}

// cleanNumber trims whitespace and removes thousands separators.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, ",", "")
}
