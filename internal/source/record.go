// Package source loads the show table into memory.
//
// The whole file is materialized before the importer starts: Load either
// returns every record in file order or fails, and a failure is fatal for the
// run. Field presence is never guaranteed, so all accessors on Record treat
// every column as optional.
package source

import (
	"fmt"
	"strings"
)

// Column headers of the show export.
const (
	ColID           = "ID"
	ColName         = "Name"
	ColOriginalName = "Original Name"
	ColFirstAirDate = "First Air Date"
	ColLastAirDate  = "Last Air Date"
	ColSeasons      = "Seasons"
	ColEpisodes     = "Episodes"
	ColStatus       = "Status"
	ColOverview     = "Overview"
	ColPopularity   = "Popularity"
	ColRating       = "TMDb Rating"
	ColVoteCount    = "Vote Count"
	ColPosterURL    = "Poster URL"
	ColBackdropURL  = "Backdrop URL"
	ColGenres       = "Genres"
	ColCreators     = "Creators"
	ColNetworks     = "Networks"
	ColStudios      = "Studios"
)

// MaxActors is the number of positional actor column triples.
const MaxActors = 10

// ListSeparator separates items in multi-value columns.
const ListSeparator = ";"

// ActorNameColumn returns the header of the n-th actor name column (1-based).
func ActorNameColumn(n int) string { return fmt.Sprintf("Actor %d Name", n) }

// ActorCharacterColumn returns the header of the n-th character column.
func ActorCharacterColumn(n int) string { return fmt.Sprintf("Actor %d Character", n) }

// ActorProfileColumn returns the header of the n-th profile URL column.
func ActorProfileColumn(n int) string { return fmt.Sprintf("Actor %d Profile URL", n) }

// HeaderIndex maps column names (lowercase) to their position in the row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching; the first occurrence of
// a repeated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Has reports whether the header contains col.
func (h HeaderIndex) Has(col string) bool {
	_, ok := h[strings.ToLower(col)]
	return ok
}

// Table is the fully loaded source.
type Table struct {
	Path    string
	Header  []string
	Records []Record
}

// Record is one data row with named, optional fields.
type Record struct {
	// Line is the 1-based line in the file where the row starts.
	Line int

	row   []string
	index HeaderIndex
}

// NewRecord builds a record from a row and its header index.
func NewRecord(line int, row []string, index HeaderIndex) Record {
	return Record{Line: line, row: row, index: index}
}

// Value returns the trimmed cell for col and whether it is present and
// non-empty. A missing column, a short row and a blank cell all report false.
func (r Record) Value(col string) (string, bool) {
	pos, ok := r.index[strings.ToLower(col)]
	if !ok || pos >= len(r.row) {
		return "", false
	}
	v := strings.TrimSpace(r.row[pos])
	return v, v != ""
}

// String returns the trimmed cell for col, or "" when absent.
func (r Record) String(col string) string {
	v, _ := r.Value(col)
	return v
}

// List splits a multi-value column on ListSeparator. Items are trimmed and
// empty items dropped; an absent or blank column yields an empty slice.
func (r Record) List(col string) []string {
	return SplitList(r.String(col))
}

// SplitList splits s on ListSeparator, trimming items and dropping empties.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ListSeparator)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// Credit is one positional actor slot of a record.
type Credit struct {
	Slot       int
	Name       string
	Character  string // "" when absent
	ProfileURL string // "" when absent
}

// Actors returns the credits whose name column is present, in slot order.
func (r Record) Actors() []Credit {
	var credits []Credit
	for n := 1; n <= MaxActors; n++ {
		name, ok := r.Value(ActorNameColumn(n))
		if !ok {
			continue
		}
		credits = append(credits, Credit{
			Slot:       n,
			Name:       name,
			Character:  r.String(ActorCharacterColumn(n)),
			ProfileURL: r.String(ActorProfileColumn(n)),
		})
	}
	return credits
}

// Key returns the raw ID cell for logging, "<missing>" when absent.
func (r Record) Key() string {
	if v, ok := r.Value(ColID); ok {
		return v
	}
	return "<missing>"
}
