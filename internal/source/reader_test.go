package source

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleCSV = `ID,Name,Genres,Creators,Actor 1 Name,Actor 1 Character,Actor 1 Profile URL,Actor 2 Name
42,Show A,Drama;Comedy,,X,Y,https://img/x.jpg,
43,"Show, B", Drama ; ;Crime ,Vince Gilligan,,,,Z
`

func TestParse_Basic(t *testing.T) {
	table, err := Parse([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(table.Records))
	}

	first := table.Records[0]
	if first.Line != 2 {
		t.Errorf("first.Line = %d, want 2", first.Line)
	}
	if got := first.String(ColName); got != "Show A" {
		t.Errorf("Name = %q, want %q", got, "Show A")
	}
	if got := first.List(ColGenres); !reflect.DeepEqual(got, []string{"Drama", "Comedy"}) {
		t.Errorf("Genres = %v", got)
	}
	if got := first.List(ColCreators); len(got) != 0 || got == nil {
		t.Errorf("Creators = %#v, want empty non-nil slice", got)
	}

	second := table.Records[1]
	if got := second.String(ColName); got != "Show, B" {
		t.Errorf("quoted Name = %q", got)
	}
	if got := second.List(ColGenres); !reflect.DeepEqual(got, []string{"Drama", "Crime"}) {
		t.Errorf("Genres = %v, want trimmed non-empty items", got)
	}
}

func TestRecord_Actors(t *testing.T) {
	table, err := Parse([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := table.Records[0].Actors()
	want := []Credit{{Slot: 1, Name: "X", Character: "Y", ProfileURL: "https://img/x.jpg"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Actors() = %+v, want %+v", got, want)
	}

	// Slot 1 is empty, slot 2 is present; slot numbering is preserved.
	got = table.Records[1].Actors()
	want = []Credit{{Slot: 2, Name: "Z"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Actors() = %+v, want %+v", got, want)
	}
}

func TestRecord_ValueAbsentColumn(t *testing.T) {
	table, err := Parse([]byte("ID\n7\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rec := table.Records[0]

	if _, ok := rec.Value(ColOverview); ok {
		t.Error("Value(Overview) reported present for a missing column")
	}
	if got := rec.List(ColStudios); len(got) != 0 {
		t.Errorf("List(Studios) = %v, want empty", got)
	}
	if got := rec.Actors(); len(got) != 0 {
		t.Errorf("Actors() = %v, want none", got)
	}
	if rec.Key() != "7" {
		t.Errorf("Key() = %q, want 7", rec.Key())
	}
}

func TestParse_ShortRowsAreTolerated(t *testing.T) {
	table, err := Parse([]byte("ID,Name,Genres\n9\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, ok := table.Records[0].Value(ColGenres); ok {
		t.Errorf("Value(Genres) = %q, want absent", got)
	}
}

func TestParse_HeaderSearch(t *testing.T) {
	data := "Exported from TMDb\n\nid,name\n1,One\n\n2,Two\n"
	table, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2 (blank rows skipped)", len(table.Records))
	}
	if table.Records[1].String(ColName) != "Two" {
		t.Errorf("case-insensitive header lookup failed: %q", table.Records[1].String(ColName))
	}
}

func TestParse_BOMAndInvalidUTF8(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ID,Name\n1,caf\xe9\n")...)
	table, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Records[0].String(ColName); got != "caf\uFFFD" {
		t.Errorf("Name = %q, want replacement character", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		wantMsg string
	}{
		{name: "empty", data: "", wantErr: ErrEmptyFile},
		{name: "no id column", data: "Name,Genres\nShow,Drama\n", wantErr: ErrMissingIDColumn},
		{name: "blank lines only", data: "\n\n", wantErr: ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"Drama", []string{"Drama"}},
		{"Drama;Comedy", []string{"Drama", "Comedy"}},
		{" Sci-Fi & Fantasy ;; Action & Adventure ;", []string{"Sci-Fi & Fantasy", "Action & Adventure"}},
		{"drama;Drama", []string{"drama", "Drama"}},
	}

	for _, tt := range tests {
		got := SplitList(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
