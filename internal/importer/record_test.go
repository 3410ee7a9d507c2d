package importer

import (
	"testing"
	"time"
)

func TestShowParams(t *testing.T) {
	csv := "ID,Name,Original Name,First Air Date,Last Air Date,Seasons,Episodes,Status,Overview,Popularity,TMDb Rating,Vote Count,Poster URL,Backdrop URL\n" +
		`1399,Game of Thrones,Game of Thrones,2011-04-17,2019-05-19,8.0,73,Ended,"Seven noble families, one throne.",1234.5,8.46,"21,857",http://p/1.jpg,` + "\n"
	recs := records(t, csv)

	p, err := showParams(recs[0], 1399)
	if err != nil {
		t.Fatalf("showParams() error = %v", err)
	}

	if p.ID != 1399 || p.Name.String != "Game of Thrones" || p.OriginalName.String != "Game of Thrones" {
		t.Errorf("identity fields wrong: %+v", p)
	}
	if !p.FirstAirDate.Time.Equal(time.Date(2011, 4, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("FirstAirDate = %v", p.FirstAirDate.Time)
	}
	if p.Seasons.Int32 != 8 || p.Episodes.Int32 != 73 || p.VoteCount.Int32 != 21857 {
		t.Errorf("counts = %d/%d/%d", p.Seasons.Int32, p.Episodes.Int32, p.VoteCount.Int32)
	}
	if p.Popularity.Float64 != 1234.5 || p.Rating.Float64 != 8.46 {
		t.Errorf("scores = %v/%v", p.Popularity.Float64, p.Rating.Float64)
	}
	if p.Overview.String != "Seven noble families, one throne." {
		t.Errorf("Overview = %q", p.Overview.String)
	}
	if !p.PosterURL.Valid || p.BackdropURL.Valid {
		t.Errorf("urls: poster valid=%v backdrop valid=%v", p.PosterURL.Valid, p.BackdropURL.Valid)
	}
}

func TestShowParams_NamesBadColumn(t *testing.T) {
	recs := records(t, "ID,Episodes\n1,12 episodes\n")

	_, err := showParams(recs[0], 1)
	if err == nil {
		t.Fatal("showParams() expected error")
	}
	if got := err.Error(); got != `column "Episodes": invalid number "12 episodes"` {
		t.Errorf("error = %q", got)
	}
}
