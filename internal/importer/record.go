package importer

import (
	"fmt"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/source"
)

// listLink binds a multi-value column to the reference kind it links.
type listLink struct {
	column string
	kind   catalog.Kind
	phase  Phase
}

// listLinks run in this order for every imported show.
var listLinks = []listLink{
	{source.ColGenres, catalog.Genre, PhaseLinkGenres},
	{source.ColCreators, catalog.Creator, PhaseLinkCreators},
	{source.ColNetworks, catalog.Network, PhaseLinkNetworks},
	{source.ColStudios, catalog.Studio, PhaseLinkStudios},
}

// showParams converts a record into a tv_shows row. Blank cells become NULL;
// a cell that does not parse fails the record.
func showParams(rec source.Record, id int64) (catalog.ShowParams, error) {
	p := catalog.ShowParams{
		ID:           id,
		Name:         source.ToPgText(rec.String(source.ColName)),
		OriginalName: source.ToPgText(rec.String(source.ColOriginalName)),
		Status:       source.ToPgText(rec.String(source.ColStatus)),
		Overview:     source.ToPgText(rec.String(source.ColOverview)),
		PosterURL:    source.ToPgText(rec.String(source.ColPosterURL)),
		BackdropURL:  source.ToPgText(rec.String(source.ColBackdropURL)),
	}

	var err error
	if p.FirstAirDate, err = source.ToPgDate(rec.String(source.ColFirstAirDate)); err != nil {
		return p, columnError(source.ColFirstAirDate, err)
	}
	if p.LastAirDate, err = source.ToPgDate(rec.String(source.ColLastAirDate)); err != nil {
		return p, columnError(source.ColLastAirDate, err)
	}
	if p.Seasons, err = source.ToPgInt4(rec.String(source.ColSeasons)); err != nil {
		return p, columnError(source.ColSeasons, err)
	}
	if p.Episodes, err = source.ToPgInt4(rec.String(source.ColEpisodes)); err != nil {
		return p, columnError(source.ColEpisodes, err)
	}
	if p.Popularity, err = source.ToPgFloat8(rec.String(source.ColPopularity)); err != nil {
		return p, columnError(source.ColPopularity, err)
	}
	if p.Rating, err = source.ToPgFloat8(rec.String(source.ColRating)); err != nil {
		return p, columnError(source.ColRating, err)
	}
	if p.VoteCount, err = source.ToPgInt4(rec.String(source.ColVoteCount)); err != nil {
		return p, columnError(source.ColVoteCount, err)
	}
	return p, nil
}

func columnError(col string, err error) error {
	return fmt.Errorf("column %q: %w", col, err)
}
