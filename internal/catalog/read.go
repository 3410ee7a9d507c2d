package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const showColumns = `id, name, original_name, first_air_date, last_air_date,
    seasons, episodes, status, overview, popularity,
    tmdb_rating, vote_count, poster_url, backdrop_url`

const listShows = `SELECT ` + showColumns + `
FROM tv_shows
ORDER BY id ASC
LIMIT $1 OFFSET $2`

// ListShows returns a page of shows ordered by id.
func (q *Queries) ListShows(ctx context.Context, limit, offset int) ([]Show, error) {
	return q.queryShows(ctx, "list shows", listShows, limit, offset)
}

// CountShows returns the total number of shows.
func (q *Queries) CountShows(ctx context.Context) (int64, error) {
	return q.CountTable(ctx, "tv_shows")
}

const showsByAirYear = `SELECT ` + showColumns + `
FROM tv_shows
WHERE EXTRACT(YEAR FROM first_air_date) BETWEEN $1 AND $2
ORDER BY first_air_date ASC, id ASC
LIMIT $3 OFFSET $4`

// ShowsByAirYear returns a page of shows first aired in [startYear, endYear].
func (q *Queries) ShowsByAirYear(ctx context.Context, startYear, endYear, limit, offset int) ([]Show, error) {
	return q.queryShows(ctx, "list shows by year", showsByAirYear, startYear, endYear, limit, offset)
}

const countShowsByAirYear = `SELECT count(*) FROM tv_shows
WHERE EXTRACT(YEAR FROM first_air_date) BETWEEN $1 AND $2`

// CountShowsByAirYear counts the shows ShowsByAirYear pages over.
func (q *Queries) CountShowsByAirYear(ctx context.Context, startYear, endYear int) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, countShowsByAirYear, startYear, endYear).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shows by year: %w", err)
	}
	return n, nil
}

const randomShows = `SELECT ` + showColumns + `
FROM tv_shows
ORDER BY random()
LIMIT $1`

// RandomShows returns up to limit shows in random order.
func (q *Queries) RandomShows(ctx context.Context, limit int) ([]Show, error) {
	return q.queryShows(ctx, "random shows", randomShows, limit)
}

const getShow = `SELECT ` + showColumns + `
FROM tv_shows
WHERE id = $1`

// GetShow returns one show with its associations, or ErrShowNotFound.
func (q *Queries) GetShow(ctx context.Context, id int64) (*ShowDetail, error) {
	rows, err := q.db.Query(ctx, getShow, id)
	if err != nil {
		return nil, fmt.Errorf("get show %d: %w", id, err)
	}
	show, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Show])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get show %d: %w", id, err)
	}

	detail := &ShowDetail{Show: show}
	targets := []struct {
		kind Kind
		dst  *[]Entity
	}{
		{Genre, &detail.Genres},
		{Creator, &detail.Creators},
		{Network, &detail.Networks},
		{Studio, &detail.Studios},
	}
	for _, t := range targets {
		if *t.dst, err = q.linkedEntities(ctx, t.kind, id); err != nil {
			return nil, err
		}
	}

	if detail.Cast, err = q.showCast(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

func (q *Queries) linkedEntities(ctx context.Context, kind Kind, showID int64) ([]Entity, error) {
	info := kind.Info()
	sql := fmt.Sprintf(`SELECT e.id, e.name
FROM %s j
JOIN %s e ON e.id = j.%s
WHERE j.show_id = $1
ORDER BY e.name`,
		pgx.Identifier{info.JoinTable}.Sanitize(),
		pgx.Identifier{info.Table}.Sanitize(),
		pgx.Identifier{info.JoinColumn}.Sanitize(),
	)

	rows, err := q.db.Query(ctx, sql, showID)
	if err != nil {
		return nil, fmt.Errorf("list %s for show %d: %w", info.Table, showID, err)
	}
	entities, err := pgx.CollectRows(rows, pgx.RowToStructByName[Entity])
	if err != nil {
		return nil, fmt.Errorf("list %s for show %d: %w", info.Table, showID, err)
	}
	return entities, nil
}

const showCast = `SELECT a.id AS actor_id, a.name, c.character_name, a.profile_url
FROM show_cast c
JOIN actors a ON a.id = c.actor_id
WHERE c.show_id = $1
ORDER BY a.name`

func (q *Queries) showCast(ctx context.Context, showID int64) ([]CastMember, error) {
	rows, err := q.db.Query(ctx, showCast, showID)
	if err != nil {
		return nil, fmt.Errorf("list cast for show %d: %w", showID, err)
	}
	cast, err := pgx.CollectRows(rows, pgx.RowToStructByName[CastMember])
	if err != nil {
		return nil, fmt.Errorf("list cast for show %d: %w", showID, err)
	}
	return cast, nil
}

func (q *Queries) queryShows(ctx context.Context, op, sql string, args ...any) ([]Show, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	shows, err := pgx.CollectRows(rows, pgx.RowToStructByName[Show])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return shows, nil
}

// ShowFilter narrows SearchShows. Empty fields do not filter.
type ShowFilter struct {
	// Genre matches shows linked to a genre whose name contains it,
	// ignoring case.
	Genre string
	// Name matches shows whose name or original name contains it,
	// ignoring case.
	Name string
	// Status matches the status column exactly.
	Status string
}

// where renders f as a WHERE clause whose placeholders start at $1.
func (f ShowFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Genre != "" {
		args = append(args, likeContains(f.Genre))
		conds = append(conds, fmt.Sprintf(`EXISTS (
    SELECT 1 FROM show_genres sg JOIN genres g ON g.id = sg.genre_id
    WHERE sg.show_id = tv_shows.id AND g.name ILIKE $%d)`, len(args)))
	}
	if f.Name != "" {
		args = append(args, likeContains(f.Name))
		conds = append(conds, fmt.Sprintf("(name ILIKE $%[1]d OR original_name ILIKE $%[1]d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, "\n  AND "), args
}

// likeContains builds an ILIKE pattern matching s literally anywhere.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// SearchShows returns a page of shows matching f, ordered by id.
func (q *Queries) SearchShows(ctx context.Context, f ShowFilter, limit, offset int) ([]Show, error) {
	where, args := f.where()
	sql := fmt.Sprintf("SELECT %s\nFROM tv_shows%s\nORDER BY id ASC\nLIMIT $%d OFFSET $%d",
		showColumns, where, len(args)+1, len(args)+2)
	return q.queryShows(ctx, "search shows", sql, append(args, limit, offset)...)
}

// CountSearchShows counts the shows SearchShows pages over.
func (q *Queries) CountSearchShows(ctx context.Context, f ShowFilter) (int64, error) {
	where, args := f.where()
	var n int64
	if err := q.db.QueryRow(ctx, "SELECT count(*) FROM tv_shows"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count search shows: %w", err)
	}
	return n, nil
}
