package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// New returns Queries running on db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries implements Repository and the read queries over any DBTX.
type Queries struct {
	db DBTX
}

const showExists = `SELECT EXISTS (SELECT 1 FROM tv_shows WHERE id = $1)`

func (q *Queries) ShowExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := q.db.QueryRow(ctx, showExists, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check show %d: %w", id, err)
	}
	return exists, nil
}

const insertShow = `INSERT INTO tv_shows (
    id, name, original_name, first_air_date, last_air_date,
    seasons, episodes, status, overview, popularity,
    tmdb_rating, vote_count, poster_url, backdrop_url
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (q *Queries) InsertShow(ctx context.Context, arg ShowParams) error {
	_, err := q.db.Exec(ctx, insertShow,
		arg.ID,
		arg.Name,
		arg.OriginalName,
		arg.FirstAirDate,
		arg.LastAirDate,
		arg.Seasons,
		arg.Episodes,
		arg.Status,
		arg.Overview,
		arg.Popularity,
		arg.Rating,
		arg.VoteCount,
		arg.PosterURL,
		arg.BackdropURL,
	)
	if err != nil {
		return fmt.Errorf("insert show %d: %w", arg.ID, err)
	}
	return nil
}

func (q *Queries) FindEntity(ctx context.Context, kind Kind, name string) (int64, bool, error) {
	st := statements[kind]
	var id int64
	err := q.db.QueryRow(ctx, st.find, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find %s %q: %w", kind, name, err)
	}
	return id, true, nil
}

func (q *Queries) InsertEntity(ctx context.Context, kind Kind, name string, profileURL pgtype.Text) (int64, error) {
	st := statements[kind]
	args := []any{name}
	if kind.Info().HasProfile {
		args = append(args, profileURL)
	}

	var id int64
	if err := q.db.QueryRow(ctx, st.insert, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", kind, name, err)
	}
	return id, nil
}

func (q *Queries) UpdateProfileURL(ctx context.Context, kind Kind, id int64, profileURL pgtype.Text) error {
	st := statements[kind]
	if st.updateProfile == "" {
		return fmt.Errorf("update %s %d: kind has no profile url", kind, id)
	}
	if _, err := q.db.Exec(ctx, st.updateProfile, id, profileURL); err != nil {
		return fmt.Errorf("update %s %d profile url: %w", kind, id, err)
	}
	return nil
}

func (q *Queries) LinkEntity(ctx context.Context, kind Kind, showID, entityID int64) error {
	if _, err := q.db.Exec(ctx, statements[kind].link, showID, entityID); err != nil {
		return fmt.Errorf("link show %d to %s %d: %w", showID, kind, entityID, err)
	}
	return nil
}

const linkCast = `INSERT INTO show_cast (show_id, actor_id, character_name)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`

func (q *Queries) LinkCast(ctx context.Context, showID, actorID int64, character pgtype.Text) error {
	if _, err := q.db.Exec(ctx, linkCast, showID, actorID, character); err != nil {
		return fmt.Errorf("link show %d to actor %d: %w", showID, actorID, err)
	}
	return nil
}

// CountTable returns the number of rows in table.
func (q *Queries) CountTable(ctx context.Context, table string) (int64, error) {
	sql := "SELECT count(*) FROM " + pgx.Identifier{table}.Sanitize()
	var n int64
	if err := q.db.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Counts returns row counts for every table in Tables().
func (q *Queries) Counts(ctx context.Context) (Counts, error) {
	tables := Tables()
	counts := make(Counts, 0, len(tables))
	for _, table := range tables {
		n, err := q.CountTable(ctx, table)
		if err != nil {
			return nil, err
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

// Truncate empties tables and restarts their id sequences. Tables referencing
// them are emptied too.
func (q *Queries) Truncate(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = pgx.Identifier{t}.Sanitize()
	}
	sql := "TRUNCATE " + strings.Join(quoted, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := q.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("truncate %s: %w", strings.Join(tables, ", "), err)
	}
	return nil
}
