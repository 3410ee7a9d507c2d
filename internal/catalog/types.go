// Package catalog is the PostgreSQL storage layer for the show catalog.
//
// Writes go through Repository, which the importer drives inside a Tx.
// Reference entities (genres, creators, networks, studios, actors) are keyed
// by exact name; callers trim, nothing else is normalized. Reads for the API
// and the run summary live on Queries and Store.
package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
)

// ErrShowNotFound is returned by GetShow when no show has the requested id.
var ErrShowNotFound = errors.New("show not found")

// ShowParams is one tv_shows row. Invalid pgtype values are stored as NULL.
type ShowParams struct {
	ID           int64
	Name         pgtype.Text
	OriginalName pgtype.Text
	FirstAirDate pgtype.Date
	LastAirDate  pgtype.Date
	Seasons      pgtype.Int4
	Episodes     pgtype.Int4
	Status       pgtype.Text
	Overview     pgtype.Text
	Popularity   pgtype.Float8
	Rating       pgtype.Float8
	VoteCount    pgtype.Int4
	PosterURL    pgtype.Text
	BackdropURL  pgtype.Text
}

// Repository is the write surface used while importing one record.
type Repository interface {
	ShowExists(ctx context.Context, id int64) (bool, error)
	InsertShow(ctx context.Context, arg ShowParams) error

	// FindEntity looks up a reference entity by exact name.
	FindEntity(ctx context.Context, kind Kind, name string) (int64, bool, error)
	// InsertEntity creates a reference entity and returns its id.
	// profileURL is ignored for kinds without a profile.
	InsertEntity(ctx context.Context, kind Kind, name string, profileURL pgtype.Text) (int64, error)
	UpdateProfileURL(ctx context.Context, kind Kind, id int64, profileURL pgtype.Text) error

	// LinkEntity and LinkCast are no-ops for pairs that already exist.
	LinkEntity(ctx context.Context, kind Kind, showID, entityID int64) error
	LinkCast(ctx context.Context, showID, actorID int64, character pgtype.Text) error
}

// Tx is a Repository bound to an open transaction.
//
// Begin opens a savepoint inside the transaction; committing it releases the
// savepoint and rolling it back undoes only the work done since Begin.
type Tx interface {
	Repository
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Session opens transactions and reports table sizes.
type Session interface {
	Begin(ctx context.Context) (Tx, error)
	Counts(ctx context.Context) (Counts, error)
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Counts holds row counts in Tables() order.
type Counts []TableCount

// Get returns the count for table, or 0 if absent.
func (c Counts) Get(table string) int64 {
	for _, tc := range c {
		if tc.Table == table {
			return tc.Rows
		}
	}
	return 0
}

// Show is the list view of a tv_shows row.
type Show struct {
	ID           int64         `db:"id" json:"id"`
	Name         pgtype.Text   `db:"name" json:"name"`
	OriginalName pgtype.Text   `db:"original_name" json:"original_name"`
	FirstAirDate pgtype.Date   `db:"first_air_date" json:"first_air_date"`
	LastAirDate  pgtype.Date   `db:"last_air_date" json:"last_air_date"`
	Seasons      pgtype.Int4   `db:"seasons" json:"seasons"`
	Episodes     pgtype.Int4   `db:"episodes" json:"episodes"`
	Status       pgtype.Text   `db:"status" json:"status"`
	Overview     pgtype.Text   `db:"overview" json:"overview"`
	Popularity   pgtype.Float8 `db:"popularity" json:"popularity"`
	Rating       pgtype.Float8 `db:"tmdb_rating" json:"tmdb_rating"`
	VoteCount    pgtype.Int4   `db:"vote_count" json:"vote_count"`
	PosterURL    pgtype.Text   `db:"poster_url" json:"poster_url"`
	BackdropURL  pgtype.Text   `db:"backdrop_url" json:"backdrop_url"`
}

// Entity is a reference entity linked to a show.
type Entity struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CastMember is an actor credited on a show.
type CastMember struct {
	ActorID    int64       `db:"actor_id" json:"actor_id"`
	Name       string      `db:"name" json:"name"`
	Character  pgtype.Text `db:"character_name" json:"character"`
	ProfileURL pgtype.Text `db:"profile_url" json:"profile_url"`
}

// ShowDetail is a show with all of its associations.
type ShowDetail struct {
	Show
	Genres   []Entity     `json:"genres"`
	Creators []Entity     `json:"creators"`
	Networks []Entity     `json:"networks"`
	Studios  []Entity     `json:"studios"`
	Cast     []CastMember `json:"cast"`
}
