package catalog

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Kind identifies a reference entity table.
type Kind int

const (
	Genre Kind = iota
	Creator
	Network
	Studio
	Actor
)

// KindInfo describes where a reference kind is stored and linked.
type KindInfo struct {
	Label      string // singular, for logs
	Table      string // entity table, columns (id, name[, profile_url])
	JoinTable  string // association table keyed by (show_id, JoinColumn)
	JoinColumn string
	HasProfile bool // carries a profile_url attribute
}

// kindStatements holds the SQL for one kind, built once from its KindInfo.
type kindStatements struct {
	find          string
	insert        string
	updateProfile string
	link          string
}

var kinds = [...]KindInfo{
	Genre:   {Label: "genre", Table: "genres", JoinTable: "show_genres", JoinColumn: "genre_id"},
	Creator: {Label: "creator", Table: "creators", JoinTable: "show_creators", JoinColumn: "creator_id"},
	Network: {Label: "network", Table: "networks", JoinTable: "show_networks", JoinColumn: "network_id"},
	Studio:  {Label: "studio", Table: "studios", JoinTable: "show_studios", JoinColumn: "studio_id"},
	Actor:   {Label: "actor", Table: "actors", JoinTable: "show_cast", JoinColumn: "actor_id", HasProfile: true},
}

var statements = buildStatements()

func buildStatements() [len(kinds)]kindStatements {
	var out [len(kinds)]kindStatements
	for k, info := range kinds {
		table := pgx.Identifier{info.Table}.Sanitize()
		join := pgx.Identifier{info.JoinTable}.Sanitize()
		col := pgx.Identifier{info.JoinColumn}.Sanitize()

		st := kindStatements{
			find: fmt.Sprintf("SELECT id FROM %s WHERE name = $1 ORDER BY id LIMIT 1", table),
			link: fmt.Sprintf("INSERT INTO %s (show_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING", join, col),
		}
		if info.HasProfile {
			st.insert = fmt.Sprintf("INSERT INTO %s (name, profile_url) VALUES ($1, $2) RETURNING id", table)
			st.updateProfile = fmt.Sprintf("UPDATE %s SET profile_url = $2 WHERE id = $1", table)
		} else {
			st.insert = fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) RETURNING id", table)
		}
		out[k] = st
	}
	return out
}

// Kinds returns every reference kind in link order.
func Kinds() []Kind {
	return []Kind{Genre, Creator, Network, Studio, Actor}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kinds)
}

// Info returns the storage description of k. It panics on an unknown kind.
func (k Kind) Info() KindInfo {
	if !k.Valid() {
		panic(fmt.Sprintf("catalog: unknown kind %d", int(k)))
	}
	return kinds[k]
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].Label
}

// Tables lists every table the importer writes, entities first.
func Tables() []string {
	tables := []string{"tv_shows"}
	for _, info := range kinds {
		tables = append(tables, info.Table)
	}
	for _, info := range kinds {
		tables = append(tables, info.JoinTable)
	}
	return tables
}
