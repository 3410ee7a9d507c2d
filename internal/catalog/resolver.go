package catalog

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ProfilePolicy decides what happens to a profile URL seen on a name that
// already exists.
type ProfilePolicy int

const (
	// ProfileKeepFirst ignores attributes on repeat names; the first sighting wins.
	ProfileKeepFirst ProfilePolicy = iota
	// ProfileOverwrite replaces the stored profile URL with any non-empty new one.
	ProfileOverwrite
)

// Attributes are the optional extra columns of a reference entity.
type Attributes struct {
	ProfileURL pgtype.Text
}

// Resolver maps reference names to ids, creating rows on first sight.
//
// Lookup then insert is not atomic. It assumes a single writer per table,
// which the importer guarantees by running sequentially.
type Resolver struct {
	policy ProfilePolicy
}

// NewResolver returns a Resolver applying policy to repeat names.
func NewResolver(policy ProfilePolicy) *Resolver {
	return &Resolver{policy: policy}
}

// Resolve returns the id for name, inserting it if no row matches exactly.
// A blank name reports ok=false and touches nothing.
func (r *Resolver) Resolve(ctx context.Context, repo Repository, kind Kind, name string, attrs Attributes) (id int64, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	id, found, err := repo.FindEntity(ctx, kind, name)
	if err != nil {
		return 0, false, err
	}

	if found {
		if r.policy == ProfileOverwrite && kind.Info().HasProfile && attrs.ProfileURL.Valid {
			if err := repo.UpdateProfileURL(ctx, kind, id, attrs.ProfileURL); err != nil {
				return 0, false, err
			}
		}
		return id, true, nil
	}

	id, err = repo.InsertEntity(ctx, kind, name, attrs.ProfileURL)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
