// Package admin provides administrative operations for the catalog database.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/tvimport/internal/catalog"
)

// ResetTimeout is the maximum duration for a catalog reset.
const ResetTimeout = 30 * time.Second

// Truncater empties tables. *catalog.Queries implements it.
type Truncater interface {
	Truncate(ctx context.Context, tables ...string) error
}

// Counter reads table sizes. *catalog.Queries implements it.
type Counter interface {
	Counts(ctx context.Context) (catalog.Counts, error)
}

// ResetCatalog empties every catalog table so the next import starts from
// scratch. This is a destructive operation - use with caution.
//
// It returns the row counts from before the reset.
func ResetCatalog(ctx context.Context, db interface {
	Truncater
	Counter
}) (catalog.Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	before, err := db.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	if err := db.Truncate(ctx, catalog.Tables()...); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	slog.Info("catalog reset", "shows_removed", before.Get("tv_shows"))
	return before, nil
}
