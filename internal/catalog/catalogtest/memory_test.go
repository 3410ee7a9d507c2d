package catalogtest

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tvimport/internal/catalog"
)

func TestMemory_RollbackDiscardsWork(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	tx, err := mem.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertShow(ctx, catalog.ShowParams{ID: 1}))
	id, err := tx.InsertEntity(ctx, catalog.Genre, "Drama", noProfile())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Empty(t, mem.ShowIDs())
	assert.Empty(t, mem.Names(catalog.Genre))

	tx, err = mem.Begin(ctx)
	require.NoError(t, err)
	next, err := tx.InsertEntity(ctx, catalog.Genre, "Drama", noProfile())
	require.NoError(t, err)
	assert.Greater(t, next, id, "sequence is not rolled back")
}

func TestMemory_SavepointRollback(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	tx, err := mem.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertShow(ctx, catalog.ShowParams{ID: 1}))

	sp, err := tx.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sp.InsertShow(ctx, catalog.ShowParams{ID: 2}))
	require.NoError(t, sp.Rollback(ctx))

	sp, err = tx.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sp.InsertShow(ctx, catalog.ShowParams{ID: 3}))
	require.NoError(t, sp.Commit(ctx))

	assert.Empty(t, mem.ShowIDs(), "nothing visible before the outer commit")
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, []int64{1, 3}, mem.ShowIDs())
}

func TestMemory_ClosedTx(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	tx, err := mem.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	_, err = tx.ShowExists(ctx, 1)
	assert.ErrorIs(t, err, ErrTxClosed)
	assert.ErrorIs(t, tx.Rollback(ctx), ErrTxClosed)
}

func TestMemory_LinksAreIdempotentAndNeedShow(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	tx, err := mem.Begin(ctx)
	require.NoError(t, err)
	require.Error(t, tx.LinkEntity(ctx, catalog.Genre, 9, 1), "link without show")

	require.NoError(t, tx.InsertShow(ctx, catalog.ShowParams{ID: 9}))
	gid, err := tx.InsertEntity(ctx, catalog.Genre, "Drama", noProfile())
	require.NoError(t, err)
	require.NoError(t, tx.LinkEntity(ctx, catalog.Genre, 9, gid))
	require.NoError(t, tx.LinkEntity(ctx, catalog.Genre, 9, gid))
	require.NoError(t, tx.Commit(ctx))

	counts, err := mem.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Get("show_genres"))
	assert.Equal(t, []string{"Drama"}, mem.Linked(catalog.Genre, 9))
	assert.Zero(t, mem.Orphans())
}

func TestMemory_FailureInjection(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	boom := errors.New("boom")
	mem.FailInsertShow[5] = boom
	mem.FailCommits = 1

	tx, err := mem.Begin(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, tx.InsertShow(ctx, catalog.ShowParams{ID: 5}), boom)
	require.NoError(t, tx.InsertShow(ctx, catalog.ShowParams{ID: 6}))
	assert.Error(t, tx.Commit(ctx))
	assert.Empty(t, mem.ShowIDs())
}

func noProfile() pgtype.Text { return pgtype.Text{} }
