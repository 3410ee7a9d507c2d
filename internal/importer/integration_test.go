package importer

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JonMunkholm/tvimport/internal/admin"
	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/config"
)

// startCatalog returns a Store on a fresh schema. TVIMPORT_TEST_DATABASE_URL
// points the test at an existing database; otherwise a container is started.
func startCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	connStr := os.Getenv("TVIMPORT_TEST_DATABASE_URL")
	if connStr == "" {
		// Without a Docker host postgres.Run panics instead of failing.
		testcontainers.SkipIfProviderIsNotHealthy(t)

		ctr, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.WithDatabase("tvimport"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("Skipping integration test: cannot start postgres: %v", err)
		}
		t.Cleanup(func() { ctr.Terminate(context.Background()) }) //nolint:errcheck

		connStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS show_cast, show_studios, show_networks,
		show_creators, show_genres, actors, studios, networks, creators, genres, tv_shows`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return catalog.NewStore(pool)
}

func TestIntegration_ImportAndRerun(t *testing.T) {
	store := startCatalog(t)
	ctx := context.Background()

	csv := "ID,Name,First Air Date,Seasons,Genres,Networks,Actor 1 Name,Actor 1 Character,Actor 1 Profile URL\n" +
		"42,Show A,2019-09-01,2,Drama;Comedy,HBO,X,Y,http://img/x.jpg\n" +
		"43,Show B,,,Comedy,,X,,\n"

	im := New(store, config.ImportConfig{}, nil)
	res, err := im.Run(ctx, records(t, csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Failures)
	assert.Equal(t, int64(2), res.Counts.Get("genres"))
	assert.Equal(t, int64(3), res.Counts.Get("show_genres"))
	assert.Equal(t, int64(1), res.Counts.Get("actors"))
	assert.Equal(t, int64(2), res.Counts.Get("show_cast"))

	detail, err := store.GetShow(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Show A", detail.Name.String)
	assert.Equal(t, int32(2), detail.Seasons.Int32)
	require.Len(t, detail.Genres, 2)
	assert.Equal(t, "Comedy", detail.Genres[0].Name)
	require.Len(t, detail.Cast, 1)
	assert.Equal(t, "Y", detail.Cast[0].Character.String)
	assert.Equal(t, "http://img/x.jpg", detail.Cast[0].ProfileURL.String)

	other, err := store.GetShow(ctx, 43)
	require.NoError(t, err)
	assert.False(t, other.Seasons.Valid, "blank stays NULL")
	assert.False(t, other.Cast[0].Character.Valid)

	comedies, err := store.SearchShows(ctx, catalog.ShowFilter{Genre: "comed"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, comedies, 2)
	dramas, err := store.CountSearchShows(ctx, catalog.ShowFilter{Genre: "DRAMA", Name: "show a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), dramas)
	none, err := store.CountSearchShows(ctx, catalog.ShowFilter{Name: "%"})
	require.NoError(t, err)
	assert.Zero(t, none, "wildcards match literally")

	again, err := New(store, config.ImportConfig{}, nil).Run(ctx, records(t, csv))
	require.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)
	assert.Equal(t, res.Counts, again.Counts)
}

func TestIntegration_ConstraintFailureRollsBackBatch(t *testing.T) {
	store := startCatalog(t)
	ctx := context.Background()

	csv := "ID,Name,Genres\n" +
		"1,One,Drama\n" +
		"2,Two,Drama\n" +
		"3,Three,Crime\n"

	// Occupy show 2 so its insert fails with a primary key violation
	// inside the batch rather than being skipped.
	failing := &skipBlindSession{Store: store, blind: 2}
	seed, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, seed.InsertShow(ctx, catalog.ShowParams{ID: 2}))
	require.NoError(t, seed.Commit(ctx))

	res, err := New(failing, config.ImportConfig{BatchSize: 10}, nil).Run(ctx, records(t, csv))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Discarded)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "DB001", res.Failures[0].Code)

	_, err = store.GetShow(ctx, 1)
	assert.True(t, errors.Is(err, catalog.ErrShowNotFound), "show 1 was in the rolled back batch")
	_, err = store.GetShow(ctx, 3)
	assert.NoError(t, err)
}

// skipBlindSession hides one show from the duplicate check so the insert
// reaches PostgreSQL and violates the primary key.
type skipBlindSession struct {
	*catalog.Store
	blind int64
}

func (s *skipBlindSession) Begin(ctx context.Context) (catalog.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &skipBlindTx{Tx: tx, blind: s.blind}, nil
}

type skipBlindTx struct {
	catalog.Tx
	blind int64
}

func (t *skipBlindTx) ShowExists(ctx context.Context, id int64) (bool, error) {
	if id == t.blind {
		return false, nil
	}
	return t.Tx.ShowExists(ctx, id)
}

func TestIntegration_ResetEmptiesCatalog(t *testing.T) {
	store := startCatalog(t)
	ctx := context.Background()

	_, err := New(store, config.ImportConfig{}, nil).Run(ctx, records(t, "ID,Name,Genres\n5,Five,Drama\n"))
	require.NoError(t, err)

	before, err := admin.ResetCatalog(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, int64(1), before.Get("show_genres"))

	after, err := store.Counts(ctx)
	require.NoError(t, err)
	for _, c := range after {
		assert.Zero(t, c.Rows, c.Table)
	}

	// Sequences restart, so a reimport assigns the same entity ids.
	_, err = New(store, config.ImportConfig{}, nil).Run(ctx, records(t, "ID,Name,Genres\n5,Five,Drama\n"))
	require.NoError(t, err)
	detail, err := store.GetShow(ctx, 5)
	require.NoError(t, err)
	require.Len(t, detail.Genres, 1)
	assert.Equal(t, int64(1), detail.Genres[0].ID)
}
