package data

import (
	"context"
	"testing"

	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("alphavote"),
		postgres.WithUsername("alphavote"),
		postgres.WithPassword("alphavote"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgres_RoundTrip(t *testing.T) {
	dsn := setupPostgres(t)

	require.NoError(t, Init(dsn))
	require.NoError(t, Init(dsn), "schema creation is idempotent")

	db, err := GetDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	assert.True(t, isPostgres(db))
	assert.Equal(t, "SELECT $1, $2", rebind(db, "SELECT ?, ?"))

	e, err := SaveElection(db, "board", "pg", testSet(), false)
	require.NoError(t, err)

	set, err := GetBallots(db, e.ID)
	require.NoError(t, err)
	assert.Equal(t, testSet().Total(), set.Total())

	cfg := election.DefaultConfig(1)
	cfg.MaxAlpha = election.Infinity
	res, err := election.Run(set, cfg)
	require.NoError(t, err)

	_, err = SaveResult(db, e.ID, cfg, res)
	require.NoError(t, err)

	list, err := ListResults(db, e.ID, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].MaxAlpha)

	require.NoError(t, DeleteElection(db, "board"))
	_, err = GetElection(db, "board")
	assert.ErrorIs(t, err, ErrNotFound)
}
