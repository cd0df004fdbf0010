package data

import (
	"testing"

	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveResult(t *testing.T) {
	db := setupTestDB(t)

	e, err := SaveElection(db, "board", "test", testSet(), false)
	require.NoError(t, err)

	cfg := election.DefaultConfig(2)
	res, err := election.Run(testSet(), cfg)
	require.NoError(t, err)

	saved, err := SaveResult(db, e.ID, cfg, res)
	require.NoError(t, err)
	require.NotNil(t, saved.MaxAlpha)
	assert.Equal(t, election.DefaultMaxAlpha, *saved.MaxAlpha)

	list, err := ListResults(db, e.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, res.Slots(), got.Elected)
	assert.Equal(t, res.Tie, got.Tie)
	assert.Equal(t, 2, got.Winners)
	require.Len(t, got.Rounds, len(res.Rounds))
	assert.Equal(t, res.Rounds[0].Winner, got.Rounds[0].Winner)
	assert.Equal(t, res.Rounds[0].Candidates, got.Rounds[0].Candidates)
	assert.Equal(t, cfg.MaxAlpha, got.Config().MaxAlpha)
}

func TestSaveResult_Unbounded(t *testing.T) {
	db := setupTestDB(t)

	e, err := SaveElection(db, "board", "test", testSet(), false)
	require.NoError(t, err)

	cfg := election.DefaultConfig(1)
	cfg.MaxAlpha = election.Infinity
	res, err := election.Run(testSet(), cfg)
	require.NoError(t, err)

	_, err = SaveResult(db, e.ID, cfg, res)
	require.NoError(t, err)

	list, err := ListResults(db, e.ID, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].MaxAlpha)
	assert.Equal(t, election.Infinity, list[0].Config().MaxAlpha)
}

func TestListResults_Limit(t *testing.T) {
	db := setupTestDB(t)

	e, err := SaveElection(db, "board", "test", testSet(), false)
	require.NoError(t, err)

	cfg := election.DefaultConfig(1)
	res, err := election.Run(testSet(), cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := SaveResult(db, e.ID, cfg, res)
		require.NoError(t, err)
	}

	list, err := ListResults(db, e.ID, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = ListResults(db, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveResult_Invalid(t *testing.T) {
	db := setupTestDB(t)
	_, err := SaveResult(db, "x", election.DefaultConfig(1), nil)
	assert.Error(t, err)
}
