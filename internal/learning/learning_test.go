package learning_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/learning"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/types"
)

func TestSearch_RecencyBoostsNewerDuplicateHigher(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := learning.New(store, nil)
	ctx := context.Background()
	require.NoError(t, store.SetConfig(ctx, "learning.recency_weight", "0.5"))

	older, err := svc.Create(ctx, &types.Learning{
		Content:   "sqlite busy-timeout retry circuit pattern",
		CreatedAt: time.Now().Add(-25 * 24 * time.Hour),
	})
	require.NoError(t, err)
	newer, err := svc.Create(ctx, &types.Learning{
		Content:   "sqlite busy-timeout retry circuit pattern",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	results, err := svc.Search(ctx, "busy-timeout retry circuit", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var olderRank, newerRank = -1, -1
	for i, r := range results {
		if r.ID == older.ID {
			olderRank = i
		}
		if r.ID == newer.ID {
			newerRank = i
		}
	}
	require.NotEqual(t, -1, olderRank)
	require.NotEqual(t, -1, newerRank)
	assert.Less(t, newerRank, olderRank, "the more recent duplicate must rank strictly higher")
}

func TestSearch_EmptyQueryReturnsNoResults(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := learning.New(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &types.Learning{Content: "anything at all"})
	require.NoError(t, err)

	results, err := svc.Search(ctx, "   ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_LimitZeroReturnsNoResults(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := learning.New(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &types.Learning{Content: "retry circuit pattern"})
	require.NoError(t, err)

	results, err := svc.Search(ctx, "retry circuit", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpdateOutcome_ReflectedInNextSearch(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := learning.New(store, nil)
	ctx := context.Background()

	l, err := svc.Create(ctx, &types.Learning{Content: "worker pool sizing heuristic"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateOutcome(ctx, l.ID, 0.9))

	got, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OutcomeScore)
	assert.InDelta(t, 0.9, *got.OutcomeScore, 1e-9)

	results, err := svc.Search(ctx, "worker pool sizing", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].OutcomeScore)
	assert.InDelta(t, 0.9, *results[0].OutcomeScore, 1e-9)
}
