package ready_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/dependency"
	"github.com/jamesaphoenix/tx/internal/ready"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/types"
)

func TestList_LimitZeroReturnsEmpty(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	readySvc := ready.New(store)
	ctx := context.Background()

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t"})
	require.NoError(t, err)
	_, err = tasks.ForceStatus(ctx, tk.ID, types.StatusReady)
	require.NoError(t, err)

	got, err := readySvc.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestList_ExcludesBlockedByUnfinishedBlocker(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	deps := dependency.New(store)
	readySvc := ready.New(store)
	ctx := context.Background()

	blocked, err := tasks.Create(ctx, task.CreateInput{Title: "blocked", Seed: "blocked"})
	require.NoError(t, err)
	blocked, err = tasks.ForceStatus(ctx, blocked.ID, types.StatusReady)
	require.NoError(t, err)
	blocker, err := tasks.Create(ctx, task.CreateInput{Title: "blocker", Seed: "blocker"})
	require.NoError(t, err)
	require.NoError(t, deps.AddBlocker(ctx, blocked.ID, blocker.ID))

	got, err := readySvc.List(ctx, -1)
	require.NoError(t, err)
	for _, r := range got {
		assert.NotEqual(t, blocked.ID, r.ID)
	}
}

func TestList_OrdersByScoreDescThenIDAsc(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	readySvc := ready.New(store)
	ctx := context.Background()

	low, err := tasks.Create(ctx, task.CreateInput{Title: "low", Score: 1, Seed: "low"})
	require.NoError(t, err)
	_, err = tasks.ForceStatus(ctx, low.ID, types.StatusReady)
	require.NoError(t, err)
	high, err := tasks.Create(ctx, task.CreateInput{Title: "high", Score: 5, Seed: "high"})
	require.NoError(t, err)
	_, err = tasks.ForceStatus(ctx, high.ID, types.StatusReady)
	require.NoError(t, err)

	got, err := readySvc.List(ctx, -1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, high.ID, got[0].ID)
	assert.Equal(t, low.ID, got[1].ID)
}

func TestList_UnboundedLimitHandlesMaxInt(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	readySvc := ready.New(store)
	ctx := context.Background()

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t"})
	require.NoError(t, err)
	_, err = tasks.ForceStatus(ctx, tk.ID, types.StatusReady)
	require.NoError(t, err)

	got, err := readySvc.List(ctx, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
