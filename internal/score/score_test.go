package score_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/dependency"
	"github.com/jamesaphoenix/tx/internal/score"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/types"
)

func TestGetBreakdownById_AdditiveComponents(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	deps := dependency.New(store)
	scores := score.New(store)
	ctx := context.Background()

	root, err := tasks.Create(ctx, task.CreateInput{Title: "root", ParentID: nil, Score: 10, Seed: "root"})
	require.NoError(t, err)
	parent, err := tasks.Create(ctx, task.CreateInput{Title: "parent", ParentID: &root.ID, Score: 10, Seed: "parent"})
	require.NoError(t, err)
	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t", ParentID: &parent.ID, Score: 10, Seed: "t"})
	require.NoError(t, err)

	blocker, err := tasks.Create(ctx, task.CreateInput{Title: "blocker", Score: 1, Seed: "blocker"})
	require.NoError(t, err)
	require.NoError(t, deps.AddBlocker(ctx, tk.ID, blocker.ID)) // blocker blocks tk

	dependent, err := tasks.Create(ctx, task.CreateInput{Title: "dependent", Score: 1, Seed: "dependent"})
	require.NoError(t, err)
	require.NoError(t, deps.AddBlocker(ctx, dependent.ID, tk.ID)) // tk blocks dependent

	bd, err := scores.GetBreakdownById(ctx, tk.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, bd.BaseScore)
	assert.Equal(t, 3, bd.BlockingBonus)  // 1 transitively-blocked dependent * 3
	assert.Equal(t, 4, bd.DepthPenalty)   // depth 2 * 2
	assert.Equal(t, 5, bd.BlockedPenalty) // 1 unsatisfied blocker * 5
	assert.Equal(t, bd.BaseScore+bd.BlockingBonus-bd.DepthPenalty-bd.BlockedPenalty, bd.FinalScore)
}

func TestGetBreakdownById_BlockedPenaltyIgnoresDoneBlockers(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	deps := dependency.New(store)
	scores := score.New(store)
	ctx := context.Background()

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t", Score: 5, Seed: "t2"})
	require.NoError(t, err)
	blocker, err := tasks.Create(ctx, task.CreateInput{Title: "blocker", Score: 1, Seed: "blocker2"})
	require.NoError(t, err)
	require.NoError(t, deps.AddBlocker(ctx, tk.ID, blocker.ID))

	_, err = tasks.ForceStatus(ctx, blocker.ID, types.StatusDone)
	require.NoError(t, err)

	bd, err := scores.GetBreakdownById(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bd.BlockedPenalty, "a done blocker no longer penalizes the blocked task")
}

func TestGetBreakdownById_CapsSaturate(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	deps := dependency.New(store)
	scores := score.New(store)
	ctx := context.Background()

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t", Score: 0, Seed: "capped"})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		dependent, err := tasks.Create(ctx, task.CreateInput{Title: "d", Score: 0, Seed: string(rune('a' + i))})
		require.NoError(t, err)
		require.NoError(t, deps.AddBlocker(ctx, dependent.ID, tk.ID))
	}

	bd, err := scores.GetBreakdownById(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, bd.BlockingBonus, "blocking bonus must saturate at its cap")
}
