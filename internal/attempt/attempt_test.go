package attempt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/attempt"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func TestCreate_RejectsInvalidOutcome(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	attempts := attempt.New(store)
	ctx := context.Background()

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t"})
	require.NoError(t, err)

	_, err = attempts.Create(ctx, tk.ID, "approach", types.AttemptOutcome("bogus"), "")
	var verr *txerr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreate_RejectsUnknownTask(t *testing.T) {
	store := testutil.OpenTestStore(t)
	attempts := attempt.New(store)

	_, err := attempts.Create(context.Background(), "nonexistent", "approach", types.AttemptFailed, "boom")
	require.True(t, txerr.IsNotFound(err, "task"))
}

func TestGetFailedCount_AccumulatesAcrossAttempts(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	attempts := attempt.New(store)
	ctx := context.Background()

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "t"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := attempts.Create(ctx, tk.ID, "approach", types.AttemptFailed, "boom")
		require.NoError(t, err)
	}
	_, err = attempts.Create(ctx, tk.ID, "approach", types.AttemptSucceeded, "")
	require.NoError(t, err)

	count, err := attempts.GetFailedCount(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetFailedCountsForTasks_SparseResult(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	attempts := attempt.New(store)
	ctx := context.Background()

	withFailure, err := tasks.Create(ctx, task.CreateInput{Title: "a"})
	require.NoError(t, err)
	noFailure, err := tasks.Create(ctx, task.CreateInput{Title: "b"})
	require.NoError(t, err)

	_, err = attempts.Create(ctx, withFailure.ID, "x", types.AttemptFailed, "boom")
	require.NoError(t, err)

	counts, err := attempts.GetFailedCountsForTasks(ctx, []string{withFailure.ID, noFailure.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[withFailure.ID])
	_, ok := counts[noFailure.ID]
	assert.False(t, ok, "tasks with zero failed attempts are omitted")
}
