package dependency_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/dependency"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/txerr"
)

func setup(t *testing.T) (*dependency.Service, *task.Service) {
	store := testutil.OpenTestStore(t)
	return dependency.New(store), task.New(store)
}

func TestAddBlocker_RejectsSelfBlock(t *testing.T) {
	deps, tasks := setup(t)
	ctx := context.Background()
	a, err := tasks.Create(ctx, task.CreateInput{Title: "a"})
	require.NoError(t, err)

	err = deps.AddBlocker(ctx, a.ID, a.ID)
	var verr *txerr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAddBlocker_RejectsDirectCycle(t *testing.T) {
	deps, tasks := setup(t)
	ctx := context.Background()
	a, err := tasks.Create(ctx, task.CreateInput{Title: "a"})
	require.NoError(t, err)
	b, err := tasks.Create(ctx, task.CreateInput{Title: "b"})
	require.NoError(t, err)

	require.NoError(t, deps.AddBlocker(ctx, b.ID, a.ID)) // a blocks b
	err = deps.AddBlocker(ctx, a.ID, b.ID)                // b blocking a would close a<->b cycle
	var cyc *txerr.CircularDependencyError
	require.ErrorAs(t, err, &cyc)
}

func TestRemoveBlocker_IdempotentTwice(t *testing.T) {
	deps, tasks := setup(t)
	ctx := context.Background()
	a, err := tasks.Create(ctx, task.CreateInput{Title: "a"})
	require.NoError(t, err)
	b, err := tasks.Create(ctx, task.CreateInput{Title: "b"})
	require.NoError(t, err)
	require.NoError(t, deps.AddBlocker(ctx, b.ID, a.ID))

	require.NoError(t, deps.RemoveBlocker(ctx, b.ID, a.ID))
	require.NoError(t, deps.RemoveBlocker(ctx, b.ID, a.ID)) // succeeds again, no-op
}
