package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/storage/sqlite"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/types"
)

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dir := testutil.TempDirInMemory(t)
	path := filepath.Join(dir, "tx.db")
	ctx := context.Background()

	s1, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer s2.Close()

	st, err := s2.GetOrchestratorState(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OrchestratorStopped, st.Status)
}

func TestListTasks_SearchEscapesLikeWildcards(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, &types.Task{ID: "tx-1", Title: "100% done_deal", Status: types.StatusBacklog}))
	require.NoError(t, store.CreateTask(ctx, &types.Task{ID: "tx-2", Title: "unrelated task", Status: types.StatusBacklog}))

	got, err := store.ListTasks(ctx, types.TaskFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tx-1", got[0].ID)
}

func TestAllDependencies_ReflectsAddedEdges(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, &types.Task{ID: "tx-a", Title: "a", Status: types.StatusBacklog}))
	require.NoError(t, store.CreateTask(ctx, &types.Task{ID: "tx-b", Title: "b", Status: types.StatusBacklog}))
	require.NoError(t, store.AddDependency(ctx, "tx-b", "tx-a")) // tx-b blocks tx-a

	edges, err := store.AllDependencies(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "tx-b", edges[0].BlockerID)
	assert.Equal(t, "tx-a", edges[0].BlockedID)
}

func TestAllParents_ReflectsParentID(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	parentID := "tx-parent"
	require.NoError(t, store.CreateTask(ctx, &types.Task{ID: parentID, Title: "p", Status: types.StatusBacklog}))
	require.NoError(t, store.CreateTask(ctx, &types.Task{ID: "tx-child", Title: "c", Status: types.StatusBacklog, ParentID: &parentID}))

	parents, err := store.AllParents(ctx)
	require.NoError(t, err)
	assert.Equal(t, parentID, parents["tx-child"])
}
