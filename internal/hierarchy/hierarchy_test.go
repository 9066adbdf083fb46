package hierarchy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/hierarchy"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/testutil"
)

func TestGetAncestors_OrderedLeafToRoot(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	hier := hierarchy.New(store)
	ctx := context.Background()

	root, err := tasks.Create(ctx, task.CreateInput{Title: "root", Seed: "root"})
	require.NoError(t, err)
	mid, err := tasks.Create(ctx, task.CreateInput{Title: "mid", ParentID: &root.ID, Seed: "mid"})
	require.NoError(t, err)
	leaf, err := tasks.Create(ctx, task.CreateInput{Title: "leaf", ParentID: &mid.ID, Seed: "leaf"})
	require.NoError(t, err)

	ancestors, err := hier.GetAncestors(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{mid.ID, root.ID}, ancestors)

	depth, err := hier.GetDepth(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
}

func TestGetTree_RespectsMaxDepth(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	hier := hierarchy.New(store)
	ctx := context.Background()

	root, err := tasks.Create(ctx, task.CreateInput{Title: "root", Seed: "r"})
	require.NoError(t, err)
	child, err := tasks.Create(ctx, task.CreateInput{Title: "child", ParentID: &root.ID, Seed: "c"})
	require.NoError(t, err)
	_, err = tasks.Create(ctx, task.CreateInput{Title: "grandchild", ParentID: &child.ID, Seed: "gc"})
	require.NoError(t, err)

	tree, err := hier.GetTree(ctx, root.ID, 1)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Empty(t, tree.Children[0].Children, "depth limit of 1 must not include grandchild")
}

func TestGetRoots_OnlyParentlessTasks(t *testing.T) {
	store := testutil.OpenTestStore(t)
	tasks := task.New(store)
	hier := hierarchy.New(store)
	ctx := context.Background()

	root, err := tasks.Create(ctx, task.CreateInput{Title: "root", Seed: "root2"})
	require.NoError(t, err)
	_, err = tasks.Create(ctx, task.CreateInput{Title: "child", ParentID: &root.ID, Seed: "child2"})
	require.NoError(t, err)

	roots, err := hier.GetRoots(ctx)
	require.NoError(t, err)
	assert.Contains(t, roots, root.ID)
}
