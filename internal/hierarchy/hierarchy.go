// Package hierarchy computes parent/child projections over the task
// graph. Every operation loads the full (id, parentId) edge set once and
// walks it in memory, rather than issuing one query per level, so deep
// trees stay sub-linear in wall time (spec §4.3).
package hierarchy

import (
	"context"
	"sort"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store storage.TaskStore
}

func New(store storage.TaskStore) *Service {
	return &Service{store: store}
}

func (s *Service) GetChildren(ctx context.Context, taskID string) ([]string, error) {
	return s.store.ListChildren(ctx, taskID)
}

// GetAncestors returns ancestor ids ordered leaf (closest parent) to root.
func (s *Service) GetAncestors(ctx context.Context, taskID string) ([]string, error) {
	parents, err := s.store.AllParents(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := map[string]bool{taskID: true}
	cur := taskID
	for {
		parent, ok := parents[cur]
		if !ok || seen[parent] {
			break
		}
		out = append(out, parent)
		seen[parent] = true
		cur = parent
	}
	return out, nil
}

func (s *Service) GetDepth(ctx context.Context, taskID string) (int, error) {
	ancestors, err := s.GetAncestors(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return len(ancestors), nil
}

// GetRoots returns every task id with no parent.
func (s *Service) GetRoots(ctx context.Context) ([]string, error) {
	tasks, err := s.store.ListTasks(ctx, types.TaskFilter{})
	if err != nil {
		return nil, err
	}
	var roots []string
	for _, t := range tasks {
		if t.ParentID == nil {
			roots = append(roots, t.ID)
		}
	}
	sort.Strings(roots)
	return roots, nil
}

// GetTree builds a value tree rooted at taskID in one bulk pass over all
// tasks. maxDepth <= 0 means unbounded.
func (s *Service) GetTree(ctx context.Context, taskID string, maxDepth int) (*types.Tree, error) {
	tasks, err := s.store.ListTasks(ctx, types.TaskFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Task, len(tasks))
	childrenOf := map[string][]string{}
	for _, t := range tasks {
		byID[t.ID] = t
		if t.ParentID != nil {
			childrenOf[*t.ParentID] = append(childrenOf[*t.ParentID], t.ID)
		}
	}
	for k := range childrenOf {
		sort.Strings(childrenOf[k])
	}
	var build func(id string, depth int) *types.Tree
	build = func(id string, depth int) *types.Tree {
		t, ok := byID[id]
		if !ok {
			return nil
		}
		node := &types.Tree{Task: *t}
		if maxDepth > 0 && depth >= maxDepth {
			return node
		}
		for _, childID := range childrenOf[id] {
			if child := build(childID, depth+1); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	}
	return build(taskID, 0), nil
}
