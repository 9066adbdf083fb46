// Package dependency manages blocker/blocked edges over the task graph
// and guards the DAG invariant with an in-memory reachability check
// before every insert (spec §4.2).
package dependency

import (
	"context"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

// Service implements the dependency service atop a TaskStore.
type Service struct {
	store storage.TaskStore
}

func New(store storage.TaskStore) *Service {
	return &Service{store: store}
}

// AddBlocker records that blockerID blocks blockedID. Self-blocking and
// cycles are rejected before the store is touched; the store's own unique
// index guards the duplicate-edge case.
func (s *Service) AddBlocker(ctx context.Context, blockedID, blockerID string) error {
	if blockedID == blockerID {
		return &txerr.ValidationError{Reason: "a task cannot block itself"}
	}
	edges, err := s.store.AllDependencies(ctx)
	if err != nil {
		return err
	}
	if reaches(edges, blockedID, blockerID) {
		return &txerr.CircularDependencyError{BlockedID: blockedID, BlockerID: blockerID}
	}
	return s.store.AddDependency(ctx, blockerID, blockedID)
}

// RemoveBlocker is idempotent: removing an edge that doesn't exist succeeds.
func (s *Service) RemoveBlocker(ctx context.Context, blockedID, blockerID string) error {
	return s.store.RemoveDependency(ctx, blockerID, blockedID)
}

func (s *Service) ListBlockers(ctx context.Context, taskID string) ([]string, error) {
	return s.store.ListBlockers(ctx, taskID)
}

func (s *Service) ListBlocking(ctx context.Context, taskID string) ([]string, error) {
	return s.store.ListBlocking(ctx, taskID)
}

// reaches reports whether start can already reach target by following
// existing "blocks" edges forward (blockerID -> blockedID). Adding a new
// edge blockerID->blockedID would close a cycle exactly when blockedID
// already (transitively) blocks blockerID, i.e. when target is reachable
// from start=blockedID.
func reaches(edges []types.Dependency, start, target string) bool {
	if start == target {
		return true
	}
	adjacency := make(map[string][]string, len(edges))
	for _, e := range edges {
		adjacency[e.BlockerID] = append(adjacency[e.BlockerID], e.BlockedID)
	}
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			if next == target {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
