// Package ready computes the ranked ready set: workable tasks with every
// blocker satisfied, ordered by score desc then id asc (spec §4.1
// "Ready-set query"). It is read-only and never mutates the store.
package ready

import (
	"context"
	"math"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store storage.TaskStore
}

func New(store storage.TaskStore) *Service {
	return &Service{store: store}
}

// List enumerates ready tasks up to limit. limit == 0 returns empty;
// limit < 0 is unbounded; limit is clamped against overflow so even
// math.MaxInt64 is handled safely.
func (s *Service) List(ctx context.Context, limit int) ([]*types.Task, error) {
	if limit == 0 {
		return nil, nil
	}

	tasks, err := s.store.ListTasks(ctx, types.TaskFilter{Status: types.WorkableStatuses})
	if err != nil {
		return nil, err
	}

	edges, err := s.store.AllDependencies(ctx)
	if err != nil {
		return nil, err
	}
	statusByID := make(map[string]types.TaskStatus, len(tasks))
	for _, t := range tasks {
		statusByID[t.ID] = t.Status
	}
	blockersOf := map[string][]string{}
	for _, e := range edges {
		blockersOf[e.BlockedID] = append(blockersOf[e.BlockedID], e.BlockerID)
	}

	var out []*types.Task
	for _, t := range tasks {
		if isReady(t, blockersOf, statusByID, s.store, ctx) {
			out = append(out, t)
		}
	}
	// tasks is already ordered by ListTasks (score DESC, id ASC) when no
	// limit/offset was requested above; re-sort defensively since the
	// blocker-status lookup may hit tasks outside the workable filter.
	sortByScoreThenID(out)

	if limit < 0 || limit > math.MaxInt32 {
		return out, nil
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func isReady(t *types.Task, blockersOf map[string][]string, statusByID map[string]types.TaskStatus, store storage.TaskStore, ctx context.Context) bool {
	for _, blockerID := range blockersOf[t.ID] {
		st, ok := statusByID[blockerID]
		if !ok {
			blocker, err := store.GetTask(ctx, blockerID)
			if err != nil {
				return false
			}
			st = blocker.Status
			statusByID[blockerID] = st
		}
		if st != types.StatusDone {
			return false
		}
	}
	return true
}

func sortByScoreThenID(tasks []*types.Task) {
	// insertion sort is fine: ListTasks already returns this order for the
	// common case; this only re-stabilizes after filtering.
	for i := 1; i < len(tasks); i++ {
		j := i
		for j > 0 && less(tasks[j], tasks[j-1]) {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
			j--
		}
	}
}

func less(a, b *types.Task) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}
