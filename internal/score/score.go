// Package score computes each task's derived scheduling priority on top
// of its raw, user-assigned score (spec §4.4). Ready ordering uses the
// raw Task.Score column; this package only backs the UI's "explain
// ordering" breakdown view.
package score

import (
	"context"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/types"
)

// Coefficients are implementation-chosen constants (spec §9 open
// question): monotone non-decreasing and saturating/capped so a task
// with many dependents or deep ancestry doesn't dominate ordering
// unboundedly.
const (
	blockingBonusPerDependent = 3
	blockingBonusCap          = 30
	depthPenaltyPerLevel      = 2
	depthPenaltyCap           = 20
	blockedPenaltyPerBlocker  = 5
	blockedPenaltyCap         = 40
)

type Service struct {
	store storage.TaskStore
}

func New(store storage.TaskStore) *Service {
	return &Service{store: store}
}

func blockingBonus(transitivelyBlocks int) int {
	v := transitivelyBlocks * blockingBonusPerDependent
	if v > blockingBonusCap {
		return blockingBonusCap
	}
	return v
}

func depthPenalty(depth int) int {
	v := depth * depthPenaltyPerLevel
	if v > depthPenaltyCap {
		return depthPenaltyCap
	}
	return v
}

func blockedPenalty(unsatisfiedBlockers int) int {
	v := unsatisfiedBlockers * blockedPenaltyPerBlocker
	if v > blockedPenaltyCap {
		return blockedPenaltyCap
	}
	return v
}

// GetBreakdownById decomposes task id's final score into its four
// additive components: finalScore = base + blockingBonus - depthPenalty - blockedPenalty.
func (s *Service) GetBreakdownById(ctx context.Context, taskID string) (*types.ScoreBreakdown, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	transitivelyBlocks, err := countTransitivelyBlocked(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}

	depth, err := ancestorDepth(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}

	blockers, err := s.store.ListBlockers(ctx, taskID)
	if err != nil {
		return nil, err
	}
	unsatisfied := 0
	for _, blockerID := range blockers {
		blocker, err := s.store.GetTask(ctx, blockerID)
		if err != nil {
			continue // a dangling edge shouldn't fail the whole breakdown
		}
		if blocker.Status != types.StatusDone {
			unsatisfied++
		}
	}

	bb := blockingBonus(transitivelyBlocks)
	dp := depthPenalty(depth)
	bp := blockedPenalty(unsatisfied)

	return &types.ScoreBreakdown{
		TaskID:         taskID,
		BaseScore:      task.Score,
		BlockingBonus:  bb,
		DepthPenalty:   dp,
		BlockedPenalty: bp,
		FinalScore:     task.Score + bb - dp - bp,
	}, nil
}

// countTransitivelyBlocked counts every task transitively unblocked by
// taskID completing, i.e. the size of the forward reachable set over
// "blocks" edges.
func countTransitivelyBlocked(ctx context.Context, store storage.TaskStore, taskID string) (int, error) {
	edges, err := store.AllDependencies(ctx)
	if err != nil {
		return 0, err
	}
	adjacency := map[string][]string{}
	for _, e := range edges {
		adjacency[e.BlockerID] = append(adjacency[e.BlockerID], e.BlockedID)
	}
	visited := map[string]bool{}
	queue := adjacency[taskID]
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		queue = append(queue, adjacency[cur]...)
	}
	return len(visited), nil
}

func ancestorDepth(ctx context.Context, store storage.TaskStore, taskID string) (int, error) {
	parents, err := store.AllParents(ctx)
	if err != nil {
		return 0, err
	}
	depth := 0
	seen := map[string]bool{taskID: true}
	cur := taskID
	for {
		parent, ok := parents[cur]
		if !ok || seen[parent] {
			break
		}
		depth++
		seen[parent] = true
		cur = parent
	}
	return depth, nil
}
