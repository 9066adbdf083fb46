// Package task implements the task service: creation, partial update,
// status transitions with parent auto-completion, deletion, and the
// dependency-and-hierarchy-enriched projections used by the ready
// service and the HTTP layer (spec §4.1).
package task

import (
	"context"
	"strings"
	"time"

	"github.com/jamesaphoenix/tx/internal/export"
	"github.com/jamesaphoenix/tx/internal/idgen"
	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store storage.TaskStore
	now   func() time.Time

	exporter *export.Dispatcher
}

func New(store storage.TaskStore) *Service {
	return &Service{store: store, now: time.Now}
}

// SetExporter wires the best-effort auto-sync dispatcher (spec §5); nil
// (the default) disables export entirely without the service needing to
// know why.
func (s *Service) SetExporter(d *export.Dispatcher) { s.exporter = d }

func (s *Service) dispatchExport(ctx context.Context, t *types.Task) {
	if s.exporter == nil || t == nil {
		return
	}
	s.exporter.Dispatch(ctx, export.EntityTask, t)
}

// CreateInput is the set of user-supplied fields for Create.
type CreateInput struct {
	Title       string
	Description string
	ParentID    *string
	Score       int
	Metadata    map[string]string
	// Seed, if non-empty, makes the generated id deterministic (tests only).
	Seed string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*types.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &txerr.ValidationError{Reason: "title must not be empty"}
	}
	if in.ParentID != nil {
		if _, err := s.store.GetTask(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	id := idgen.Task()
	if in.Seed != "" {
		id = idgen.TaskFromSeed(title, in.Description, now, in.Seed)
	}

	t := &types.Task{
		ID:          id,
		Title:       title,
		Description: in.Description,
		Status:      types.StatusBacklog,
		ParentID:    in.ParentID,
		Score:       in.Score,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    in.Metadata,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.dispatchExport(ctx, t)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*types.Task, error) {
	return s.store.GetTask(ctx, id)
}

// GetWithDeps decorates a task with its dependency and hierarchy edges
// and its readiness.
func (s *Service) GetWithDeps(ctx context.Context, id string) (*types.TaskWithDeps, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	blockedBy, err := s.store.ListBlockers(ctx, id)
	if err != nil {
		return nil, err
	}
	blocks, err := s.store.ListBlocking(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.store.ListChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	ready, err := s.isReady(ctx, t, blockedBy)
	if err != nil {
		return nil, err
	}
	return &types.TaskWithDeps{
		Task:      *t,
		BlockedBy: blockedBy,
		Blocks:    blocks,
		Children:  children,
		IsReady:   ready,
	}, nil
}

// GetWithDepsBatch computes the same projection for many tasks with a
// single dependency scan and a single child scan, per spec §4.1.
func (s *Service) GetWithDepsBatch(ctx context.Context, ids []string) ([]*types.TaskWithDeps, error) {
	edges, err := s.store.AllDependencies(ctx)
	if err != nil {
		return nil, err
	}
	blockedByOf := map[string][]string{}
	blocksOf := map[string][]string{}
	for _, e := range edges {
		blockedByOf[e.BlockedID] = append(blockedByOf[e.BlockedID], e.BlockerID)
		blocksOf[e.BlockerID] = append(blocksOf[e.BlockerID], e.BlockedID)
	}
	parents, err := s.store.AllParents(ctx)
	if err != nil {
		return nil, err
	}
	childrenOf := map[string][]string{}
	for child, parent := range parents {
		childrenOf[parent] = append(childrenOf[parent], child)
	}

	statusByID := map[string]types.TaskStatus{}
	out := make([]*types.TaskWithDeps, 0, len(ids))
	for _, id := range ids {
		t, err := s.store.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		statusByID[id] = t.Status
		out = append(out, &types.TaskWithDeps{
			Task:      *t,
			BlockedBy: blockedByOf[id],
			Blocks:    blocksOf[id],
			Children:  childrenOf[id],
		})
	}

	// isReady needs each blocker's status; resolve the ones not already
	// loaded above (a blocker outside the requested batch) individually.
	for _, twd := range out {
		ready := twd.Status.Workable()
		for _, blockerID := range twd.BlockedBy {
			st, ok := statusByID[blockerID]
			if !ok {
				blocker, err := s.store.GetTask(ctx, blockerID)
				if err != nil {
					ready = false
					continue
				}
				st = blocker.Status
				statusByID[blockerID] = st
			}
			if st != types.StatusDone {
				ready = false
			}
		}
		twd.IsReady = ready
	}
	return out, nil
}

func (s *Service) isReady(ctx context.Context, t *types.Task, blockedBy []string) (bool, error) {
	if !t.Status.Workable() {
		return false, nil
	}
	for _, blockerID := range blockedBy {
		blocker, err := s.store.GetTask(ctx, blockerID)
		if err != nil {
			return false, nil
		}
		if blocker.Status != types.StatusDone {
			return false, nil
		}
	}
	return true, nil
}

// UpdateInput is a partial patch; nil fields are left unchanged. ParentID
// is a pointer-to-pointer so a caller can distinguish "leave as is" from
// "clear to nil".
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *types.TaskStatus
	ParentID    **string // pointer-to-pointer: nil = unchanged, *ParentID==nil = clear
	Score       *int
	Metadata    map[string]string
}

// Update applies a validated partial patch, enforcing the allowed-
// transition graph, completedAt bookkeeping, and parent auto-completion.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*types.Task, error) {
	current, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &txerr.ValidationError{Reason: "title must not be empty"}
		}
		patch["title"] = title
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}
	if in.Score != nil {
		patch["score"] = *in.Score
	}
	if in.Metadata != nil {
		patch["metadata"] = in.Metadata
	}
	if in.ParentID != nil {
		newParent := *in.ParentID
		if newParent != nil {
			if *newParent == id {
				return nil, &txerr.ValidationError{Reason: "a task cannot be its own parent"}
			}
			if _, err := s.store.GetTask(ctx, *newParent); err != nil {
				return nil, err
			}
		}
		patch["parent_id"] = newParent
	}

	becameDone := false
	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return nil, &txerr.ValidationError{Reason: "invalid status: " + string(next)}
		}
		if !transitionAllowed(current.Status, next) {
			return nil, &txerr.ValidationError{Reason: "illegal transition from " + string(current.Status) + " to " + string(next)}
		}
		patch["status"] = string(next)
		if next == types.StatusDone && current.Status != types.StatusDone {
			patch["completed_at"] = s.now()
			becameDone = true
		} else if next != types.StatusDone && current.Status == types.StatusDone {
			patch["completed_at"] = nil
		}
	}

	if err := s.store.UpdateTask(ctx, id, patch); err != nil {
		return nil, err
	}

	updated, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if becameDone && updated.ParentID != nil {
		if err := s.tryAutoCompleteParent(ctx, *updated.ParentID); err != nil {
			return nil, err
		}
	}

	final, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	s.dispatchExport(ctx, final)
	return final, nil
}

// tryAutoCompleteParent marks parentID done (and recurses upward) when
// every one of its children is already done.
func (s *Service) tryAutoCompleteParent(ctx context.Context, parentID string) error {
	parent, err := s.store.GetTask(ctx, parentID)
	if err != nil {
		return nil // a dangling parent reference shouldn't fail the caller's update
	}
	if parent.Status == types.StatusDone {
		return nil
	}
	children, err := s.store.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	for _, childID := range children {
		child, err := s.store.GetTask(ctx, childID)
		if err != nil {
			return err
		}
		if child.Status != types.StatusDone {
			return nil
		}
	}
	if err := s.store.UpdateTask(ctx, parentID, map[string]any{
		"status":       string(types.StatusDone),
		"completed_at": s.now(),
	}); err != nil {
		return err
	}
	if parent.ParentID != nil {
		return s.tryAutoCompleteParent(ctx, *parent.ParentID)
	}
	return nil
}

// ForceStatus bypasses the transition graph and auto-completion entirely,
// for administrative repair (used by reconciliation and operator tools).
func (s *Service) ForceStatus(ctx context.Context, id string, status types.TaskStatus) (*types.Task, error) {
	if !status.Valid() {
		return nil, &txerr.ValidationError{Reason: "invalid status: " + string(status)}
	}
	current, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{"status": string(status)}
	if status == types.StatusDone && current.CompletedAt == nil {
		patch["completed_at"] = s.now()
	} else if status != types.StatusDone && current.CompletedAt != nil {
		patch["completed_at"] = nil
	}
	if err := s.store.UpdateTask(ctx, id, patch); err != nil {
		return nil, err
	}
	final, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	s.dispatchExport(ctx, final)
	return final, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	t, getErr := s.store.GetTask(ctx, id)
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	if getErr == nil {
		s.dispatchExport(ctx, t)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

func (s *Service) Count(ctx context.Context, filter types.TaskFilter) (int, error) {
	return s.store.CountTasks(ctx, filter)
}

func (s *Service) ListWithDeps(ctx context.Context, filter types.TaskFilter) ([]*types.TaskWithDeps, error) {
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return s.GetWithDepsBatch(ctx, ids)
}
