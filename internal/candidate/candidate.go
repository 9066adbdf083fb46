// Package candidate implements the pending-promotion pipeline for
// extracted learnings (spec §4.10).
package candidate

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store storage.Store
	now   func() time.Time
}

func New(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Insert(ctx context.Context, c *types.Candidate) (*types.Candidate, error) {
	if c.ExtractedAt.IsZero() {
		c.ExtractedAt = s.now()
	}
	if c.Status == "" {
		c.Status = types.CandidatePending
	}
	if c.Confidence == "" {
		c.Confidence = types.ConfidenceMedium
	}
	id, err := s.store.InsertCandidate(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*types.Candidate, error) {
	return s.store.GetCandidate(ctx, id)
}

func (s *Service) FindByFilter(ctx context.Context, filter types.CandidateFilter) ([]*types.Candidate, error) {
	return s.store.ListCandidates(ctx, filter)
}

// Update applies an arbitrary field patch without touching status
// transition rules; callers that need to change status go through
// UpdateStatus instead.
func (s *Service) Update(ctx context.Context, id int64, patch map[string]any) (*types.Candidate, error) {
	if err := s.store.UpdateCandidate(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.GetCandidate(ctx, id)
}

// PromoteInput carries the created learning's id, required when moving a
// candidate to promoted.
type PromoteInput struct {
	PromotedLearningID int64
}

func (s *Service) Promote(ctx context.Context, id int64, in PromoteInput) (*types.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != types.CandidatePending {
		return nil, &txerr.ValidationError{Reason: "candidate is not pending"}
	}
	if in.PromotedLearningID <= 0 {
		return nil, &txerr.ValidationError{Reason: "promoted learning id is required"}
	}
	now := s.now()
	if err := s.store.UpdateCandidate(ctx, id, map[string]any{
		"status":               string(types.CandidatePromoted),
		"reviewed_at":          now,
		"promoted_learning_id": in.PromotedLearningID,
	}); err != nil {
		return nil, err
	}
	return s.store.GetCandidate(ctx, id)
}

func (s *Service) Reject(ctx context.Context, id int64, reason string) (*types.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != types.CandidatePending {
		return nil, &txerr.ValidationError{Reason: "candidate is not pending"}
	}
	if reason == "" {
		return nil, &txerr.ValidationError{Reason: "rejection reason is required"}
	}
	now := s.now()
	if err := s.store.UpdateCandidate(ctx, id, map[string]any{
		"status":           string(types.CandidateRejected),
		"reviewed_at":      now,
		"rejection_reason": reason,
	}); err != nil {
		return nil, err
	}
	return s.store.GetCandidate(ctx, id)
}

// Merge marks a pending candidate merged; absorbingLearningID is optional
// (nil leaves promoted_learning_id unset).
func (s *Service) Merge(ctx context.Context, id int64, absorbingLearningID *int64) (*types.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != types.CandidatePending {
		return nil, &txerr.ValidationError{Reason: "candidate is not pending"}
	}
	patch := map[string]any{
		"status":      string(types.CandidateMerged),
		"reviewed_at": s.now(),
	}
	if absorbingLearningID != nil {
		patch["promoted_learning_id"] = *absorbingLearningID
	}
	if err := s.store.UpdateCandidate(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.GetCandidate(ctx, id)
}
