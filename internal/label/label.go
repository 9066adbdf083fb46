// Package label implements case-insensitive unique labels and their
// many-to-many assignment to tasks (spec §3 TaskLabel/LabelAssignment).
package label

import (
	"context"
	"strings"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const defaultColor = "#888888"

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Upsert(ctx context.Context, name, color string) (*types.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &txerr.ValidationError{Reason: "label name must not be empty"}
	}
	if color == "" {
		color = defaultColor
	}
	return s.store.UpsertLabel(ctx, name, color)
}

func (s *Service) List(ctx context.Context) ([]*types.Label, error) {
	return s.store.ListLabels(ctx)
}

func (s *Service) Attach(ctx context.Context, taskID string, labelID int64) error {
	return s.store.AttachLabel(ctx, taskID, labelID)
}

func (s *Service) Detach(ctx context.Context, taskID string, labelID int64) error {
	return s.store.DetachLabel(ctx, taskID, labelID)
}

func (s *Service) ForTask(ctx context.Context, taskID string) ([]*types.Label, error) {
	return s.store.LabelsForTask(ctx, taskID)
}
