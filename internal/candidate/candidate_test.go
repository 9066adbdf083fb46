package candidate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/candidate"
	"github.com/jamesaphoenix/tx/internal/learning"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func TestInsert_DefaultsStatusAndConfidence(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := candidate.New(store)

	c, err := svc.Insert(context.Background(), &types.Candidate{Content: "use WAL mode"})
	require.NoError(t, err)
	assert.Equal(t, types.CandidatePending, c.Status)
	assert.Equal(t, types.ConfidenceMedium, c.Confidence)
	assert.False(t, c.ExtractedAt.IsZero())
}

func TestPromote_RejectsNonPending(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := candidate.New(store)
	ctx := context.Background()

	c, err := svc.Insert(ctx, &types.Candidate{Content: "x"})
	require.NoError(t, err)
	l, err := learning.New(store, nil).Create(ctx, &types.Learning{Content: "x"})
	require.NoError(t, err)
	_, err = svc.Promote(ctx, c.ID, candidate.PromoteInput{PromotedLearningID: l.ID})
	require.NoError(t, err)

	_, err = svc.Promote(ctx, c.ID, candidate.PromoteInput{PromotedLearningID: l.ID})
	var verr *txerr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReject_RequiresReason(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := candidate.New(store)
	ctx := context.Background()

	c, err := svc.Insert(ctx, &types.Candidate{Content: "x"})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, c.ID, "")
	var verr *txerr.ValidationError
	require.ErrorAs(t, err, &verr)

	rejected, err := svc.Reject(ctx, c.ID, "duplicate of existing learning")
	require.NoError(t, err)
	assert.Equal(t, types.CandidateRejected, rejected.Status)
	assert.NotNil(t, rejected.ReviewedAt)
}

func TestFindByFilter_FiltersByStatus(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := candidate.New(store)
	ctx := context.Background()

	pending, err := svc.Insert(ctx, &types.Candidate{Content: "a"})
	require.NoError(t, err)
	rejected, err := svc.Insert(ctx, &types.Candidate{Content: "b"})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, rejected.ID, "no good")
	require.NoError(t, err)

	got, err := svc.FindByFilter(ctx, types.CandidateFilter{Status: []types.CandidateStatus{types.CandidatePending}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)
}
