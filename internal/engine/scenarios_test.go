// Package engine holds cross-service integration tests exercising the
// literal end-to-end scenarios and invariants of the engine as a whole,
// rather than any one service in isolation.
package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/attempt"
	"github.com/jamesaphoenix/tx/internal/claim"
	"github.com/jamesaphoenix/tx/internal/dependency"
	"github.com/jamesaphoenix/tx/internal/learning"
	"github.com/jamesaphoenix/tx/internal/orchestrator"
	"github.com/jamesaphoenix/tx/internal/ready"
	"github.com/jamesaphoenix/tx/internal/retry"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
	"github.com/jamesaphoenix/tx/internal/worker"
)

// scenario 1: claim contention.
func TestScenario_ClaimContention(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	tasks := task.New(store)
	workers := worker.New(store)
	claims := claim.New(store)
	orch := orchestrator.New(store)

	_, err := orch.Start(ctx, orchestrator.StartConfig{WorkerPoolSize: 10})
	require.NoError(t, err)

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "T1", Seed: "t1"})
	require.NoError(t, err)
	tk, err = tasks.ForceStatus(ctx, tk.ID, types.StatusReady)
	require.NoError(t, err)

	w1, err := workers.Register(ctx, worker.RegisterInput{Name: "W1", WorkerID: "W1"})
	require.NoError(t, err)
	w2, err := workers.Register(ctx, worker.RegisterInput{Name: "W2", WorkerID: "W2"})
	require.NoError(t, err)

	c1, err1 := claims.Claim(ctx, tk.ID, w1.ID)
	c2, err2 := claims.Claim(ctx, tk.ID, w2.ID)

	// Exactly one succeeds.
	successes := 0
	var winner string
	if err1 == nil {
		successes++
		winner = w1.ID
		assert.Equal(t, 0, c1.RenewedCount)
	}
	if err2 == nil {
		successes++
		winner = w2.ID
		assert.Equal(t, 0, c2.RenewedCount)
	}
	require.Equal(t, 1, successes)

	loserErr := err1
	if err1 == nil {
		loserErr = err2
	}
	var already *txerr.AlreadyClaimedError
	require.ErrorAs(t, loserErr, &already)
	assert.Equal(t, winner, already.ClaimedByWorkerID)

	active, err := claims.GetActiveClaim(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, active.WorkerID)
}

// scenario 2: deep cycle rejection.
func TestScenario_DeepCycleRejection(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	tasks := task.New(store)
	deps := dependency.New(store)

	ids := make([]string, 100)
	for i := 0; i < 100; i++ {
		tk, err := tasks.Create(ctx, task.CreateInput{Title: "t", Seed: time.Now().Format(time.RFC3339Nano) + string(rune(i))})
		require.NoError(t, err)
		ids[i] = tk.ID
	}
	for i := 0; i < 99; i++ {
		require.NoError(t, deps.AddBlocker(ctx, ids[i+1], ids[i])) // ids[i] blocks ids[i+1]
	}

	err := deps.AddBlocker(ctx, ids[0], ids[99]) // ids[99] blocking ids[0] would close the t0->...->t99 chain
	var cyc *txerr.CircularDependencyError
	require.ErrorAs(t, err, &cyc)
}

// scenario 3: expired claim with blocker.
func TestScenario_ExpiredClaimWithBlocker(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	tasks := task.New(store)
	orch := orchestrator.New(store)

	_, err := orch.Start(ctx, orchestrator.StartConfig{})
	require.NoError(t, err)

	t2, err := tasks.Create(ctx, task.CreateInput{Title: "T2", Seed: "t2"})
	require.NoError(t, err)
	t2, err = tasks.ForceStatus(ctx, t2.ID, types.StatusReady)
	require.NoError(t, err)

	t1, err := tasks.Create(ctx, task.CreateInput{Title: "T1", Seed: "t1"})
	require.NoError(t, err)
	t1, err = tasks.ForceStatus(ctx, t1.ID, types.StatusActive)
	require.NoError(t, err)

	require.NoError(t, store.AddDependency(ctx, t2.ID, t1.ID)) // T2 blocks T1

	require.NoError(t, store.InsertWorker(ctx, &types.Worker{
		ID: "W", Name: "W", Status: types.WorkerBusy, LastHeartbeatAt: time.Now(), CurrentTaskID: &t1.ID,
	}))

	_, ok, err := store.InsertClaimIfNone(ctx, &types.Claim{
		TaskID: t1.ID, WorkerID: "W", ClaimedAt: time.Now().Add(-time.Hour),
		LeaseExpiresAt: time.Now().Add(-60 * time.Second), Status: types.ClaimActive,
	})
	require.NoError(t, err)
	require.True(t, ok)

	result, err := orch.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredClaimsReleased)

	got, err := tasks.Get(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusBlocked, got.Status)
}

// scenario 4: orphaned task with done blocker.
func TestScenario_OrphanedTaskWithDoneBlocker(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	tasks := task.New(store)
	orch := orchestrator.New(store)
	_, err := orch.Start(ctx, orchestrator.StartConfig{})
	require.NoError(t, err)

	t2, err := tasks.Create(ctx, task.CreateInput{Title: "T2", Seed: "t2o"})
	require.NoError(t, err)
	t2, err = tasks.ForceStatus(ctx, t2.ID, types.StatusDone)
	require.NoError(t, err)

	t1, err := tasks.Create(ctx, task.CreateInput{Title: "T1", Seed: "t1o"})
	require.NoError(t, err)
	t1, err = tasks.ForceStatus(ctx, t1.ID, types.StatusActive)
	require.NoError(t, err)

	require.NoError(t, store.AddDependency(ctx, t2.ID, t1.ID))

	result, err := orch.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrphanedTasksRecovered)

	got, err := tasks.Get(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, got.Status)
}

// scenario 5: auto-complete parent, and forceStatus doesn't propagate.
func TestScenario_AutoCompleteParent(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	tasks := task.New(store)

	p, err := tasks.Create(ctx, task.CreateInput{Title: "P", Seed: "p"})
	require.NoError(t, err)
	p, err = tasks.ForceStatus(ctx, p.ID, types.StatusActive)
	require.NoError(t, err)

	childIDs := make([]string, 3)
	for i, name := range []string{"C1", "C2", "C3"} {
		c, err := tasks.Create(ctx, task.CreateInput{Title: name, ParentID: &p.ID, Seed: name})
		require.NoError(t, err)
		c, err = tasks.ForceStatus(ctx, c.ID, types.StatusActive)
		require.NoError(t, err)
		childIDs[i] = c.ID
	}

	for _, id := range childIDs {
		st := types.StatusDone
		_, err := tasks.Update(ctx, id, task.UpdateInput{Status: &st})
		require.NoError(t, err)
	}

	got, err := tasks.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, got.Status)

	_, err = tasks.ForceStatus(ctx, childIDs[2], types.StatusBacklog)
	require.NoError(t, err)

	got, err = tasks.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, got.Status, "forceStatus on a child must not un-complete the parent")
}

// scenario 6: learning relevance ordering favors recency.
func TestScenario_LearningRelevanceOrdering(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetConfig(ctx, "learning.recency_weight", "0.5"))

	learnings := learning.New(store, nil)
	content := "circuit breaker tuning for flaky dependency checks"

	old, err := learnings.Create(ctx, &types.Learning{Content: content, CreatedAt: time.Now().Add(-25 * 24 * time.Hour)})
	require.NoError(t, err)
	recent, err := learnings.Create(ctx, &types.Learning{Content: content, CreatedAt: time.Now()})
	require.NoError(t, err)

	results, err := learnings.Search(ctx, "circuit breaker tuning", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var oldRelevance, recentRelevance float64
	for _, r := range results {
		if r.ID == old.ID {
			oldRelevance = r.Relevance
		}
		if r.ID == recent.ID {
			recentRelevance = r.Relevance
		}
	}
	assert.Greater(t, recentRelevance, oldRelevance, "the more recent duplicate must score strictly higher")
}

// scenario 7: retry circuit.
func TestScenario_RetryCircuit(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	tasks := task.New(store)
	workers := worker.New(store)
	claims := claim.New(store)
	attempts := attempt.New(store)
	orch := orchestrator.New(store)
	readySvc := ready.New(store)

	_, err := orch.Start(ctx, orchestrator.StartConfig{})
	require.NoError(t, err)

	tk, err := tasks.Create(ctx, task.CreateInput{Title: "T1", Seed: "retry"})
	require.NoError(t, err)
	tk, err = tasks.ForceStatus(ctx, tk.ID, types.StatusReady)
	require.NoError(t, err)

	w, err := workers.Register(ctx, worker.RegisterInput{Name: "W", WorkerID: "Wretry"})
	require.NoError(t, err)

	var decision retry.Decision
	for i := 0; i < retry.MaxRetries; i++ {
		_, err := claims.Claim(ctx, tk.ID, w.ID)
		require.NoError(t, err)
		_, err = attempts.Create(ctx, tk.ID, "a", types.AttemptFailed, "boom")
		require.NoError(t, err)
		require.NoError(t, claims.Release(ctx, tk.ID, w.ID))

		backlog := types.StatusBacklog
		_, err = tasks.ForceStatus(ctx, tk.ID, backlog)
		require.NoError(t, err)
		// reset to ready for the next claim attempt except the last time
		if i < retry.MaxRetries-1 {
			_, err = tasks.ForceStatus(ctx, tk.ID, types.StatusReady)
			require.NoError(t, err)
		}

		failedCount, err := attempts.GetFailedCount(ctx, tk.ID)
		require.NoError(t, err)
		decision = retry.Next(failedCount)
	}

	assert.Equal(t, retry.GiveUpBlocked, decision)
	_, err = tasks.ForceStatus(ctx, tk.ID, types.StatusBlocked)
	require.NoError(t, err)

	readyList, err := readySvc.List(ctx, -1)
	require.NoError(t, err)
	for _, r := range readyList {
		assert.NotEqual(t, tk.ID, r.ID)
	}
}
