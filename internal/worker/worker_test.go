package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/orchestrator"
	"github.com/jamesaphoenix/tx/internal/testutil"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
	"github.com/jamesaphoenix/tx/internal/worker"
)

func TestRegister_RejectsWhenOrchestratorNotRunning(t *testing.T) {
	store := testutil.OpenTestStore(t)
	workers := worker.New(store)

	_, err := workers.Register(context.Background(), worker.RegisterInput{Name: "w"})
	var rerr *txerr.RegistrationError
	require.ErrorAs(t, err, &rerr)
}

func TestRegister_RejectsAtPoolCapacity(t *testing.T) {
	store := testutil.OpenTestStore(t)
	workers := worker.New(store)
	orch := orchestrator.New(store)
	ctx := context.Background()

	_, err := orch.Start(ctx, orchestrator.StartConfig{WorkerPoolSize: 1})
	require.NoError(t, err)

	_, err = workers.Register(ctx, worker.RegisterInput{Name: "w1", WorkerID: "w1"})
	require.NoError(t, err)

	_, err = workers.Register(ctx, worker.RegisterInput{Name: "w2", WorkerID: "w2"})
	var rerr *txerr.RegistrationError
	require.ErrorAs(t, err, &rerr)
}

func TestHeartbeat_IdempotentSameTimestamp(t *testing.T) {
	store := testutil.OpenTestStore(t)
	workers := worker.New(store)
	orch := orchestrator.New(store)
	ctx := context.Background()
	_, err := orch.Start(ctx, orchestrator.StartConfig{WorkerPoolSize: 5})
	require.NoError(t, err)

	w, err := workers.Register(ctx, worker.RegisterInput{Name: "w", WorkerID: "hb"})
	require.NoError(t, err)

	ts := time.Now()
	_, err = workers.Heartbeat(ctx, worker.HeartbeatInput{WorkerID: w.ID, Timestamp: ts, Status: types.WorkerIdle})
	require.NoError(t, err)
	got1, err := workers.Heartbeat(ctx, worker.HeartbeatInput{WorkerID: w.ID, Timestamp: ts, Status: types.WorkerIdle})
	require.NoError(t, err)
	got2, err := workers.Heartbeat(ctx, worker.HeartbeatInput{WorkerID: w.ID, Timestamp: ts, Status: types.WorkerIdle})
	require.NoError(t, err)
	assert.Equal(t, got1.LastHeartbeatAt, got2.LastHeartbeatAt)
	assert.Equal(t, got1.Status, got2.Status)
}

func TestHeartbeat_CannotResurrectDeadWorker(t *testing.T) {
	store := testutil.OpenTestStore(t)
	workers := worker.New(store)
	orch := orchestrator.New(store)
	ctx := context.Background()
	_, err := orch.Start(ctx, orchestrator.StartConfig{WorkerPoolSize: 5})
	require.NoError(t, err)

	w, err := workers.Register(ctx, worker.RegisterInput{Name: "w", WorkerID: "deadw"})
	require.NoError(t, err)
	require.NoError(t, workers.MarkDead(ctx, w.ID))

	got, err := workers.Heartbeat(ctx, worker.HeartbeatInput{WorkerID: w.ID, Timestamp: time.Now(), Status: types.WorkerIdle})
	require.NoError(t, err)
	assert.Equal(t, types.WorkerDead, got.Status, "a dead worker's status must not be revived by a stray heartbeat")
}

func TestFindDead_ExcludesAlreadyDeadAndStopping(t *testing.T) {
	store := testutil.OpenTestStore(t)
	workers := worker.New(store)
	orch := orchestrator.New(store)
	ctx := context.Background()
	_, err := orch.Start(ctx, orchestrator.StartConfig{WorkerPoolSize: 5, HeartbeatIntervalSeconds: 1})
	require.NoError(t, err)

	stale, err := workers.Register(ctx, worker.RegisterInput{Name: "stale", WorkerID: "stale"})
	require.NoError(t, err)
	_, err = workers.Heartbeat(ctx, worker.HeartbeatInput{WorkerID: stale.ID, Timestamp: time.Now().Add(-time.Hour), Status: types.WorkerIdle})
	require.NoError(t, err)

	deadAlready, err := workers.Register(ctx, worker.RegisterInput{Name: "dead", WorkerID: "dead"})
	require.NoError(t, err)
	require.NoError(t, workers.MarkDead(ctx, deadAlready.ID))

	dead, err := workers.FindDead(ctx, 3)
	require.NoError(t, err)
	ids := make([]string, 0, len(dead))
	for _, w := range dead {
		ids = append(ids, w.ID)
	}
	assert.Contains(t, ids, stale.ID)
	assert.NotContains(t, ids, deadAlready.ID)
}
