// Package storage defines the store-layer contract every service in the
// engine is built against. Concrete backends live in sub-packages
// (currently internal/storage/sqlite); services depend only on the
// interfaces here so they can be tested against an in-memory fake.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jamesaphoenix/tx/internal/types"
)

// TaskStore is the store-layer surface for tasks and their dependency
// and hierarchy edges (spec §4.1-§4.3).
type TaskStore interface {
	CreateTask(ctx context.Context, t *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	UpdateTask(ctx context.Context, id string, patch map[string]any) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error)
	CountTasks(ctx context.Context, filter types.TaskFilter) (int, error)

	// Dependency edges.
	AddDependency(ctx context.Context, blockerID, blockedID string) error
	RemoveDependency(ctx context.Context, blockerID, blockedID string) error
	ListBlockers(ctx context.Context, taskID string) ([]string, error)
	ListBlocking(ctx context.Context, taskID string) ([]string, error)
	AllDependencies(ctx context.Context) ([]types.Dependency, error)

	// Hierarchy (parentId lives on Task; these are bulk helpers).
	ListChildren(ctx context.Context, taskID string) ([]string, error)
	AllParents(ctx context.Context) (map[string]string, error) // taskID -> parentID

	RunInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ClaimStore is the store-layer surface for claims (spec §4.5).
type ClaimStore interface {
	// InsertClaimIfNone atomically inserts an active claim for taskID iff
	// no active claim exists; returns the existing active claim's worker
	// id (and ok=false) when one already does.
	InsertClaimIfNone(ctx context.Context, c *types.Claim) (existingWorkerID string, ok bool, err error)
	// ClaimTask is InsertClaimIfNone plus the task's status -> active
	// transition, run as a single transaction (spec §4.5: "claim also
	// transitions the task to status active ... as part of the same
	// transaction").
	ClaimTask(ctx context.Context, c *types.Claim) (existingWorkerID string, ok bool, err error)
	GetActiveClaim(ctx context.Context, taskID string) (*types.Claim, error)
	RenewClaim(ctx context.Context, taskID, workerID string, newExpiry time.Time) (*types.Claim, error)
	ReleaseClaim(ctx context.Context, taskID, workerID string) error
	ReleaseByWorker(ctx context.Context, workerID string) (int, error)
	ExpireClaim(ctx context.Context, claimID int64) error
	ListExpired(ctx context.Context, now time.Time) ([]*types.Claim, error)
	ListActiveWithoutTask(ctx context.Context) ([]*types.Claim, error) // not used directly but kept for symmetry
}

// WorkerStore is the store-layer surface for workers (spec §4.6).
type WorkerStore interface {
	InsertWorker(ctx context.Context, w *types.Worker) error
	GetWorker(ctx context.Context, id string) (*types.Worker, error)
	DeleteWorker(ctx context.Context, id string) error
	UpdateWorker(ctx context.Context, id string, patch map[string]any) error
	ListWorkers(ctx context.Context) ([]*types.Worker, error)
	CountWorkersInStatuses(ctx context.Context, statuses []types.WorkerStatus) (int, error)
}

// OrchestratorStore is the store-layer surface for the singleton
// orchestrator row (spec §4.7).
type OrchestratorStore interface {
	GetOrchestratorState(ctx context.Context) (*types.OrchestratorState, error)
	UpdateOrchestratorState(ctx context.Context, patch map[string]any) error
}

// AttemptStore is the store-layer surface for the attempt ledger (spec §4.8).
type AttemptStore interface {
	InsertAttempt(ctx context.Context, a *types.Attempt) (int64, error)
	GetAttempt(ctx context.Context, id int64) (*types.Attempt, error)
	ListAttemptsForTask(ctx context.Context, taskID string) ([]*types.Attempt, error)
	DeleteAttempt(ctx context.Context, id int64) error
	FailedCount(ctx context.Context, taskID string) (int, error)
	FailedCounts(ctx context.Context, taskIDs []string) (map[string]int, error)
	TaskExists(ctx context.Context, taskID string) (bool, error)
}

// LearningStore is the store-layer surface for the learning corpus and
// its inverted index (spec §4.9).
type LearningStore interface {
	InsertLearning(ctx context.Context, l *types.Learning) (int64, error)
	GetLearning(ctx context.Context, id int64) (*types.Learning, error)
	ListLearnings(ctx context.Context) ([]*types.Learning, error)
	DeleteLearning(ctx context.Context, id int64) error
	UpdateOutcome(ctx context.Context, id int64, score float64) error
	RecordUsage(ctx context.Context, id int64) error

	// SearchTokens runs one FTS5 MATCH query and returns (learningID, bm25Score)
	// pairs ordered by relevance, best first. query is the already-escaped
	// FTS5 match expression (phrase/NEAR/OR).
	SearchTokens(ctx context.Context, matchExpr string, limit int) ([]TokenHit, error)

	GetConfigFloat(ctx context.Context, key string, def float64) (float64, error)
}

// TokenHit is one row of a raw FTS5 match.
type TokenHit struct {
	LearningID int64
	BM25       float64
}

// CandidateStore is the store-layer surface for the promotion pipeline (spec §4.10).
type CandidateStore interface {
	InsertCandidate(ctx context.Context, c *types.Candidate) (int64, error)
	GetCandidate(ctx context.Context, id int64) (*types.Candidate, error)
	ListCandidates(ctx context.Context, filter types.CandidateFilter) ([]*types.Candidate, error)
	UpdateCandidate(ctx context.Context, id int64, patch map[string]any) error
}

// LabelStore is the store-layer surface for labels (spec §3 TaskLabel/LabelAssignment).
type LabelStore interface {
	UpsertLabel(ctx context.Context, name, color string) (*types.Label, error)
	ListLabels(ctx context.Context) ([]*types.Label, error)
	AttachLabel(ctx context.Context, taskID string, labelID int64) error
	DetachLabel(ctx context.Context, taskID string, labelID int64) error
	LabelsForTask(ctx context.Context, taskID string) ([]*types.Label, error)
}

// ConfigStore is the store-layer surface for the generic key/value config
// table (recency weight, auto-sync toggle, legacy label rewrite map).
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, bool, error)
	SetConfig(ctx context.Context, key, value string) error
	ListConfigPrefix(ctx context.Context, prefix string) (map[string]string, error)
}

// Store is the full store surface every backend must implement.
type Store interface {
	TaskStore
	ClaimStore
	WorkerStore
	OrchestratorStore
	AttemptStore
	LearningStore
	CandidateStore
	LabelStore
	ConfigStore

	Path() string
	Close() error
}
