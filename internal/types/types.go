// Package types holds the data model shared by every service (spec §3):
// tasks, dependency/hierarchy edges, workers, claims, orchestrator
// state, attempts, learnings, candidates and labels. These are plain
// structs; lifecycle and invariants live in the owning service package,
// not here.
package types

import "time"

// TaskStatus is one of the seven workable/terminal states a task may be in.
type TaskStatus string

const (
	StatusBacklog  TaskStatus = "backlog"
	StatusReady    TaskStatus = "ready"
	StatusPlanning TaskStatus = "planning"
	StatusActive   TaskStatus = "active"
	StatusBlocked  TaskStatus = "blocked"
	StatusReview   TaskStatus = "review"
	StatusDone     TaskStatus = "done"
)

// ValidTaskStatuses lists every status accepted by the task service's
// validation (the tasks table itself has no CHECK constraint on status).
var ValidTaskStatuses = []TaskStatus{
	StatusBacklog, StatusReady, StatusPlanning, StatusActive,
	StatusBlocked, StatusReview, StatusDone,
}

func (s TaskStatus) Valid() bool {
	for _, v := range ValidTaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// WorkableStatuses are the statuses the ready-set query considers.
var WorkableStatuses = []TaskStatus{StatusBacklog, StatusReady, StatusPlanning}

func (s TaskStatus) Workable() bool {
	for _, v := range WorkableStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Task is the central work item of the engine (spec §3).
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	ParentID    *string
	Score       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Metadata    map[string]string
}

// TaskWithDeps is a transient projection of a task plus its dependency
// and hierarchy edges (spec §4.1 getWithDeps).
type TaskWithDeps struct {
	Task
	BlockedBy []string
	Blocks    []string
	Children  []string
	IsReady   bool
}

// Dependency is a directed blocker->blocked edge (spec §3).
type Dependency struct {
	BlockerID string
	BlockedID string
	CreatedAt time.Time
}

// Tree is a hierarchy projection rooted at a task (spec §4.3 getTree).
type Tree struct {
	Task     Task
	Children []*Tree
}

// WorkerStatus is the lifecycle state of a worker process.
type WorkerStatus string

const (
	WorkerStarting WorkerStatus = "starting"
	WorkerIdle     WorkerStatus = "idle"
	WorkerBusy     WorkerStatus = "busy"
	WorkerStopping WorkerStatus = "stopping"
	WorkerDead     WorkerStatus = "dead"
)

// Worker is a registered agent-hosting process (spec §3).
type Worker struct {
	ID              string
	Name            string
	Hostname        string
	PID             int
	Status          WorkerStatus
	RegisteredAt    time.Time
	LastHeartbeatAt time.Time
	CurrentTaskID   *string
	Capabilities    []string
	Metadata        map[string]string
}

// ClaimStatus is the lifecycle state of a claim row.
type ClaimStatus string

const (
	ClaimActive   ClaimStatus = "active"
	ClaimReleased ClaimStatus = "released"
	ClaimExpired  ClaimStatus = "expired"
)

// Claim asserts that a worker is working on a task until LeaseExpiresAt
// (spec §3, §4.5).
type Claim struct {
	ID              int64
	TaskID          string
	WorkerID        string
	ClaimedAt       time.Time
	LeaseExpiresAt  time.Time
	RenewedCount    int
	Status          ClaimStatus
}

// OrchestratorStatus is the singleton orchestrator lifecycle state.
type OrchestratorStatus string

const (
	OrchestratorStopped OrchestratorStatus = "stopped"
	OrchestratorRunning OrchestratorStatus = "running"
)

// OrchestratorState is the singleton process-controller row (spec §3).
type OrchestratorState struct {
	Status                   OrchestratorStatus
	PID                      int
	StartedAt                *time.Time
	LastReconcileAt          *time.Time
	WorkerPoolSize           int
	ReconcileIntervalSeconds int
	HeartbeatIntervalSeconds int
	LeaseDurationMinutes     int
}

// AttemptOutcome is the result of one try at a task.
type AttemptOutcome string

const (
	AttemptFailed    AttemptOutcome = "failed"
	AttemptSucceeded AttemptOutcome = "succeeded"
)

// Attempt is an append-only ledger entry for one try at a task (spec §3, §4.8).
type Attempt struct {
	ID        int64
	TaskID    string
	Approach  string
	Outcome   AttemptOutcome
	Reason    string
	CreatedAt time.Time
}

// Learning is an append-only corpus entry feeding retrieval (spec §3, §4.9).
type Learning struct {
	ID           int64
	Content      string
	SourceType   string
	SourceRef    string
	CreatedAt    time.Time
	Keywords     []string
	Category     string
	UsageCount   int
	OutcomeScore *float64 // nil means "no outcome recorded yet"
}

// SearchResult decorates a Learning with its relevance decomposition
// (spec §4.9: "exposed on each returned row").
type SearchResult struct {
	Learning
	BM25Score     float64
	RecencyScore  float64
	Relevance     float64
}

// CandidateStatus is the lifecycle state of a pending-promotion learning.
type CandidateStatus string

const (
	CandidatePending   CandidateStatus = "pending"
	CandidatePromoted  CandidateStatus = "promoted"
	CandidateRejected  CandidateStatus = "rejected"
	CandidateMerged    CandidateStatus = "merged"
)

// ConfidenceLevel is how sure the extractor was about a candidate.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Candidate is a pending-promotion learning (spec §3, §4.10).
type Candidate struct {
	ID                 int64
	Content            string
	Confidence         ConfidenceLevel
	SourceFile         string
	SourceRunID        string
	SourceTaskID       string
	Status             CandidateStatus
	ExtractedAt        time.Time
	ReviewedAt         *time.Time
	ReviewedBy         string
	PromotedLearningID *int64
	RejectionReason    string
}

// CandidateFilter selects candidates; the non-empty Status, Confidence,
// SourceFile, SourceRunID and SourceTaskID fields AND together, and each
// accepts either a single value or a set (spec §4.10). Category is not
// applied by the store: candidates carry no category, so a Category
// value has no effect on the result.
type CandidateFilter struct {
	Status       []CandidateStatus
	Confidence   []ConfidenceLevel
	Category     []string
	SourceFile   []string
	SourceRunID  []string
	SourceTaskID []string
	Limit        int
	Offset       int
}

// Label is a case-insensitive, uniquely-named, colored tag (spec §3).
type Label struct {
	ID    int64
	Name  string
	Color string
}

// ScoreBreakdown decomposes the score-service's final score (spec §4.4).
type ScoreBreakdown struct {
	TaskID         string
	BaseScore      int
	BlockingBonus  int
	DepthPenalty   int
	BlockedPenalty int
	FinalScore     int
}

// TaskFilter selects tasks for List/Count (spec §4.1).
type TaskFilter struct {
	Status   []TaskStatus
	ParentID *string
	Search   string
	Limit    int
	Offset   int
}

// WorkFilter narrows the ready-set query (spec §4.1 ready-set query).
type WorkFilter struct {
	Status []TaskStatus
	Limit  int
}
