package sqlite

// schema is applied once per database with CREATE TABLE IF NOT EXISTS,
// so it is safe to re-run on every Open. New columns go in
// internal/storage/sqlite/migrations instead of here, the same split the
// teacher uses between a baseline schema.go and versioned migrations.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL CHECK(length(title) > 0),
    description  TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'backlog',
    parent_id    TEXT REFERENCES tasks(id) ON DELETE SET NULL,
    score        INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    metadata     TEXT NOT NULL DEFAULT '{}',
    CHECK ((status = 'done' AND completed_at IS NOT NULL) OR (status != 'done' AND completed_at IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
CREATE INDEX IF NOT EXISTS idx_tasks_score_id ON tasks(score DESC, id ASC);

CREATE TABLE IF NOT EXISTS dependencies (
    blocker_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    blocked_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (blocker_id, blocked_id),
    CHECK (blocker_id != blocked_id)
);

CREATE INDEX IF NOT EXISTS idx_deps_blocked ON dependencies(blocked_id);
CREATE INDEX IF NOT EXISTS idx_deps_blocker ON dependencies(blocker_id);

CREATE TABLE IF NOT EXISTS workers (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    hostname          TEXT NOT NULL DEFAULT '',
    pid               INTEGER NOT NULL DEFAULT 0,
    status            TEXT NOT NULL DEFAULT 'starting',
    registered_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_heartbeat_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    current_task_id   TEXT REFERENCES tasks(id) ON DELETE SET NULL,
    capabilities      TEXT NOT NULL DEFAULT '[]',
    metadata          TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_workers_status ON workers(status);

CREATE TABLE IF NOT EXISTS claims (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id          TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    worker_id        TEXT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
    claimed_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    lease_expires_at DATETIME NOT NULL,
    renewed_count    INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'active'
);

-- At most one active claim per task (spec invariant #1).
CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_one_active_per_task
    ON claims(task_id) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_claims_worker ON claims(worker_id) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_claims_lease ON claims(lease_expires_at) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS orchestrator_state (
    id                          INTEGER PRIMARY KEY CHECK (id = 1),
    status                      TEXT NOT NULL DEFAULT 'stopped',
    pid                         INTEGER NOT NULL DEFAULT 0,
    started_at                  DATETIME,
    last_reconcile_at           DATETIME,
    worker_pool_size            INTEGER NOT NULL DEFAULT 10,
    reconcile_interval_seconds  INTEGER NOT NULL DEFAULT 30,
    heartbeat_interval_seconds  INTEGER NOT NULL DEFAULT 15,
    lease_duration_minutes      INTEGER NOT NULL DEFAULT 15
);

INSERT OR IGNORE INTO orchestrator_state (id, status) VALUES (1, 'stopped');

CREATE TABLE IF NOT EXISTS attempts (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    approach   TEXT NOT NULL CHECK(length(trim(approach)) > 0),
    outcome    TEXT NOT NULL CHECK(outcome IN ('failed', 'succeeded')),
    reason     TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attempts_task ON attempts(task_id);

CREATE TABLE IF NOT EXISTS learnings (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    content       TEXT NOT NULL,
    source_type   TEXT NOT NULL DEFAULT 'manual',
    source_ref    TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    keywords      TEXT NOT NULL DEFAULT '[]',
    category      TEXT NOT NULL DEFAULT '',
    usage_count   INTEGER NOT NULL DEFAULT 0,
    outcome_score REAL
);

CREATE INDEX IF NOT EXISTS idx_learnings_created_at ON learnings(created_at);

-- Inverted index for learning retrieval (spec §4.9): an FTS5 virtual
-- table kept in lockstep with the learnings table by the triggers
-- below, per the "inverted-index coupling" design note (§9).
CREATE VIRTUAL TABLE IF NOT EXISTS learnings_fts USING fts5(
    content, keywords, content='learnings', content_rowid='id', tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS learnings_ai AFTER INSERT ON learnings BEGIN
    INSERT INTO learnings_fts(rowid, content, keywords) VALUES (new.id, new.content, new.keywords);
END;
CREATE TRIGGER IF NOT EXISTS learnings_ad AFTER DELETE ON learnings BEGIN
    INSERT INTO learnings_fts(learnings_fts, rowid, content, keywords) VALUES ('delete', old.id, old.content, old.keywords);
END;
CREATE TRIGGER IF NOT EXISTS learnings_au AFTER UPDATE ON learnings BEGIN
    INSERT INTO learnings_fts(learnings_fts, rowid, content, keywords) VALUES ('delete', old.id, old.content, old.keywords);
    INSERT INTO learnings_fts(rowid, content, keywords) VALUES (new.id, new.content, new.keywords);
END;

CREATE TABLE IF NOT EXISTS candidates (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    content              TEXT NOT NULL,
    confidence           TEXT NOT NULL DEFAULT 'medium',
    source_file          TEXT NOT NULL DEFAULT '',
    source_run_id        TEXT NOT NULL DEFAULT '',
    source_task_id       TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'pending',
    extracted_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    reviewed_at          DATETIME,
    reviewed_by          TEXT NOT NULL DEFAULT '',
    promoted_learning_id INTEGER REFERENCES learnings(id) ON DELETE SET NULL,
    rejection_reason     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
CREATE INDEX IF NOT EXISTS idx_candidates_extracted_at ON candidates(extracted_at DESC);

CREATE TABLE IF NOT EXISTS labels (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    name  TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '#888888'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_labels_name_ci ON labels(lower(name));

CREATE TABLE IF NOT EXISTS label_assignments (
    task_id  TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
    PRIMARY KEY (task_id, label_id)
);

CREATE TABLE IF NOT EXISTS config (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

INSERT OR IGNORE INTO config (key, value) VALUES
    ('learning.recency_weight', '0.1'),
    ('export.auto_sync_enabled', 'false'),
    ('export.error_policy', 'best-effort');

CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
