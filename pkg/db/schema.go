package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Runs: one row per invocation of the enrichment driver
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    file_name TEXT NOT NULL,
    start_index INTEGER NOT NULL,
    end_index INTEGER NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    status TEXT NOT NULL,

    -- summary counts, filled in when the run finishes
    visited INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    enriched INTEGER DEFAULT 0,
    no_metadata INTEGER DEFAULT 0,
    malformed INTEGER DEFAULT 0,
    missing_url INTEGER DEFAULT 0,
    http_errors INTEGER DEFAULT 0,
    timeouts INTEGER DEFAULT 0,
    network_errors INTEGER DEFAULT 0,
    cache_hits INTEGER DEFAULT 0,
    next_index INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_file ON runs(file_name);

-- Attempts: every index that was not skipped
CREATE TABLE IF NOT EXISTS attempts (
    attempt_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    record_index INTEGER NOT NULL,
    url TEXT,
    outcome TEXT NOT NULL,
    status_code INTEGER,
    message TEXT,
    duration_ms INTEGER,
    from_cache BOOLEAN DEFAULT 0,
    attempted_at TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts(outcome);
`
