package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT UNIQUE NOT NULL,
    recorded_at DATETIME NOT NULL,
    committed INTEGER NOT NULL DEFAULT 0,
    config_rewritten BOOLEAN DEFAULT FALSE,
    synced BOOLEAN DEFAULT FALSE,
    sync_skip_reason TEXT DEFAULT '',
    uploaded INTEGER NOT NULL DEFAULT 0,
    upload_failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    target TEXT NOT NULL,
    repo TEXT DEFAULT '',
    previous_version TEXT DEFAULT '',
    new_version TEXT DEFAULT '',
    state TEXT NOT NULL,
    updated BOOLEAN DEFAULT FALSE,
    files_written TEXT DEFAULT '',
    failures TEXT DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_target ON outcomes(target);
`
