package store

// schemaSQL is the DDL for the ledger tables.
const schemaSQL = `
-- One row per conversion run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source_dir TEXT,
    status TEXT DEFAULT 'running',
    file_count INTEGER DEFAULT 0,
    record_count INTEGER DEFAULT 0,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME
);

-- Source files seen by a run, with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    path TEXT NOT NULL,
    filename TEXT NOT NULL,
    format TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    parse_method TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT,
    record_count INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(run_id, path)
);

-- Canonical records extracted from a document, in document order
CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    type TEXT NOT NULL,
    question TEXT NOT NULL,
    options JSON,
    answer TEXT,
    explanation TEXT
);

CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
CREATE INDEX IF NOT EXISTS idx_questions_document ON questions(document_id);
`
