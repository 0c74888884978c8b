package postgres

import "fmt"

// schemaTemplate creates the playbook tables. %d is the embedding dimension.
const schemaTemplate = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS playbooks (
    id          TEXT PRIMARY KEY,
    source_id   TEXT NOT NULL UNIQUE,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    category    TEXT NOT NULL DEFAULT 'General',
    tags        TEXT[] NOT NULL DEFAULT '{}',
    url         TEXT NOT NULL,
    embedding   vector(%d),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_playbooks_category ON playbooks (category);
CREATE INDEX IF NOT EXISTS idx_playbooks_title ON playbooks (LOWER(title));

CREATE TABLE IF NOT EXISTS sync_runs (
    id            TEXT PRIMARY KEY,
    scope         TEXT NOT NULL DEFAULT '',
    synced_count  INTEGER NOT NULL DEFAULT 0,
    updated_count INTEGER NOT NULL DEFAULT 0,
    skipped_count INTEGER NOT NULL DEFAULT 0,
    error_count   INTEGER NOT NULL DEFAULT 0,
    errors        TEXT[] NOT NULL DEFAULT '{}',
    success       BOOLEAN NOT NULL DEFAULT FALSE,
    error         TEXT NOT NULL DEFAULT '',
    started_at    TIMESTAMPTZ NOT NULL,
    completed_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs (started_at DESC);
`

// DefaultDimensions is used when no dimension is configured.
const DefaultDimensions = 1536

func schemaSQL(dimensions int) string {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return fmt.Sprintf(schemaTemplate, dimensions)
}
