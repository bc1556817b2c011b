package archive

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the evidence archive schema.
const Schema = `
-- Evidence span records
CREATE TABLE IF NOT EXISTS evidence_spans (
    span_id TEXT PRIMARY KEY,

    -- Control reference
    framework TEXT NOT NULL,
    control_id TEXT NOT NULL,
    control_title TEXT,
    citation TEXT,

    -- Correlation
    correlation_key TEXT NOT NULL,

    -- Lifecycle
    status TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP NOT NULL,
    recorded_at TIMESTAMP NOT NULL,

    -- Attributes (insertion-ordered JSON arrays)
    inputs TEXT,
    outputs TEXT,

    -- Error info
    error_message TEXT,
    error_kind TEXT,

    -- Provenance
    catalog_version TEXT,

    -- Integrity
    content_hash TEXT NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_spans_started_at ON evidence_spans(started_at);
CREATE INDEX IF NOT EXISTS idx_spans_framework ON evidence_spans(framework);
CREATE INDEX IF NOT EXISTS idx_spans_control ON evidence_spans(framework, control_id);
CREATE INDEX IF NOT EXISTS idx_spans_correlation_key ON evidence_spans(correlation_key);
CREATE INDEX IF NOT EXISTS idx_spans_status ON evidence_spans(status);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
