// ABOUTME: SQLite database schema for the document store
// ABOUTME: Documents, their embedded chunks, and store-level metadata
package sqlite

// SchemaVersion is bumped whenever Schema changes incompatibly
const SchemaVersion = 1

// Schema contains all SQL statements for database initialization
const Schema = `
-- Ingested documents; metadata is a JSON object
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    raw_text TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    chunk_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

-- Chunks in insertion order; seq breaks score ties
CREATE TABLE IF NOT EXISTS chunks (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    vector BLOB NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
    UNIQUE (document_id, chunk_index)
);

-- Store-wide settings such as the embedding dimension
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`
