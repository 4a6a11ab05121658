package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    format               TEXT NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    record_count         INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    idx                  INTEGER NOT NULL,
    body                 BLOB NOT NULL,
    PRIMARY KEY (file_path, idx)
);
`
