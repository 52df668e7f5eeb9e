package buildmeta

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultHistoryPath is where build history accumulates unless the project
// config points elsewhere.
const DefaultHistoryPath = "dist/history.db"

const historySchema = `
CREATE TABLE IF NOT EXISTS builds (
	id TEXT PRIMARY KEY,
	script TEXT NOT NULL,
	action TEXT NOT NULL,
	target TEXT NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	total_ms INTEGER NOT NULL DEFAULT 0,
	input_tokens INTEGER,
	output_tokens INTEGER,
	timestamp_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_builds_timestamp ON builds(timestamp_unix_ms);
`

// History is the append-only build log, one SQLite file per project.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database at path. Idempotent;
// the schema is applied on every open.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}

	// SQLite supports a single writer; more connections would only trade
	// queueing for SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close releases the database handle.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Entry is one stored build record.
type Entry struct {
	ID              string `json:"id"`
	Script          string `json:"script"`
	Action          string `json:"action"`
	Target          string `json:"target"`
	Provider        string `json:"provider,omitempty"`
	Model           string `json:"model,omitempty"`
	Status          string `json:"status"`
	TotalMillis     int64  `json:"total_ms"`
	InputTokens     *int64 `json:"input_tokens,omitempty"`
	OutputTokens    *int64 `json:"output_tokens,omitempty"`
	TimestampUnixMS int64  `json:"timestamp_unix_ms"`
}

// Append stores one record and returns its generated id.
func (h *History) Append(rec *Record) (string, error) {
	id := uuid.NewString()
	var input, output *int64
	if rec.TokenUsage != nil {
		input = rec.TokenUsage.InputTokens
		output = rec.TokenUsage.OutputTokens
	}
	_, err := h.db.Exec(`
		INSERT INTO builds (
			id, script, action, target, provider, model,
			status, total_ms, input_tokens, output_tokens, timestamp_unix_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, rec.Script, rec.Action, rec.Target, rec.Provider, rec.Model,
		rec.Status, rec.TotalMillis, input, output, rec.TimestampUnixMS)
	if err != nil {
		return "", fmt.Errorf("append build record: %w", err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first. A non-positive limit
// falls back to a page of 20.
func (h *History) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(`
		SELECT id, script, action, target, provider, model,
			status, total_ms, input_tokens, output_tokens, timestamp_unix_ms
		FROM builds
		ORDER BY timestamp_unix_ms DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query build history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var input, output sql.NullInt64
		if err := rows.Scan(
			&e.ID, &e.Script, &e.Action, &e.Target, &e.Provider, &e.Model,
			&e.Status, &e.TotalMillis, &input, &output, &e.TimestampUnixMS,
		); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		if input.Valid {
			v := input.Int64
			e.InputTokens = &v
		}
		if output.Valid {
			v := output.Int64
			e.OutputTokens = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build history: %w", err)
	}
	return entries, nil
}
