package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
)

// LoadFixtures reads every fixture row into memory.
func LoadFixtures(ctx context.Context, db *sql.DB) (map[string]json.RawMessage, error) {
	rows, err := db.QueryContext(ctx, `SELECT endpoint_key, payload FROM fixture`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query fixtures: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			key     string
			payload string
		)
		if scanErr := rows.Scan(&key, &payload); scanErr != nil {
			return nil, fmt.Errorf("sqlite: scan fixture: %w", scanErr)
		}
		out[key] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate fixtures: %w", err)
	}
	return out, nil
}

// SaveFixtures upserts fixtures in a single transaction and returns the row count written.
func SaveFixtures(ctx context.Context, db *sql.DB, fixtures map[string]json.RawMessage) (int, error) {
	keys := make([]string, 0, len(fixtures))
	for k := range fixtures {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fixture (endpoint_key, payload) VALUES (?, ?)
		ON CONFLICT(endpoint_key) DO UPDATE SET payload = excluded.payload, updated_at = datetime('now')
	`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		payload := fixtures[key]
		if !json.Valid(payload) {
			return 0, fmt.Errorf("sqlite: fixture %q is not valid json", key)
		}
		if _, execErr := stmt.ExecContext(ctx, key, string(payload)); execErr != nil {
			return 0, fmt.Errorf("sqlite: upsert %q: %w", key, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return len(keys), nil
}
