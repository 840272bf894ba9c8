package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/sqlite"
)

// LoadFixtureFile reads a fixture store from path. The format follows the
// extension: .json, .yaml/.yml, or .db/.sqlite/.sqlite3.
func LoadFixtureFile(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return loadSQLiteFixtures(ctx, path)
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fixtures: read %s: %w", path, err)
		}
		return decodeYAMLFixtures(raw)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fixtures: read %s: %w", path, err)
		}
		return decodeJSONFixtures(raw)
	}
}

func decodeJSONFixtures(raw []byte) (map[string]json.RawMessage, error) {
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("fixtures: parse json: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("fixtures: document must be an object")
	}
	return out, nil
}

func decodeYAMLFixtures(raw []byte) (map[string]json.RawMessage, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("fixtures: parse yaml: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("fixtures: document must be a mapping")
	}

	out := make(map[string]json.RawMessage, len(doc))
	for key, value := range doc {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("fixtures: encode %q: %w", key, err)
		}
		out[key] = encoded
	}
	return out, nil
}

func loadSQLiteFixtures(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}

	db, err := sqlite.NewDB(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	defer db.Close()

	if err := sqlite.MigrateUp(ctx, db); err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	return sqlite.LoadFixtures(ctx, db)
}
