package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// snapshotSchemaVersion guards reads of older snapshot files after format
// changes. A mismatching file is treated as absent, not as an error.
const snapshotSchemaVersion = 1

// snapshotDocument is the on-disk shape.
type snapshotDocument struct {
	SchemaVersion int                              `json:"schema_version"`
	Date          string                           `json:"date"`
	Timestamp     time.Time                        `json:"timestamp"`
	Odds          map[string]models.MarketSnapshot `json:"odds"`
}

// FileSnapshotStore keeps the day's snapshot in a single JSON file.
// Writes go to a temp file first and are renamed into place, so a reader
// (or a killed process) only ever sees the last fully committed version.
type FileSnapshotStore struct {
	path string
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

func (s *FileSnapshotStore) Save(ctx context.Context, day string, odds map[int64]models.MarketSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := snapshotDocument{
		SchemaVersion: snapshotSchemaVersion,
		Date:          day,
		Timestamp:     time.Now(),
		Odds:          make(map[string]models.MarketSnapshot, len(odds)),
	}
	for id, snap := range odds {
		doc.Odds[strconv.FormatInt(id, 10)] = snap
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) Load(ctx context.Context) (string, map[int64]models.MarketSnapshot, error) {
	empty := map[int64]models.MarketSnapshot{}
	if err := ctx.Err(); err != nil {
		return "", empty, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Snapshot file unreadable, treating as absent", "path", s.path, "error", err)
		}
		return "", empty, nil
	}

	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Snapshot file corrupt, treating as absent", "path", s.path, "error", err)
		return "", empty, nil
	}
	if doc.SchemaVersion != snapshotSchemaVersion {
		slog.Warn("Snapshot schema version mismatch, treating as absent",
			"path", s.path, "got", doc.SchemaVersion, "want", snapshotSchemaVersion)
		return "", empty, nil
	}

	odds := make(map[int64]models.MarketSnapshot, len(doc.Odds))
	for idStr, snap := range doc.Odds {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			slog.Warn("Skipping snapshot entry with bad fixture id", "id", idStr)
			continue
		}
		odds[id] = snap
	}
	return doc.Date, odds, nil
}

func (s *FileSnapshotStore) Close() error { return nil }
