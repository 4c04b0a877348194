package storage

import (
	"context"
	"time"

	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// SnapshotStore persists one market snapshot per fixture for the current
// trading day. Save is full replacement, never an incremental merge: the
// stored document always reflects exactly one capture action.
//
// Staleness is the caller's contract: Load returns whatever day is on
// disk and the caller must compare it against "today" before trusting the
// mapping.
type SnapshotStore interface {
	// Save atomically replaces the stored mapping. day is the capture
	// calendar day in YYYY-MM-DD.
	Save(ctx context.Context, day string, odds map[int64]models.MarketSnapshot) error
	// Load returns the stored day and mapping. Missing or corrupt state
	// yields an empty mapping and "" day, never an error.
	Load(ctx context.Context) (day string, odds map[int64]models.MarketSnapshot, err error)
	Close() error
}

// HistoryRecord is one scored fixture as written to the history log and
// read back by the auditor.
type HistoryRecord struct {
	FixtureID     int64
	LogDate       string // YYYY-MM-DD
	Kickoff       string // HH:MM local
	League        string
	Match         string
	FavoritePrice float64
	Over25Price   float64
	Rating        int
	Reasons       []string
	Gold          bool
	Trap          bool
	ScannedAt     time.Time
}

// HistoryStore is the append-only scan log consumed by the auditor. One
// row per fixture survives deduplication: the last write wins.
type HistoryStore interface {
	Append(ctx context.Context, records []HistoryRecord) error
	// Load returns deduplicated records, optionally filtered to a log
	// date (empty string = all days).
	Load(ctx context.Context, logDate string) ([]HistoryRecord, error)
	Close() error
}
