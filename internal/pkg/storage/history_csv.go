package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// historySchemaVersion is written into every row; rows with an unknown
// version are skipped on read instead of being misinterpreted.
const historySchemaVersion = 1

var historyHeader = []string{
	"schema_version", "fixture_id", "log_date", "kickoff", "league", "match",
	"favorite_price", "over_2_5_price", "rating", "reasons", "gold", "trap",
	"scanned_at",
}

var _ HistoryStore = (*CSVHistoryStore)(nil)

// CSVHistoryStore is the append-only scan log. Appends never rewrite
// existing rows; deduplication (last row per fixture id wins) happens on
// read.
type CSVHistoryStore struct {
	path string
}

func NewCSVHistoryStore(path string) *CSVHistoryStore {
	return &CSVHistoryStore{path: path}
}

func (s *CSVHistoryStore) Append(ctx context.Context, records []HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("write history header: %w", err)
		}
	}
	for _, rec := range records {
		if err := w.Write(encodeHistoryRow(rec)); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush history log: %w", err)
	}
	return nil
}

func (s *CSVHistoryStore) Load(ctx context.Context, logDate string) ([]HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate short rows from older writers

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	// Last row per fixture id wins; order of last occurrence is kept.
	byFixture := map[int64]int{}
	var out []HistoryRecord
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == historyHeader[0] {
			continue
		}
		rec, ok := decodeHistoryRow(row)
		if !ok {
			slog.Debug("Skipping unreadable history row", "line", i+1)
			continue
		}
		if logDate != "" && rec.LogDate != logDate {
			continue
		}
		if idx, seen := byFixture[rec.FixtureID]; seen {
			out[idx] = rec
			continue
		}
		byFixture[rec.FixtureID] = len(out)
		out = append(out, rec)
	}
	return out, nil
}

func (s *CSVHistoryStore) Close() error { return nil }

func encodeHistoryRow(rec HistoryRecord) []string {
	return []string{
		strconv.Itoa(historySchemaVersion),
		strconv.FormatInt(rec.FixtureID, 10),
		rec.LogDate,
		rec.Kickoff,
		rec.League,
		rec.Match,
		strconv.FormatFloat(rec.FavoritePrice, 'f', 2, 64),
		strconv.FormatFloat(rec.Over25Price, 'f', 2, 64),
		strconv.Itoa(rec.Rating),
		strings.Join(rec.Reasons, "|"),
		strconv.FormatBool(rec.Gold),
		strconv.FormatBool(rec.Trap),
		rec.ScannedAt.Format(time.RFC3339),
	}
}

func decodeHistoryRow(row []string) (HistoryRecord, bool) {
	if len(row) < len(historyHeader) {
		return HistoryRecord{}, false
	}
	version, err := strconv.Atoi(row[0])
	if err != nil || version != historySchemaVersion {
		return HistoryRecord{}, false
	}
	fixtureID, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return HistoryRecord{}, false
	}

	rec := HistoryRecord{
		FixtureID: fixtureID,
		LogDate:   row[2],
		Kickoff:   row[3],
		League:    row[4],
		Match:     row[5],
	}
	rec.FavoritePrice, _ = strconv.ParseFloat(row[6], 64)
	rec.Over25Price, _ = strconv.ParseFloat(row[7], 64)
	rec.Rating, _ = strconv.Atoi(row[8])
	if row[9] != "" {
		rec.Reasons = strings.Split(row[9], "|")
	}
	rec.Gold, _ = strconv.ParseBool(row[10])
	rec.Trap, _ = strconv.ParseBool(row[11])
	if t, err := time.Parse(time.RFC3339, row[12]); err == nil {
		rec.ScannedAt = t
	}
	return rec, true
}
