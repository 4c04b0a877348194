package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var _ HistoryStore = (*PostgresHistoryStore)(nil)

// PostgresHistoryStore keeps the scan log in a table with one row per
// fixture, upserted on append. Deduplication is therefore structural
// rather than a read-side pass.
type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(dsn string) (*PostgresHistoryStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresHistoryStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL history store initialized")
	return s, nil
}

func (s *PostgresHistoryStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS scan_history (
		fixture_id BIGINT PRIMARY KEY,
		log_date VARCHAR(10) NOT NULL,
		kickoff VARCHAR(5) NOT NULL,
		league VARCHAR(200) NOT NULL,
		match_label VARCHAR(500) NOT NULL,
		favorite_price DECIMAL(10, 4) NOT NULL,
		over_2_5_price DECIMAL(10, 4) NOT NULL,
		rating INTEGER NOT NULL,
		reasons VARCHAR(500) NOT NULL DEFAULT '',
		gold BOOLEAN NOT NULL DEFAULT FALSE,
		trap BOOLEAN NOT NULL DEFAULT FALSE,
		scanned_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scan_history_log_date ON scan_history(log_date);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresHistoryStore) Append(ctx context.Context, records []HistoryRecord) error {
	const upsert = `
	INSERT INTO scan_history (
		fixture_id, log_date, kickoff, league, match_label,
		favorite_price, over_2_5_price, rating, reasons, gold, trap, scanned_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (fixture_id) DO UPDATE SET
		log_date = EXCLUDED.log_date,
		kickoff = EXCLUDED.kickoff,
		league = EXCLUDED.league,
		match_label = EXCLUDED.match_label,
		favorite_price = EXCLUDED.favorite_price,
		over_2_5_price = EXCLUDED.over_2_5_price,
		rating = EXCLUDED.rating,
		reasons = EXCLUDED.reasons,
		gold = EXCLUDED.gold,
		trap = EXCLUDED.trap,
		scanned_at = EXCLUDED.scanned_at
	`
	for _, rec := range records {
		_, err := s.db.ExecContext(ctx, upsert,
			rec.FixtureID, rec.LogDate, rec.Kickoff, rec.League, rec.Match,
			rec.FavoritePrice, rec.Over25Price, rec.Rating,
			strings.Join(rec.Reasons, "|"), rec.Gold, rec.Trap, rec.ScannedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert history for fixture %d: %w", rec.FixtureID, err)
		}
	}
	return nil
}

func (s *PostgresHistoryStore) Load(ctx context.Context, logDate string) ([]HistoryRecord, error) {
	query := `
	SELECT fixture_id, log_date, kickoff, league, match_label,
		favorite_price, over_2_5_price, rating, reasons, gold, trap, scanned_at
	FROM scan_history
	`
	args := []any{}
	if logDate != "" {
		query += ` WHERE log_date = $1`
		args = append(args, logDate)
	}
	query += ` ORDER BY scanned_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		var reasons string
		if err := rows.Scan(&rec.FixtureID, &rec.LogDate, &rec.Kickoff, &rec.League, &rec.Match,
			&rec.FavoritePrice, &rec.Over25Price, &rec.Rating, &reasons, &rec.Gold, &rec.Trap,
			&rec.ScannedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if reasons != "" {
			rec.Reasons = strings.Split(reasons, "|")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresHistoryStore) Close() error {
	return s.db.Close()
}
