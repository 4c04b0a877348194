package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

var _ SnapshotStore = (*PostgresSnapshotStore)(nil)

// PostgresSnapshotStore is the database-backed SnapshotStore for
// multi-host setups where a local file is not shared. Save replaces the
// whole day's mapping inside one transaction, matching the file store's
// all-or-nothing contract.
type PostgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(dsn string) (*PostgresSnapshotStore, error) {
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

	s := &PostgresSnapshotStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL snapshot store initialized")
	return s, nil
}

func (s *PostgresSnapshotStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS market_snapshots (
		fixture_id BIGINT PRIMARY KEY,
		captured_date VARCHAR(10) NOT NULL,
		captured_at TIMESTAMP NOT NULL,
		home_price DECIMAL(10, 4) NOT NULL,
		draw_price DECIMAL(10, 4) NOT NULL,
		away_price DECIMAL(10, 4) NOT NULL,
		over_2_5_price DECIMAL(10, 4) NOT NULL,
		fh_over_0_5_price DECIMAL(10, 4) NOT NULL DEFAULT 0,
		fh_over_1_5_price DECIMAL(10, 4) NOT NULL DEFAULT 0,
		fh_btts_price DECIMAL(10, 4) NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_market_snapshots_date ON market_snapshots(captured_date);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, day string, odds map[int64]models.MarketSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	// Full replacement, like the file store: the table only ever holds
	// one capture.
	if _, err := tx.ExecContext(ctx, `DELETE FROM market_snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	now := time.Now()
	const insert = `
	INSERT INTO market_snapshots (
		fixture_id, captured_date, captured_at,
		home_price, draw_price, away_price, over_2_5_price,
		fh_over_0_5_price, fh_over_1_5_price, fh_btts_price
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for id, snap := range odds {
		_, err := tx.ExecContext(ctx, insert,
			id, day, now,
			snap.HomeWinPrice, snap.DrawPrice, snap.AwayWinPrice, snap.Over25Price,
			snap.FirstHalfOver05Price, snap.FirstHalfOver15Price, snap.FirstHalfBTTSPrice,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot for fixture %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) (string, map[int64]models.MarketSnapshot, error) {
	odds := map[int64]models.MarketSnapshot{}

	rows, err := s.db.QueryContext(ctx, `
	SELECT fixture_id, captured_date,
		home_price, draw_price, away_price, over_2_5_price,
		fh_over_0_5_price, fh_over_1_5_price, fh_btts_price
	FROM market_snapshots
	`)
	if err != nil {
		slog.Warn("Snapshot query failed, treating as absent", "error", err)
		return "", odds, nil
	}
	defer rows.Close()

	day := ""
	for rows.Next() {
		var id int64
		var snap models.MarketSnapshot
		if err := rows.Scan(&id, &day,
			&snap.HomeWinPrice, &snap.DrawPrice, &snap.AwayWinPrice, &snap.Over25Price,
			&snap.FirstHalfOver05Price, &snap.FirstHalfOver15Price, &snap.FirstHalfBTTSPrice,
		); err != nil {
			slog.Warn("Skipping unreadable snapshot row", "error", err)
			continue
		}
		odds[id] = snap
	}
	if err := rows.Err(); err != nil {
		slog.Warn("Snapshot rows iteration failed", "error", err)
	}
	return day, odds, nil
}

func (s *PostgresSnapshotStore) Close() error {
	return s.db.Close()
}
