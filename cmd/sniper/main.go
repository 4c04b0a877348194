package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/notify"
	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/logging"
	"github.com/dweezil78/sniper-app/internal/pkg/storage"
	"github.com/dweezil78/sniper-app/internal/scan"
	"github.com/dweezil78/sniper-app/internal/scoring"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Sniper scan failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	var configPath, date string
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&date, "date", "", "Scan date YYYY-MM-DD (default: today in the configured timezone)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(&cfg.Logging, "sniper")

	if cfg.API.Key == "" {
		return fmt.Errorf("API key is required (api.key in config or APISPORTS_KEY env var)")
	}
	if date == "" {
		date = today(cfg.API.Timezone)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apisports.NewClient(&cfg.API, apisports.NewMemoryCache())
	engine := scoring.NewEngine(cfg.Scoring)
	runner := scan.NewRunner(client, engine, cfg.Signals, cfg.Scan)

	snapshotStore, err := storage.OpenSnapshotStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshotStore.Close()

	historyStore, err := storage.OpenHistoryStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer historyStore.Close()

	notifier := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	defer notifier.Close()

	slog.Info("Fetching fixtures", "date", date, "timezone", cfg.API.Timezone)
	fixtures, err := client.FetchFixtures(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	eligible := scan.FilterFixtures(fixtures, cfg.Leagues)
	slog.Info("Fixtures filtered", "total", len(fixtures), "eligible", len(eligible))
	if len(eligible) == 0 {
		fmt.Println("No eligible fixtures for", date)
		return nil
	}

	// A snapshot from another day is stale: the drop and inversion
	// signals only mean something within one trading day.
	snapDay, prior, err := snapshotStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapDay != date {
		if snapDay != "" {
			slog.Info("Stored snapshot is stale, scanning without prior", "snapshot_day", snapDay, "scan_day", date)
		}
		prior = nil
	} else {
		slog.Info("Prior snapshot loaded", "fixtures", len(prior))
	}

	rows, sum := runner.Run(ctx, eligible, prior)

	printRows(rows)
	slog.Info("Scan finished",
		"analyzed", sum.Analyzed, "skipped", sum.Skipped,
		"filtered", sum.Filtered, "no_form", sum.NoForm, "shown", len(rows))

	if err := appendHistory(ctx, historyStore, rows, date); err != nil {
		slog.Error("Failed to append history log", "error", err)
		notifier.NotifyWarning("History log write failed: " + err.Error())
	}

	for _, row := range rows {
		if row.Score.Rating >= cfg.Telegram.MinRating {
			notifier.NotifyPick(notify.Pick{
				Match:         row.Fixture.Label(),
				League:        row.Fixture.LeagueName,
				Kickoff:       kickoff(row.Fixture.KickoffTime),
				Rating:        row.Score.Rating,
				Reasons:       row.Score.Reasons,
				FavoritePrice: row.Snapshot.FavoritePrice(),
				Over25Price:   row.Snapshot.Over25Price,
				Gold:          row.Score.IsGold,
			})
		}
	}

	if sum.Aborted {
		notifier.NotifyWarning("Scan aborted by provider error: " + sum.AbortErr.Error())
		return fmt.Errorf("scan aborted: %w", sum.AbortErr)
	}
	return nil
}

func printRows(rows []scan.Row) {
	if len(rows) == 0 {
		fmt.Println("No matches passed the current filters.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLEAGUE\tMATCH\tFAV\tO2.5\tRATING\tTAGS")
	for _, row := range rows {
		marker := ""
		if row.Score.IsGold {
			marker = " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\t%s\t%d\t%s\n",
			kickoff(row.Fixture.KickoffTime),
			row.Fixture.LeagueName,
			row.Fixture.Label(), marker,
			price(row.Snapshot.FavoritePrice()),
			price(row.Snapshot.Over25Price),
			row.Score.Rating,
			strings.Join(row.Score.Reasons, ","),
		)
	}
	w.Flush()
}

func appendHistory(ctx context.Context, store storage.HistoryStore, rows []scan.Row, date string) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now()
	records := make([]storage.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, storage.HistoryRecord{
			FixtureID:     row.Fixture.ID,
			LogDate:       date,
			Kickoff:       kickoff(row.Fixture.KickoffTime),
			League:        row.Fixture.LeagueName,
			Match:         row.Fixture.Label(),
			FavoritePrice: row.Snapshot.FavoritePrice(),
			Over25Price:   row.Snapshot.Over25Price,
			Rating:        row.Score.Rating,
			Reasons:       row.Score.Reasons,
			Gold:          row.Score.IsGold,
			Trap:          row.Score.IsTrap,
			ScannedAt:     now,
		})
	}
	return store.Append(ctx, records)
}

func today(timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format("2006-01-02")
}

func kickoff(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format("15:04")
}

func price(p float64) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}
