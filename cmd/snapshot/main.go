package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
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

// The snapshot command captures today's market prices so that a later
// scan can read drops and inversions against them. Run it in the morning,
// scan in the evening.
func main() {
	if err := run(); err != nil {
		slog.Error("Snapshot capture failed", "error", err)
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
	flag.StringVar(&date, "date", "", "Capture date YYYY-MM-DD (default: today in the configured timezone)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(&cfg.Logging, "snapshot")

	if cfg.API.Key == "" {
		return fmt.Errorf("API key is required (api.key in config or APISPORTS_KEY env var)")
	}
	if date == "" {
		date = today(cfg.API.Timezone)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apisports.NewClient(&cfg.API, apisports.NewMemoryCache())
	runner := scan.NewRunner(client, scoring.NewEngine(cfg.Scoring), cfg.Signals, cfg.Scan)

	store, err := storage.OpenSnapshotStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	notifier := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	defer notifier.Close()

	slog.Info("Fetching fixtures", "date", date, "timezone", cfg.API.Timezone)
	fixtures, err := client.FetchFixtures(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	eligible := scan.FilterFixtures(fixtures, cfg.Leagues)
	slog.Info("Fixtures filtered", "total", len(fixtures), "eligible", len(eligible))

	odds, sum := runner.Capture(ctx, eligible)
	slog.Info("Market snapshot captured", "fixtures", len(odds), "skipped", sum.Skipped)

	if err := ctx.Err(); err != nil {
		// Cancelled mid-capture: do not overwrite a complete snapshot
		// with a partial one.
		return fmt.Errorf("capture interrupted, snapshot not written: %w", err)
	}

	if err := store.Save(ctx, date, odds); err != nil {
		// Losing the snapshot silently would blind the evening scan's
		// drop detection; make it loud.
		notifier.NotifyWarning("Snapshot write failed: " + err.Error())
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	fmt.Printf("Snapshot saved: %d fixtures for %s\n", len(odds), date)

	if sum.Aborted {
		notifier.NotifyWarning("Snapshot capture aborted by provider error: " + sum.AbortErr.Error())
		return fmt.Errorf("capture aborted: %w", sum.AbortErr)
	}
	return nil
}

func today(timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format("2006-01-02")
}
