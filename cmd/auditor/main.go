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

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/audit"
	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/logging"
	"github.com/dweezil78/sniper-app/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

// The auditor re-fetches real results for previously logged picks and
// prints naive win rates per strategy tag. It performs no scoring.
func main() {
	if err := run(); err != nil {
		slog.Error("Audit failed", "error", err)
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
	flag.StringVar(&date, "date", "", "Log date YYYY-MM-DD to audit (default: all logged days)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(&cfg.Logging, "auditor")

	if cfg.API.Key == "" {
		return fmt.Errorf("API key is required (api.key in config or APISPORTS_KEY env var)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	historyStore, err := storage.OpenHistoryStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer historyStore.Close()

	records, err := historyStore.Load(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to load history log: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No logged picks to audit.")
		return nil
	}
	slog.Info("History loaded", "picks", len(records), "date", date)

	client := apisports.NewClient(&cfg.API, apisports.NewMemoryCache())
	auditor := audit.NewAuditor(client)

	outcomes, sum := auditor.Verify(ctx, records)
	slog.Info("Audit finished",
		"checked", sum.Checked, "unfinished", sum.Unfinished, "skipped", sum.Skipped)

	if len(outcomes) == 0 {
		fmt.Println("No finished matches among the logged picks yet.")
		return nil
	}

	printOutcomes(outcomes)
	printSummary(audit.Summarize(outcomes))
	return nil
}

func printOutcomes(outcomes []audit.Outcome) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMATCH\tTAGS\tHT\tFT\tO0.5 HT\tO2.5 FT\tRATING")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			o.Record.Kickoff,
			o.Record.Match,
			strings.Join(o.Record.Reasons, ","),
			o.HTScore,
			o.FTScore,
			winLoss(o.HTOver05Win),
			winLoss(o.FTOver25Win),
			o.Record.Rating,
		)
	}
	w.Flush()
}

func printSummary(summaries []audit.TagSummary) {
	if len(summaries) == 0 {
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tMATCHES\tWIN HT\tWR HT %\tWR O2.5 FT %")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d/%d\t%.1f%%\t%.1f%%\n",
			s.Tag, s.Matches, s.HTWins, s.Matches, s.HTWinRate, s.FTWinRate)
	}
	w.Flush()
}

func winLoss(win bool) string {
	if win {
		return "WIN"
	}
	return "LOSS"
}
