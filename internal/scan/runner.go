package scan

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/form"
	"github.com/dweezil78/sniper-app/internal/market"
	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
	"github.com/dweezil78/sniper-app/internal/scoring"
	"github.com/dweezil78/sniper-app/internal/signal"
)

// Fetcher is the slice of the API client the runner needs.
type Fetcher interface {
	FetchOdds(ctx context.Context, fixtureID int64) (apisports.OddsItem, error)
	FetchTeamLastFixtures(ctx context.Context, teamID int64, last int) ([]apisports.FixtureItem, error)
}

// Row is one scored fixture, ready for rendering and logging.
type Row struct {
	Fixture  models.Fixture
	Snapshot models.MarketSnapshot
	Signals  models.SignalSet
	Form     *models.FormIndicators
	Score    models.ScoreResult
}

// Summary carries the operator-facing counters for one scan.
type Summary struct {
	Analyzed int // fixtures that went through scoring
	Skipped  int // fixtures dropped on fetch/transport failure
	Filtered int // scored but below min rating / hidden traps
	NoForm   int // fixtures scored without form data
	// Aborted is set when a provider-side error (quota, bad key) stopped
	// the batch; AbortErr holds it.
	Aborted  bool
	AbortErr error
}

// Runner drives one scan: odds fetch, extraction, snapshot comparison,
// scoring. Fixtures are independent of each other; a failure only ever
// costs its own fixture, except for provider errors which poison the
// whole batch.
type Runner struct {
	fetcher Fetcher
	engine  *scoring.Engine
	signals config.SignalsConfig
	scan    config.ScanConfig
}

func NewRunner(fetcher Fetcher, engine *scoring.Engine, signals config.SignalsConfig, scanCfg config.ScanConfig) *Runner {
	return &Runner{fetcher: fetcher, engine: engine, signals: signals, scan: scanCfg}
}

// Run scores the given fixtures against the prior snapshot mapping (nil
// or empty on a fresh day; the caller has already checked staleness).
// Rows come back sorted by rating descending, kickoff ascending.
func (r *Runner) Run(ctx context.Context, fixtures []models.Fixture, prior map[int64]models.MarketSnapshot) ([]Row, Summary) {
	workers := r.scan.Workers
	if workers <= 1 {
		return r.runSequential(ctx, fixtures, prior)
	}
	return r.runPool(ctx, fixtures, prior, workers)
}

func (r *Runner) runSequential(ctx context.Context, fixtures []models.Fixture, prior map[int64]models.MarketSnapshot) ([]Row, Summary) {
	var rows []Row
	var sum Summary

	for _, fixture := range fixtures {
		select {
		case <-ctx.Done():
			return sortRows(rows), sum
		default:
		}

		row, err := r.scoreFixture(ctx, fixture, prior, &sum)
		if err != nil {
			if apisports.IsProviderError(err) {
				slog.Error("Provider error, aborting remaining batch", "error", err)
				sum.Aborted = true
				sum.AbortErr = err
				return sortRows(rows), sum
			}
			slog.Warn("Skipping fixture", "fixture_id", fixture.ID, "match", fixture.Label(), "error", err)
			sum.Skipped++
			continue
		}
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return sortRows(rows), sum
}

// runPool fans fixtures out over a bounded worker pool. Scoring one
// fixture never depends on another, so the only shared state is the
// result slice and the counters.
func (r *Runner) runPool(ctx context.Context, fixtures []models.Fixture, prior map[int64]models.MarketSnapshot, workers int) ([]Row, Summary) {
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var rows []Row
	var sum Summary

	jobs := make(chan models.Fixture)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fixture := range jobs {
				row, err := r.scoreFixtureLocked(poolCtx, fixture, prior, &mu, &sum)
				if err != nil {
					if apisports.IsProviderError(err) {
						mu.Lock()
						if !sum.Aborted {
							slog.Error("Provider error, aborting remaining batch", "error", err)
							sum.Aborted = true
							sum.AbortErr = err
						}
						mu.Unlock()
						cancel()
						continue
					}
					slog.Warn("Skipping fixture", "fixture_id", fixture.ID, "match", fixture.Label(), "error", err)
					mu.Lock()
					sum.Skipped++
					mu.Unlock()
					continue
				}
				if row != nil {
					mu.Lock()
					rows = append(rows, *row)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, fixture := range fixtures {
		select {
		case <-poolCtx.Done():
			break feed
		case jobs <- fixture:
		}
	}
	close(jobs)
	wg.Wait()

	return sortRows(rows), sum
}

// scoreFixtureLocked wraps scoreFixture for pool use, taking the counter
// lock around summary updates.
func (r *Runner) scoreFixtureLocked(ctx context.Context, fixture models.Fixture, prior map[int64]models.MarketSnapshot, mu *sync.Mutex, sum *Summary) (*Row, error) {
	var local Summary
	row, err := r.scoreFixture(ctx, fixture, prior, &local)
	mu.Lock()
	sum.Analyzed += local.Analyzed
	sum.Filtered += local.Filtered
	sum.NoForm += local.NoForm
	mu.Unlock()
	return row, err
}

// scoreFixture runs the full pipeline for one fixture. A nil row with nil
// error means the fixture was scored but filtered out.
func (r *Runner) scoreFixture(ctx context.Context, fixture models.Fixture, prior map[int64]models.MarketSnapshot, sum *Summary) (*Row, error) {
	oddsItem, err := r.fetcher.FetchOdds(ctx, fixture.ID)
	if err != nil {
		return nil, err
	}

	snapshot, unparsed := market.Extract(oddsItem)
	if len(unparsed) > 0 {
		slog.Debug("Odds fields degraded to sentinel", "fixture_id", fixture.ID, "fields", unparsed)
	}

	var prev *models.MarketSnapshot
	if prior != nil {
		if p, ok := prior[fixture.ID]; ok {
			prev = &p
		}
	}
	signals := signal.Compare(prev, snapshot, r.signals)

	var indicators *models.FormIndicators
	if r.scan.WithForm {
		indicators, err = form.Lookup(ctx, r.fetcher, fixture)
		if err != nil {
			// Form is a bonus input, not a dependency: score without it.
			if apisports.IsProviderError(err) {
				return nil, err
			}
			slog.Debug("Form lookup failed, scoring without form", "fixture_id", fixture.ID, "error", err)
			sum.NoForm++
			indicators = nil
		}
	}

	score := r.engine.Score(snapshot, signals, indicators)
	sum.Analyzed++

	if score.Rating < r.scan.MinRating || (r.scan.HideTraps && score.IsTrap) {
		sum.Filtered++
		return nil, nil
	}

	return &Row{
		Fixture:  fixture,
		Snapshot: snapshot,
		Signals:  signals,
		Form:     indicators,
		Score:    score,
	}, nil
}

// Capture fetches and extracts the current market snapshot for every
// fixture, for the save-snapshot action. Failed fixtures are skipped;
// provider errors abort.
func (r *Runner) Capture(ctx context.Context, fixtures []models.Fixture) (map[int64]models.MarketSnapshot, Summary) {
	odds := make(map[int64]models.MarketSnapshot, len(fixtures))
	var sum Summary

	for _, fixture := range fixtures {
		select {
		case <-ctx.Done():
			return odds, sum
		default:
		}

		item, err := r.fetcher.FetchOdds(ctx, fixture.ID)
		if err != nil {
			if apisports.IsProviderError(err) {
				slog.Error("Provider error, aborting snapshot capture", "error", err)
				sum.Aborted = true
				sum.AbortErr = err
				return odds, sum
			}
			slog.Warn("Skipping fixture in capture", "fixture_id", fixture.ID, "error", err)
			sum.Skipped++
			continue
		}

		snapshot, _ := market.Extract(item)
		if snapshot.IsZero() {
			// Nothing quoted yet; a zero record would only poison the
			// evening comparison.
			sum.Skipped++
			continue
		}
		odds[fixture.ID] = snapshot
		sum.Analyzed++
	}
	return odds, sum
}

func sortRows(rows []Row) []Row {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score.Rating != rows[j].Score.Rating {
			return rows[i].Score.Rating > rows[j].Score.Rating
		}
		return rows[i].Fixture.KickoffTime.Before(rows[j].Fixture.KickoffTime)
	})
	return rows
}
