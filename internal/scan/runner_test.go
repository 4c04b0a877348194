package scan

import (
	"context"
	"testing"
	"time"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
	"github.com/dweezil78/sniper-app/internal/scoring"
)

// fakeFetcher serves canned odds payloads and errors per fixture id.
type fakeFetcher struct {
	odds map[int64]apisports.OddsItem
	errs map[int64]error
	form map[int64][]apisports.FixtureItem
}

func (f *fakeFetcher) FetchOdds(ctx context.Context, fixtureID int64) (apisports.OddsItem, error) {
	if err := ctx.Err(); err != nil {
		return apisports.OddsItem{}, err
	}
	if err, ok := f.errs[fixtureID]; ok {
		return apisports.OddsItem{}, err
	}
	return f.odds[fixtureID], nil
}

func (f *fakeFetcher) FetchTeamLastFixtures(ctx context.Context, teamID int64, last int) ([]apisports.FixtureItem, error) {
	return f.form[teamID], nil
}

func oddsPayload(fixtureID int64, home, draw, away, over25 string) apisports.OddsItem {
	var item apisports.OddsItem
	item.Fixture.ID = fixtureID
	item.Bookmakers = []apisports.Bookmaker{{
		ID: 8, Name: "Bet365",
		Bets: []apisports.Bet{
			{
				ID:   apisports.BetIDMatchWinner,
				Name: "Match Winner",
				Values: []apisports.BetValue{
					{Value: "Home", Odd: home},
					{Value: "Draw", Odd: draw},
					{Value: "Away", Odd: away},
				},
			},
			{
				ID:   apisports.BetIDOverUnder,
				Name: "Goals Over/Under",
				Values: []apisports.BetValue{
					{Value: "Over 2.5", Odd: over25},
				},
			},
		},
	}}
	return item
}

func scanFixture(id int64, kickoff time.Time) models.Fixture {
	return models.Fixture{
		ID:           id,
		KickoffTime:  kickoff,
		HomeTeamID:   id * 10,
		AwayTeamID:   id*10 + 1,
		HomeTeamName: "Home",
		AwayTeamName: "Away",
		LeagueName:   "Serie A",
		Status:       models.FixtureStatusNotStarted,
	}
}

func testSignalsConfig() config.SignalsConfig {
	return config.SignalsConfig{
		DropThreshold:   0.15,
		DropCeiling:     1.85,
		InversionMargin: 0.10,
		TrapThreshold:   1.50,
	}
}

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		BaseRating: 40, DropBonus: 40, InversionBonus: 25,
		ValueZoneLow: 1.70, ValueZoneHigh: 2.15, ValueBonus: 15,
		FirstHalfQuoteLow: 1.30, FirstHalfQuoteHigh: 1.55, FirstHalfBonus: 10,
		FormRateThreshold: 0.60, FormBonus: 20, GoalHungerBonus: 15,
		SweetSpotLow: 1.40, SweetSpotHigh: 2.10,
	}
}

func newTestRunner(f *fakeFetcher, scanCfg config.ScanConfig) *Runner {
	return NewRunner(f, scoring.NewEngine(testScoringConfig()), testSignalsConfig(), scanCfg)
}

func TestRunScoresDropAgainstPrior(t *testing.T) {
	kickoff := time.Date(2026, 8, 28, 20, 45, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		odds: map[int64]apisports.OddsItem{
			1001: oddsPayload(1001, "1.70", "3.80", "4.50", "2.30"),
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1})

	prior := map[int64]models.MarketSnapshot{
		1001: {HomeWinPrice: 1.90, DrawPrice: 3.60, AwayWinPrice: 4.20, Over25Price: 2.30},
	}

	rows, sum := runner.Run(context.Background(), []models.Fixture{scanFixture(1001, kickoff)}, prior)
	if sum.Analyzed != 1 || sum.Skipped != 0 || sum.Aborted {
		t.Fatalf("summary = %+v, want 1 analyzed", sum)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if !row.Signals.Drop {
		t.Error("expected the 1.90 -> 1.70 drop to fire")
	}
	if row.Score.Rating != 80 {
		t.Errorf("rating = %d, want 80 (base + drop)", row.Score.Rating)
	}
	if !row.Score.IsGold {
		t.Error("favorite at 1.70 should be gold")
	}
}

func TestRunSkipsTransportErrors(t *testing.T) {
	kickoff := time.Now().Add(4 * time.Hour)
	fetcher := &fakeFetcher{
		odds: map[int64]apisports.OddsItem{
			1001: oddsPayload(1001, "1.80", "3.60", "4.20", "1.90"),
		},
		errs: map[int64]error{
			1002: &apisports.TransportError{Status: 502, Body: "bad gateway"},
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1})

	fixtures := []models.Fixture{scanFixture(1001, kickoff), scanFixture(1002, kickoff)}
	rows, sum := runner.Run(context.Background(), fixtures, nil)

	if sum.Skipped != 1 || sum.Analyzed != 1 || sum.Aborted {
		t.Errorf("summary = %+v, want 1 skipped, 1 analyzed, no abort", sum)
	}
	if len(rows) != 1 || rows[0].Fixture.ID != 1001 {
		t.Errorf("rows = %v, want only fixture 1001", rows)
	}
}

func TestRunAbortsOnProviderError(t *testing.T) {
	kickoff := time.Now().Add(4 * time.Hour)
	fetcher := &fakeFetcher{
		errs: map[int64]error{
			1001: &apisports.ProviderError{Messages: []string{"request limit reached"}},
		},
		odds: map[int64]apisports.OddsItem{
			1002: oddsPayload(1002, "1.80", "3.60", "4.20", "1.90"),
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1})

	fixtures := []models.Fixture{scanFixture(1001, kickoff), scanFixture(1002, kickoff)}
	rows, sum := runner.Run(context.Background(), fixtures, nil)

	if !sum.Aborted || sum.AbortErr == nil {
		t.Fatalf("summary = %+v, want aborted with error", sum)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows after abort on the first fixture, want 0", len(rows))
	}
}

func TestRunMinRatingAndTrapFilter(t *testing.T) {
	kickoff := time.Now().Add(4 * time.Hour)
	fetcher := &fakeFetcher{
		odds: map[int64]apisports.OddsItem{
			// Trap: over 2.5 quoted below 1.50.
			1001: oddsPayload(1001, "1.40", "4.50", "7.00", "1.35"),
			// Plain base-rating fixture.
			1002: oddsPayload(1002, "2.40", "3.20", "2.90", "2.30"),
			// Value-zone fixture clears the bar.
			1003: oddsPayload(1003, "2.40", "3.20", "2.90", "1.90"),
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1, MinRating: 50, HideTraps: true})

	fixtures := []models.Fixture{
		scanFixture(1001, kickoff),
		scanFixture(1002, kickoff),
		scanFixture(1003, kickoff),
	}
	rows, sum := runner.Run(context.Background(), fixtures, nil)

	if sum.Analyzed != 3 || sum.Filtered != 2 {
		t.Errorf("summary = %+v, want 3 analyzed with 2 filtered", sum)
	}
	if len(rows) != 1 || rows[0].Fixture.ID != 1003 {
		t.Errorf("rows = %v, want only the value-zone fixture", ids(fixturesOf(rows)))
	}
}

func TestRunSortsByRatingThenKickoff(t *testing.T) {
	early := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 28, 21, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		odds: map[int64]apisports.OddsItem{
			// Base rating only.
			1001: oddsPayload(1001, "2.40", "3.20", "2.90", "2.30"),
			// Value zone, late kickoff.
			1002: oddsPayload(1002, "2.40", "3.20", "2.90", "1.90"),
			// Value zone, early kickoff.
			1003: oddsPayload(1003, "2.40", "3.20", "2.90", "1.90"),
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1})

	fixtures := []models.Fixture{
		scanFixture(1001, early),
		scanFixture(1002, late),
		scanFixture(1003, early),
	}
	rows, _ := runner.Run(context.Background(), fixtures, nil)

	got := ids(fixturesOf(rows))
	want := []int64{1003, 1002, 1001}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRunPoolMatchesSequential(t *testing.T) {
	kickoff := time.Date(2026, 8, 28, 20, 45, 0, 0, time.UTC)
	odds := make(map[int64]apisports.OddsItem)
	var fixtures []models.Fixture
	for id := int64(1); id <= 20; id++ {
		odds[id] = oddsPayload(id, "2.40", "3.20", "2.90", "1.90")
		fixtures = append(fixtures, scanFixture(id, kickoff.Add(time.Duration(id)*time.Minute)))
	}
	fetcher := &fakeFetcher{odds: odds}

	seqRows, seqSum := newTestRunner(fetcher, config.ScanConfig{Workers: 1}).Run(context.Background(), fixtures, nil)
	poolRows, poolSum := newTestRunner(fetcher, config.ScanConfig{Workers: 4}).Run(context.Background(), fixtures, nil)

	if seqSum.Analyzed != poolSum.Analyzed || seqSum.Skipped != poolSum.Skipped {
		t.Errorf("pool summary %+v differs from sequential %+v", poolSum, seqSum)
	}
	if len(seqRows) != len(poolRows) {
		t.Fatalf("pool returned %d rows, sequential %d", len(poolRows), len(seqRows))
	}
	for i := range seqRows {
		if seqRows[i].Fixture.ID != poolRows[i].Fixture.ID {
			t.Fatalf("row %d: pool fixture %d, sequential %d",
				i, poolRows[i].Fixture.ID, seqRows[i].Fixture.ID)
		}
	}
}

func TestCaptureSkipsEmptyMarkets(t *testing.T) {
	kickoff := time.Now().Add(4 * time.Hour)
	var empty apisports.OddsItem
	empty.Fixture.ID = 1002

	fetcher := &fakeFetcher{
		odds: map[int64]apisports.OddsItem{
			1001: oddsPayload(1001, "1.90", "3.40", "4.20", "1.85"),
			1002: empty,
		},
		errs: map[int64]error{
			1003: &apisports.TransportError{Status: 500, Body: "oops"},
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1})

	fixtures := []models.Fixture{
		scanFixture(1001, kickoff),
		scanFixture(1002, kickoff),
		scanFixture(1003, kickoff),
	}
	odds, sum := runner.Capture(context.Background(), fixtures)

	if len(odds) != 1 {
		t.Fatalf("captured %d snapshots, want 1", len(odds))
	}
	if snap, ok := odds[1001]; !ok || snap.HomeWinPrice != 1.90 {
		t.Errorf("snapshot for 1001 = %+v, want home 1.90", snap)
	}
	if sum.Analyzed != 1 || sum.Skipped != 2 || sum.Aborted {
		t.Errorf("summary = %+v, want 1 analyzed, 2 skipped", sum)
	}
}

func TestCaptureAbortsOnProviderError(t *testing.T) {
	kickoff := time.Now().Add(4 * time.Hour)
	fetcher := &fakeFetcher{
		odds: map[int64]apisports.OddsItem{
			1001: oddsPayload(1001, "1.90", "3.40", "4.20", "1.85"),
		},
		errs: map[int64]error{
			1002: &apisports.ProviderError{Messages: []string{"invalid api key"}},
		},
	}
	runner := newTestRunner(fetcher, config.ScanConfig{Workers: 1})

	fixtures := []models.Fixture{scanFixture(1001, kickoff), scanFixture(1002, kickoff)}
	odds, sum := runner.Capture(context.Background(), fixtures)

	if !sum.Aborted || sum.AbortErr == nil {
		t.Fatalf("summary = %+v, want aborted", sum)
	}
	// What was fetched before the abort is still returned; the caller
	// decides whether a partial snapshot is worth keeping.
	if len(odds) != 1 {
		t.Errorf("captured %d snapshots before abort, want 1", len(odds))
	}
}

func fixturesOf(rows []Row) []models.Fixture {
	out := make([]models.Fixture, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Fixture)
	}
	return out
}
