package audit

import (
	"context"
	"testing"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/pkg/storage"
)

func intp(v int) *int { return &v }

func finished(ftHome, ftAway, htHome, htAway int) *apisports.FixtureItem {
	var it apisports.FixtureItem
	it.Goals.Home = intp(ftHome)
	it.Goals.Away = intp(ftAway)
	it.Score.Halftime.Home = intp(htHome)
	it.Score.Halftime.Away = intp(htAway)
	return &it
}

type fakeFixtureFetcher struct {
	byID map[int64]*apisports.FixtureItem
	errs map[int64]error
}

func (f *fakeFixtureFetcher) FetchFixtureByID(ctx context.Context, fixtureID int64) (*apisports.FixtureItem, error) {
	if err, ok := f.errs[fixtureID]; ok {
		return nil, err
	}
	return f.byID[fixtureID], nil
}

func record(fixtureID int64, reasons ...string) storage.HistoryRecord {
	return storage.HistoryRecord{
		FixtureID: fixtureID,
		LogDate:   "2026-08-28",
		Match:     "Milan - Inter",
		Rating:    80,
		Reasons:   reasons,
	}
}

func TestVerify(t *testing.T) {
	fetcher := &fakeFixtureFetcher{
		byID: map[int64]*apisports.FixtureItem{
			// 2-1 after 1-0: wins both bets.
			1001: finished(2, 1, 1, 0),
			// 1-1 after 0-0: loses both.
			1002: finished(1, 1, 0, 0),
			// Not finished yet.
			1003: {},
			// Not found at all.
			1004: nil,
		},
		errs: map[int64]error{
			1005: &apisports.TransportError{Status: 500, Body: "oops"},
		},
	}
	auditor := NewAuditor(fetcher)

	records := []storage.HistoryRecord{
		record(1001, "drop"),
		record(1002, "value"),
		record(1003, "drop"),
		record(1004, "drop"),
		record(1005, "drop"),
	}

	outcomes, sum := auditor.Verify(context.Background(), records)
	if sum.Checked != 2 || sum.Unfinished != 2 || sum.Skipped != 1 {
		t.Fatalf("summary = %+v, want 2 checked, 2 unfinished, 1 skipped", sum)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	win := outcomes[0]
	if win.FTScore != "2-1" || win.HTScore != "1-0" {
		t.Errorf("scores = %s / %s, want 1-0 / 2-1", win.HTScore, win.FTScore)
	}
	if !win.HTOver05Win || !win.FTOver25Win {
		t.Errorf("outcome = %+v, want both bets won", win)
	}

	loss := outcomes[1]
	if loss.HTOver05Win || loss.FTOver25Win {
		t.Errorf("outcome = %+v, want both bets lost", loss)
	}
}

func TestVerifyMissingHalftimeScore(t *testing.T) {
	var it apisports.FixtureItem
	it.Goals.Home = intp(3)
	it.Goals.Away = intp(1)
	fetcher := &fakeFixtureFetcher{byID: map[int64]*apisports.FixtureItem{1001: &it}}

	outcomes, sum := NewAuditor(fetcher).Verify(context.Background(), []storage.HistoryRecord{record(1001, "drop")})
	if sum.Checked != 1 || len(outcomes) != 1 {
		t.Fatalf("summary = %+v outcomes = %d, want the fixture checked", sum, len(outcomes))
	}
	o := outcomes[0]
	if o.HTScore != "0-0" || o.HTOver05Win {
		t.Errorf("missing halftime data must read as 0-0 loss, got %+v", o)
	}
	if !o.FTOver25Win {
		t.Error("3-1 should win the over 2.5")
	}
}

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{
		{Record: record(1, "drop", "value"), HTOver05Win: true, FTOver25Win: true},
		{Record: record(2, "drop"), HTOver05Win: false, FTOver25Win: true},
		{Record: record(3, "value"), HTOver05Win: true, FTOver25Win: false},
		// trap is not an audited tag and must not produce a line.
		{Record: record(4, "trap"), HTOver05Win: true, FTOver25Win: true},
	}

	summaries := Summarize(outcomes)
	if len(summaries) != 2 {
		t.Fatalf("got %d tag summaries, want 2 (drop, value)", len(summaries))
	}

	drop := summaries[0]
	if drop.Tag != "drop" || drop.Matches != 2 || drop.HTWins != 1 || drop.FTWins != 2 {
		t.Errorf("drop summary = %+v, want 2 matches, 1 HT win, 2 FT wins", drop)
	}
	if drop.HTWinRate != 50.0 || drop.FTWinRate != 100.0 {
		t.Errorf("drop rates = %.1f / %.1f, want 50 / 100", drop.HTWinRate, drop.FTWinRate)
	}

	value := summaries[1]
	if value.Tag != "value" || value.Matches != 2 || value.HTWins != 2 || value.FTWins != 1 {
		t.Errorf("value summary = %+v, want 2 matches, 2 HT wins, 1 FT win", value)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != nil {
		t.Errorf("Summarize(nil) = %v, want nil", got)
	}
}
