package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/pkg/storage"
	"github.com/dweezil78/sniper-app/internal/scoring"
)

// FixtureFetcher is the slice of the API client the auditor needs.
type FixtureFetcher interface {
	FetchFixtureByID(ctx context.Context, fixtureID int64) (*apisports.FixtureItem, error)
}

// Outcome is one logged pick checked against the real result.
type Outcome struct {
	Record  storage.HistoryRecord
	HTScore string // e.g. "1-0"
	FTScore string
	// HTOver05Win: at least one goal before half time.
	HTOver05Win bool
	// FTOver25Win: at least three goals in the match.
	FTOver25Win bool
}

// TagSummary is the naive win-rate line for one reason tag.
type TagSummary struct {
	Tag       string
	Matches   int
	HTWins    int
	FTWins    int
	HTWinRate float64 // percent
	FTWinRate float64 // percent
}

// Summary carries the auditor's skip counters.
type Summary struct {
	Checked    int
	Unfinished int
	Skipped    int
}

// Auditor re-fetches real outcomes for previously logged picks. It never
// scores anything; it only verifies.
type Auditor struct {
	fetcher FixtureFetcher
}

func NewAuditor(fetcher FixtureFetcher) *Auditor {
	return &Auditor{fetcher: fetcher}
}

// Verify fetches the final and half-time scores for each logged record.
// Records without a full-time score yet, and fetch failures, are skipped
// and counted.
func (a *Auditor) Verify(ctx context.Context, records []storage.HistoryRecord) ([]Outcome, Summary) {
	var outcomes []Outcome
	var sum Summary

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return outcomes, sum
		default:
		}

		item, err := a.fetcher.FetchFixtureByID(ctx, rec.FixtureID)
		if err != nil {
			slog.Warn("Skipping logged fixture", "fixture_id", rec.FixtureID, "error", err)
			sum.Skipped++
			continue
		}
		if item == nil || item.Goals.Home == nil || item.Goals.Away == nil {
			sum.Unfinished++
			continue
		}

		ftHome, ftAway := *item.Goals.Home, *item.Goals.Away
		htHome, htAway := 0, 0
		if item.Score.Halftime.Home != nil {
			htHome = *item.Score.Halftime.Home
		}
		if item.Score.Halftime.Away != nil {
			htAway = *item.Score.Halftime.Away
		}

		outcomes = append(outcomes, Outcome{
			Record:      rec,
			HTScore:     fmt.Sprintf("%d-%d", htHome, htAway),
			FTScore:     fmt.Sprintf("%d-%d", ftHome, ftAway),
			HTOver05Win: htHome+htAway >= 1,
			FTOver25Win: ftHome+ftAway >= 3,
		})
		sum.Checked++
	}
	return outcomes, sum
}

// AuditedTags is the set of strategy tags the win-rate table reports on.
var AuditedTags = []string{
	scoring.ReasonDrop,
	scoring.ReasonInversion,
	scoring.ReasonValue,
	scoring.ReasonHTQuote,
	scoring.ReasonHTForm,
	scoring.ReasonGoalHunger,
}

// Summarize aggregates per-tag win rates over the verified outcomes. Tags
// with no matches are left out.
func Summarize(outcomes []Outcome) []TagSummary {
	var out []TagSummary
	for _, tag := range AuditedTags {
		var s TagSummary
		s.Tag = tag
		for _, o := range outcomes {
			if !hasTag(o.Record.Reasons, tag) {
				continue
			}
			s.Matches++
			if o.HTOver05Win {
				s.HTWins++
			}
			if o.FTOver25Win {
				s.FTWins++
			}
		}
		if s.Matches == 0 {
			continue
		}
		s.HTWinRate = float64(s.HTWins) / float64(s.Matches) * 100
		s.FTWinRate = float64(s.FTWins) / float64(s.Matches) * 100
		out = append(out, s)
	}
	return out
}

func hasTag(reasons []string, tag string) bool {
	for _, r := range reasons {
		if r == tag {
			return true
		}
	}
	return false
}
