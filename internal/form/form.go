package form

import (
	"context"
	"fmt"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// lastMatches is how far back the form window reaches.
const lastMatches = 5

// HistoryFetcher is the slice of the API client the form lookups need.
type HistoryFetcher interface {
	FetchTeamLastFixtures(ctx context.Context, teamID int64, last int) ([]apisports.FixtureItem, error)
}

// Lookup fetches both teams' recent history and derives the form
// indicators for one fixture. A failed lookup surfaces as an error; the
// scan treats that as "no form" and keeps going.
func Lookup(ctx context.Context, fetcher HistoryFetcher, fixture models.Fixture) (*models.FormIndicators, error) {
	home, err := teamForm(ctx, fetcher, fixture.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("home team %d form: %w", fixture.HomeTeamID, err)
	}
	away, err := teamForm(ctx, fetcher, fixture.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("away team %d form: %w", fixture.AwayTeamID, err)
	}
	return &models.FormIndicators{Home: home, Away: away}, nil
}

func teamForm(ctx context.Context, fetcher HistoryFetcher, teamID int64) (models.TeamForm, error) {
	items, err := fetcher.FetchTeamLastFixtures(ctx, teamID, lastMatches)
	if err != nil {
		return models.TeamForm{}, err
	}
	return Derive(teamID, items), nil
}

// Derive computes a team's form from its recent fixtures, newest first as
// the provider returns them. Matches without a full-time score (abandoned,
// still listed as upcoming) are left out of the sample.
func Derive(teamID int64, items []apisports.FixtureItem) models.TeamForm {
	var f models.TeamForm
	totalGoals := 0
	firstHalfHits := 0
	hungerChecked := false

	for _, it := range items {
		if it.Goals.Home == nil || it.Goals.Away == nil {
			continue
		}
		f.Sampled++
		totalGoals += *it.Goals.Home + *it.Goals.Away

		if it.Score.Halftime.Home != nil && it.Score.Halftime.Away != nil &&
			*it.Score.Halftime.Home+*it.Score.Halftime.Away >= 1 {
			firstHalfHits++
		}

		// Goal hunger reads only the most recent completed match: did
		// this team fail to score?
		if !hungerChecked {
			hungerChecked = true
			own := it.Goals.Home
			if it.Teams.Away.ID == teamID {
				own = it.Goals.Away
			}
			f.GoalHunger = own != nil && *own == 0
		}
	}

	if f.Sampled > 0 {
		f.SpectacleIndex = float64(totalGoals) / float64(f.Sampled)
		f.FirstHalfGoalRate = float64(firstHalfHits) / float64(f.Sampled)
	}
	return f
}
