package models

import "time"

// Side identifies one side of the match-winner market.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = ""
)

// FixtureStatusNotStarted is the upstream short code for a fixture that has
// not kicked off yet. Only these fixtures are eligible for scoring.
const FixtureStatusNotStarted = "NS"

// Fixture is one scheduled match as reported by the upstream provider.
// Read-only to this system: fetched, filtered, scored, discarded.
type Fixture struct {
	ID            int64     `json:"fixture_id"`
	KickoffTime   time.Time `json:"kickoff_time"`
	HomeTeamID    int64     `json:"home_team_id"`
	AwayTeamID    int64     `json:"away_team_id"`
	HomeTeamName  string    `json:"home_team_name"`
	AwayTeamName  string    `json:"away_team_name"`
	LeagueID      int64     `json:"league_id"`
	LeagueName    string    `json:"league_name"`
	LeagueCountry string    `json:"league_country"`
	Status        string    `json:"status"`
}

// Label returns the display name, e.g. "Milan - Inter".
func (f Fixture) Label() string {
	return f.HomeTeamName + " - " + f.AwayTeamName
}

// MarketSnapshot is the market state for one fixture at one point in time.
//
// A price of exactly 0 always means "not found / not parsed", never a real
// quoted price: real decimal odds are always > 1.0. Consumers must treat 0
// as unknown, not as a comparable value.
type MarketSnapshot struct {
	HomeWinPrice float64 `json:"home_price"`
	DrawPrice    float64 `json:"draw_price"`
	AwayWinPrice float64 `json:"away_price"`
	Over25Price  float64 `json:"over_2_5_price"`

	FirstHalfOver05Price float64 `json:"fh_over_0_5_price,omitempty"`
	FirstHalfOver15Price float64 `json:"fh_over_1_5_price,omitempty"`
	FirstHalfBTTSPrice   float64 `json:"fh_btts_price,omitempty"`
}

// Favorite returns the side with the strictly lower win price. When either
// price is unknown, or the prices are equal, the favorite is undefined.
func (s MarketSnapshot) Favorite() Side {
	if s.HomeWinPrice <= 0 || s.AwayWinPrice <= 0 {
		return SideNone
	}
	switch {
	case s.HomeWinPrice < s.AwayWinPrice:
		return SideHome
	case s.AwayWinPrice < s.HomeWinPrice:
		return SideAway
	}
	return SideNone
}

// FavoritePrice returns the win price of the favored side, or 0 when the
// favorite is undefined.
func (s MarketSnapshot) FavoritePrice() float64 {
	switch s.Favorite() {
	case SideHome:
		return s.HomeWinPrice
	case SideAway:
		return s.AwayWinPrice
	}
	return 0
}

// SidePrice returns the win price for the given side (0 for SideNone).
func (s MarketSnapshot) SidePrice(side Side) float64 {
	switch side {
	case SideHome:
		return s.HomeWinPrice
	case SideAway:
		return s.AwayWinPrice
	}
	return 0
}

// IsZero reports whether no field of the snapshot was parsed at all.
func (s MarketSnapshot) IsZero() bool {
	return s == MarketSnapshot{}
}

// SignalSet is the outcome of comparing a stored snapshot against a live
// re-fetch of the same fixture.
type SignalSet struct {
	Drop          bool    `json:"drop"`
	DropMagnitude float64 `json:"drop_magnitude"`
	Inversion     bool    `json:"inversion"`
	Trap          bool    `json:"trap"`

	// Favorite sides at both observation times, for reporting.
	PreviousFavorite Side `json:"previous_favorite"`
	CurrentFavorite  Side `json:"current_favorite"`
}

// TeamForm is the recent-history picture for one team.
type TeamForm struct {
	// SpectacleIndex is the mean total goals over the last completed
	// matches, 0 when unknown.
	SpectacleIndex float64 `json:"spectacle_index"`
	// FirstHalfGoalRate is the share of recent matches with at least one
	// goal before half time, in [0,1].
	FirstHalfGoalRate float64 `json:"first_half_goal_rate"`
	// GoalHunger is true when the team scored zero in its most recent
	// completed match.
	GoalHunger bool `json:"goal_hunger"`
	// Sampled is the number of completed matches the figures are based on.
	Sampled int `json:"sampled"`
}

// FormIndicators bundles both teams' form for one fixture.
type FormIndicators struct {
	Home TeamForm `json:"home"`
	Away TeamForm `json:"away"`
}

// ScoreResult is the output of one scoring pass for one fixture.
type ScoreResult struct {
	// Rating is always within [0,100].
	Rating int `json:"rating"`
	// Reasons lists the tags of the rules that fired, in evaluation order.
	Reasons []string `json:"reasons"`
	// IsTrap forces Rating to 0 and suppresses every other rule.
	IsTrap bool `json:"is_trap"`
	// IsGold is true when the favorite price sits in the sweet-spot band.
	IsGold bool `json:"is_gold"`
}
