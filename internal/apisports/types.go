package apisports

import "time"

// Raw wire types for the API-Sports v3 football endpoints. Every field is
// optional on the wire; parsing tolerates absence.

// FixtureItem is one element of the /fixtures response.
type FixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"` // RFC3339 with offset
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"league"`
	Teams struct {
		Home TeamRef `json:"home"`
		Away TeamRef `json:"away"`
	} `json:"teams"`
	// Goals is the full-time score, null until the match produces one.
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
	Score struct {
		Halftime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"halftime"`
	} `json:"score"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// KickoffTime parses the fixture date, zero time on failure.
func (f FixtureItem) KickoffTime() time.Time {
	t, err := time.Parse(time.RFC3339, f.Fixture.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// OddsItem is one element of the /odds response: the bookmaker blocks for
// a single fixture.
type OddsItem struct {
	Fixture struct {
		ID int64 `json:"id"`
	} `json:"fixture"`
	Bookmakers []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Bets []Bet  `json:"bets"`
}

type Bet struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Values []BetValue `json:"values"`
}

// BetValue is one quoted outcome. The provider quotes odds as strings.
type BetValue struct {
	Value string `json:"value"`
	Odd   string `json:"odd"`
}

// Known bet ids on API-Sports, stable across bookmakers.
const (
	BetIDMatchWinner = 1 // 1X2
	BetIDOverUnder   = 5 // full-time goals over/under
)
