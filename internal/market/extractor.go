package market

import (
	"strconv"
	"strings"

	"github.com/dweezil78/sniper-app/internal/apisports"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// Price sanity bounds. A decimal odd at or below 1.0 cannot be a real
// quote, and anything above maxPlausiblePrice is a mis-parsed field.
const maxPlausiblePrice = 1000.0

// First-half markets are matched by fuzzy label, so a hit on an unrelated
// market is possible. Prices outside these bands are rejected as
// mis-matches rather than accepted as quotes.
const (
	fhOver05Min = 1.05
	fhOver05Max = 2.2
	fhOver15Min = 1.4
	fhOver15Max = 8.5
	fhBTTSMin   = 1.3
	fhBTTSMax   = 12.0
)

// Extract parses one fixture's raw odds payload into a MarketSnapshot.
// Missing bookmakers, bets or values degrade the affected fields to the
// 0.0 sentinel; the second return lists the labels that could not be
// parsed so silent degradation stays visible to operators. Extract never
// fails.
func Extract(item apisports.OddsItem) (models.MarketSnapshot, []string) {
	var snap models.MarketSnapshot
	var unparsed []string

	bets := firstBookmakerBets(item)
	if bets == nil {
		return snap, []string{"bookmakers"}
	}

	if bet := findBetByID(bets, apisports.BetIDMatchWinner); bet != nil && len(bet.Values) >= 3 {
		// The provider lists match-winner values in home/draw/away order.
		snap.HomeWinPrice = parsePrice(bet.Values[0].Odd, &unparsed, "1x2_home")
		snap.DrawPrice = parsePrice(bet.Values[1].Odd, &unparsed, "1x2_draw")
		snap.AwayWinPrice = parsePrice(bet.Values[2].Odd, &unparsed, "1x2_away")
	} else {
		unparsed = append(unparsed, "1x2")
	}

	if bet := findBetByID(bets, apisports.BetIDOverUnder); bet != nil {
		if odd, ok := findValue(bet.Values, "Over 2.5"); ok {
			snap.Over25Price = parsePrice(odd, &unparsed, "over_2_5")
		} else {
			unparsed = append(unparsed, "over_2_5")
		}
	} else {
		unparsed = append(unparsed, "over_2_5")
	}

	snap.FirstHalfOver05Price = firstHalfPrice(bets, "Over 0.5", fhOver05Min, fhOver05Max)
	snap.FirstHalfOver15Price = firstHalfPrice(bets, "Over 1.5", fhOver15Min, fhOver15Max)
	snap.FirstHalfBTTSPrice = firstHalfBTTSPrice(bets)

	return snap, unparsed
}

// firstBookmakerBets selects the first bookmaker block carrying a
// non-empty bet list. No specific bookmaker is required by name.
func firstBookmakerBets(item apisports.OddsItem) []apisports.Bet {
	for _, bm := range item.Bookmakers {
		if len(bm.Bets) > 0 {
			return bm.Bets
		}
	}
	return nil
}

func findBetByID(bets []apisports.Bet, id int64) *apisports.Bet {
	for i := range bets {
		if bets[i].ID == id {
			return &bets[i]
		}
	}
	return nil
}

func findValue(values []apisports.BetValue, label string) (string, bool) {
	for _, v := range values {
		if v.Value == label {
			return v.Odd, true
		}
	}
	return "", false
}

// parsePrice converts a quoted odd to a float, degrading to the 0.0
// sentinel on malformed or implausible values.
func parsePrice(odd string, unparsed *[]string, label string) float64 {
	p, err := strconv.ParseFloat(strings.TrimSpace(odd), 64)
	if err != nil || p <= 1.0 || p > maxPlausiblePrice {
		*unparsed = append(*unparsed, label)
		return 0
	}
	return p
}

// firstHalfPrice scans every bet whose name looks like a first-half goals
// market for the given value label. Bookmakers are not consistent about
// market naming, hence the substring matching; the sanity band rejects
// hits on similarly labeled but unrelated markets.
func firstHalfPrice(bets []apisports.Bet, valueLabel string, min, max float64) float64 {
	for _, bet := range bets {
		name := strings.ToLower(bet.Name)
		if !isFirstHalfLabel(name) || !isGoalsLabel(name) {
			continue
		}
		odd, ok := findValue(bet.Values, valueLabel)
		if !ok {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(odd), 64)
		if err != nil || p < min || p > max {
			continue
		}
		return p
	}
	return 0
}

func firstHalfBTTSPrice(bets []apisports.Bet) float64 {
	for _, bet := range bets {
		name := strings.ToLower(bet.Name)
		if !isFirstHalfLabel(name) || !isBTTSLabel(name) {
			continue
		}
		odd, ok := findValue(bet.Values, "Yes")
		if !ok {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(odd), 64)
		if err != nil || p < fhBTTSMin || p > fhBTTSMax {
			continue
		}
		return p
	}
	return 0
}

func isFirstHalfLabel(name string) bool {
	if strings.Contains(name, "1h") {
		return true
	}
	if !strings.Contains(name, "half") {
		return false
	}
	return strings.Contains(name, "1st") || strings.Contains(name, "first")
}

func isGoalsLabel(name string) bool {
	return strings.Contains(name, "goal") ||
		strings.Contains(name, "over/under") ||
		strings.Contains(name, "total")
}

func isBTTSLabel(name string) bool {
	return strings.Contains(name, "both teams") || strings.Contains(name, "btts")
}
