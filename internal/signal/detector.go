package signal

import (
	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// Compare derives the market-movement signals for one fixture from a
// stored snapshot and a live re-fetch. previous is nil on a fresh day.
//
// Every price check treats the 0.0 sentinel as "cannot evaluate": the
// affected signal stays false rather than reading 0.0 as a real quote.
func Compare(previous *models.MarketSnapshot, current models.MarketSnapshot, cfg config.SignalsConfig) models.SignalSet {
	var set models.SignalSet

	// Trap depends only on the current snapshot.
	if current.Over25Price > 0 && current.Over25Price < cfg.TrapThreshold {
		set.Trap = true
	}

	set.CurrentFavorite = current.Favorite()
	if set.CurrentFavorite == models.SideNone {
		return set
	}
	if previous == nil {
		return set
	}
	set.PreviousFavorite = previous.Favorite()
	if set.PreviousFavorite == models.SideNone {
		return set
	}

	// Drop tracks the favored side against its own earlier price, and only
	// while the same side stays favored. A favorite flip is the inversion
	// signal's business; reading the new favorite's longshot-to-favorite
	// collapse as a "drop" would double-count the flip.
	if set.PreviousFavorite == set.CurrentFavorite {
		prevPrice := previous.SidePrice(set.CurrentFavorite)
		currentPrice := current.FavoritePrice()
		if prevPrice > 0 && currentPrice > 0 {
			delta := prevPrice - currentPrice
			if delta >= cfg.DropThreshold && currentPrice <= cfg.DropCeiling {
				set.Drop = true
				set.DropMagnitude = delta
			}
		}
	}

	if set.PreviousFavorite != set.CurrentFavorite {
		gap := current.HomeWinPrice - current.AwayWinPrice
		if gap < 0 {
			gap = -gap
		}
		if gap >= cfg.InversionMargin {
			set.Inversion = true
		}
	}

	return set
}
