package scoring

import (
	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// Reason tags, in rule order. The history log and the auditor key off
// these strings, so they are part of the persisted contract.
const (
	ReasonTrap       = "trap"
	ReasonDrop       = "drop"
	ReasonInversion  = "inversion"
	ReasonValue      = "value"
	ReasonHTQuote    = "ht-quote"
	ReasonHTForm     = "ht-form"
	ReasonGoalHunger = "goal-hunger"
	ReasonSpectacle  = "spectacle"
	ReasonSaturated  = "saturated"
)

// rule is one entry of the ordered scoring table: fire the condition, add
// the delta, record the tag.
type rule struct {
	tag   string
	delta func(cfg *config.ScoringConfig) int
	fires func(cfg *config.ScoringConfig, in input) bool
}

type input struct {
	snap    models.MarketSnapshot
	signals models.SignalSet
	form    *models.FormIndicators
}

// Engine turns a market snapshot plus detected signals into a 0..100
// rating with reason tags. It is a deterministic rule accumulator, not a
// probability model: all thresholds are inclusive on both ends and every
// delta is an integer.
type Engine struct {
	cfg   config.ScoringConfig
	rules []rule
}

func NewEngine(cfg config.ScoringConfig) *Engine {
	e := &Engine{cfg: cfg}
	e.rules = []rule{
		{
			tag:   ReasonDrop,
			delta: func(c *config.ScoringConfig) int { return c.DropBonus },
			fires: func(c *config.ScoringConfig, in input) bool { return in.signals.Drop },
		},
		{
			tag:   ReasonInversion,
			delta: func(c *config.ScoringConfig) int { return c.InversionBonus },
			// Drop wins when both fired; inversion is the fallback signal.
			fires: func(c *config.ScoringConfig, in input) bool { return !in.signals.Drop && in.signals.Inversion },
		},
		{
			tag:   ReasonValue,
			delta: func(c *config.ScoringConfig) int { return c.ValueBonus },
			fires: func(c *config.ScoringConfig, in input) bool {
				return inBand(in.snap.Over25Price, c.ValueZoneLow, c.ValueZoneHigh)
			},
		},
		{
			tag:   ReasonHTQuote,
			delta: func(c *config.ScoringConfig) int { return c.FirstHalfBonus },
			fires: func(c *config.ScoringConfig, in input) bool {
				return inBand(in.snap.FirstHalfOver05Price, c.FirstHalfQuoteLow, c.FirstHalfQuoteHigh)
			},
		},
		{
			tag:   ReasonHTForm,
			delta: func(c *config.ScoringConfig) int { return c.FormBonus },
			fires: func(c *config.ScoringConfig, in input) bool {
				if in.form == nil {
					return false
				}
				return in.form.Home.FirstHalfGoalRate >= c.FormRateThreshold &&
					in.form.Away.FirstHalfGoalRate >= c.FormRateThreshold
			},
		},
		{
			tag:   ReasonGoalHunger,
			delta: func(c *config.ScoringConfig) int { return c.GoalHungerBonus },
			fires: func(c *config.ScoringConfig, in input) bool {
				if in.form == nil {
					return false
				}
				switch in.signals.CurrentFavorite {
				case models.SideHome:
					return in.form.Home.GoalHunger
				case models.SideAway:
					return in.form.Away.GoalHunger
				}
				return false
			},
		},
		{
			tag:   ReasonSpectacle,
			delta: func(c *config.ScoringConfig) int { return c.SpectacleBonus },
			fires: func(c *config.ScoringConfig, in input) bool {
				if !c.SpectacleRules || in.form == nil {
					return false
				}
				if in.form.Home.Sampled == 0 || in.form.Away.Sampled == 0 {
					return false
				}
				avg := (in.form.Home.SpectacleIndex + in.form.Away.SpectacleIndex) / 2
				return avg >= c.SpectacleLow && avg < c.SpectacleHigh
			},
		},
		{
			tag:   ReasonSaturated,
			delta: func(c *config.ScoringConfig) int { return -c.SaturationMalus },
			fires: func(c *config.ScoringConfig, in input) bool {
				if !c.SpectacleRules || in.form == nil {
					return false
				}
				return in.form.Home.SpectacleIndex >= c.SaturationLimit ||
					in.form.Away.SpectacleIndex >= c.SaturationLimit
			},
		},
	}
	return e
}

// Score is a pure function of its inputs and never fails. form may be nil;
// form-based rules are then skipped.
func (e *Engine) Score(current models.MarketSnapshot, signals models.SignalSet, form *models.FormIndicators) models.ScoreResult {
	if signals.Trap {
		return models.ScoreResult{
			Rating:  0,
			Reasons: []string{ReasonTrap},
			IsTrap:  true,
		}
	}

	in := input{snap: current, signals: signals, form: form}
	rating := e.cfg.BaseRating
	var reasons []string
	for _, r := range e.rules {
		if r.fires(&e.cfg, in) {
			rating += r.delta(&e.cfg)
			reasons = append(reasons, r.tag)
		}
	}

	if rating < 0 {
		rating = 0
	}
	if rating > 100 {
		rating = 100
	}

	return models.ScoreResult{
		Rating:  rating,
		Reasons: reasons,
		IsGold:  inBand(current.FavoritePrice(), e.cfg.SweetSpotLow, e.cfg.SweetSpotHigh),
	}
}

// inBand reports price inside [low, high]; the 0.0 sentinel never
// qualifies.
func inBand(price, low, high float64) bool {
	return price > 0 && price >= low && price <= high
}
