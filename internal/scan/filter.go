package scan

import (
	"strings"

	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

// FilterFixtures keeps the fixtures worth scoring: not yet started, league
// name free of excluded tokens, and league either id-allowlisted or from
// an allowlisted country. An empty allowlist admits every league that
// survives the token exclusion.
func FilterFixtures(fixtures []models.Fixture, cfg config.LeaguesConfig) []models.Fixture {
	includeIDs := make(map[int64]struct{}, len(cfg.IncludeIDs))
	for _, id := range cfg.IncludeIDs {
		includeIDs[id] = struct{}{}
	}

	var out []models.Fixture
	for _, f := range fixtures {
		if f.Status != models.FixtureStatusNotStarted {
			continue
		}
		if containsToken(f.LeagueName, cfg.ExcludeNameTokens) {
			continue
		}
		if len(includeIDs) > 0 || len(cfg.IncludeCountries) > 0 {
			_, idOK := includeIDs[f.LeagueID]
			if !idOK && !countryListed(f.LeagueCountry, cfg.IncludeCountries) {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func containsToken(name string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

func countryListed(country string, countries []string) bool {
	for _, c := range countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}
