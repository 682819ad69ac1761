package insight

import (
	"fmt"

	"github.com/pitchside/scoutrank/internal/domain"
)

// Persona labels.
const (
	PersonaGiantKiller    = "Giant Killer"
	PersonaFlatTrackBully = "Flat Track Bully"
	PersonaGatekeeper     = "Gatekeeper"
	PersonaWildcard       = "Wildcard"
)

// personaRule is one ordered classification rule: the first rule whose
// predicate matches wins. Keeping the decision order as data makes each rule
// independently testable.
type personaRule struct {
	label    string
	matches  func(t domain.TierStats, minBucket int) bool
	evidence func(t domain.TierStats) string
}

var personaRules = []personaRule{
	{
		label: PersonaGiantKiller,
		matches: func(t domain.TierStats, minBucket int) bool {
			return t.StrongerGames >= minBucket &&
				t.StrongerWins >= 2 &&
				t.WinRateStronger() >= 0.40
		},
		evidence: func(t domain.TierStats) string {
			return fmt.Sprintf("wins %d of %d against stronger opposition", t.StrongerWins, t.StrongerGames)
		},
	},
	{
		label: PersonaFlatTrackBully,
		matches: func(t domain.TierStats, minBucket int) bool {
			return t.WeakerGames >= minBucket &&
				t.WinRateWeaker() >= 0.80 &&
				t.StrongerGames >= minBucket &&
				t.WinRateStronger() < 0.25
		},
		evidence: func(t domain.TierStats) string {
			return fmt.Sprintf("dominates weaker sides (%d of %d) but wins only %d of %d against stronger ones",
				t.WeakerWins, t.WeakerGames, t.StrongerWins, t.StrongerGames)
		},
	},
	{
		label: PersonaGatekeeper,
		matches: func(t domain.TierStats, minBucket int) bool {
			if t.WeakerGames < minBucket || t.WinRateWeaker() < 0.65 {
				return false
			}
			return t.StrongerGames < minBucket || t.WinRateStronger() < 0.30
		},
		evidence: func(t domain.TierStats) string {
			return fmt.Sprintf("beats weaker sides (%d of %d) but does not trouble stronger ones",
				t.WeakerWins, t.WeakerGames)
		},
	},
}

// BuildTierStats buckets each match's opponent as stronger, weaker or similar
// using a PowerScore gap threshold rather than rank position, which would be
// cohort-size-dependent. Opponents without a PowerScore cannot be bucketed
// and are left out of the tier sample.
func BuildTierStats(window *domain.TeamWindow, ownPower float64, cohortPowers map[string]float64, gapThreshold float64) domain.TierStats {
	var tiers domain.TierStats
	if window == nil {
		return tiers
	}

	for _, pm := range window.Matches {
		oppPower, ok := cohortPowers[pm.OpponentID]
		if !ok {
			continue
		}
		won := pm.GoalsFor > pm.GoalsAgainst

		switch gap := oppPower - ownPower; {
		case gap >= gapThreshold:
			tiers.StrongerGames++
			if won {
				tiers.StrongerWins++
			}
		case gap <= -gapThreshold:
			tiers.WeakerGames++
			if won {
				tiers.WeakerWins++
			}
		default:
			tiers.SimilarGames++
			if won {
				tiers.SimilarWins++
			}
		}
	}

	return tiers
}

// ClassifyPersona evaluates the rule table top to bottom; the first match
// wins and Wildcard is the default for thin or erratic samples.
func ClassifyPersona(tiers domain.TierStats, minBucket int) domain.PersonaResult {
	for _, rule := range personaRules {
		if rule.matches(tiers, minBucket) {
			return domain.PersonaResult{
				Label:    rule.label,
				Evidence: rule.evidence(tiers),
				Tiers:    tiers,
			}
		}
	}

	return domain.PersonaResult{
		Label:    PersonaWildcard,
		Evidence: fmt.Sprintf("no stable pattern across %d tiered games", tiers.StrongerGames+tiers.SimilarGames+tiers.WeakerGames),
		Tiers:    tiers,
	}
}
