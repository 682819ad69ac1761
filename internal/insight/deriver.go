package insight

import (
	"fmt"
	"time"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/domain"
)

// Deriver produces the full Insight artifact for one (team, snapshot) pair.
// Everything here is a pure function of the snapshot plus the team's match
// window; insights are regenerable and never authoritative state.
type Deriver struct {
	cfg config.Config
}

// NewDeriver creates an insight deriver.
func NewDeriver(cfg config.Config) *Deriver {
	return &Deriver{cfg: cfg}
}

// Derive builds the Insight for snap. history is the team's time-ordered
// snapshot sequence (for PowerScore volatility), cohortSnaps the full cohort
// snapshot of the same run (for opponent PowerScores), matches the raw match
// records covering the team's window.
func (d *Deriver) Derive(snap domain.RankingSnapshot, history []domain.RankingSnapshot, cohortSnaps []domain.RankingSnapshot, matches []domain.Match) (domain.Insight, error) {
	if snap.TeamID == "" {
		return domain.Insight{}, fmt.Errorf("snapshot has no team ID")
	}

	windows, _ := domain.BuildWindows(matches, snap.ComputedAt, d.cfg.Ranking.WindowDays, d.cfg.Ranking.MaxGames)
	window := windows[snap.TeamID]

	cohortPowers := make(map[string]float64, len(cohortSnaps))
	for _, cs := range cohortSnaps {
		if cs.PowerScore != nil && cs.TeamID != snap.TeamID {
			cohortPowers[cs.TeamID] = *cs.PowerScore
		}
	}

	var persona domain.PersonaResult
	if snap.PowerScore != nil {
		tiers := BuildTierStats(window, *snap.PowerScore, cohortPowers, d.cfg.Insight.PersonaGapThreshold)
		persona = ClassifyPersona(tiers, d.cfg.Insight.MinBucketGames)
	} else {
		persona = ClassifyPersona(domain.TierStats{}, d.cfg.Insight.MinBucketGames)
	}

	return domain.Insight{
		TeamID:      snap.TeamID,
		RunID:       snap.RunID,
		Cohort:      snap.Cohort,
		GeneratedAt: time.Now().UTC(),
		Consistency: Consistency(window, history, d.cfg.Ranking.GoalDiffCap),
		Persona:     persona,
		Narrative:   Narrative(snap, d.cfg.Insight),
	}, nil
}
